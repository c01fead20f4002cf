package domain

import "errors"

// Errors form the closed taxonomy described by the storage contracts.
// Controllers surface these to the transport layer verbatim; anything
// else a driver returns is wrapped as ErrBackendUnavailable at the
// storage boundary.
var (
	ErrQueueDoesNotExist      = errors.New("queue does not exist")
	ErrMessageDoesNotExist    = errors.New("message does not exist")
	ErrClaimDoesNotExist      = errors.New("claim does not exist")
	ErrNotPermitted           = errors.New("claim does not own this message")
	ErrValidationFailed       = errors.New("validation failed")
	ErrNoPartitionsRegistered = errors.New("no partitions registered")
	ErrPartitionNotFound      = errors.New("partition not found")
	ErrEntryNotFound          = errors.New("catalogue entry not found")
	ErrEntryAlreadyExists     = errors.New("catalogue entry already exists")
	ErrBackendUnavailable     = errors.New("storage backend unavailable")
)
