package postgres

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/queue-broker-service/internal/domain"
)

// mapError translates driver-specific failures into the sentinel domain
// errors every storage.XStore implementation is expected to return.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domain.ErrEntryAlreadyExists
		case "55P03": // lock_not_available (NOWAIT)
			return domain.ErrBackendUnavailable
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	return err
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return json.Marshal(metadata)
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// isWellFormedClaimID reports whether id has the shape of a claim id
// this driver issues. Claim ids are UUIDs; anything else is a malformed
// token rather than a reference to some other, stale claim.
func isWellFormedClaimID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
