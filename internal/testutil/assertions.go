package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertIDNotEmpty asserts that a generated identifier (message, claim,
// catalogue, partition) is not the zero value.
func AssertIDNotEmpty(t *testing.T, id string, msgAndArgs ...interface{}) {
	t.Helper()
	assert.NotEmpty(t, id, msgAndArgs...)
}

// RequireIDNotEmpty requires that a generated identifier is not empty.
func RequireIDNotEmpty(t *testing.T, id string, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotEmpty(t, id, msgAndArgs...)
}

// AssertNoError asserts no error with a message
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	assert.NoError(t, err, msg)
}

// RequireNoError requires no error with a message
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	require.NoError(t, err, msg)
}
