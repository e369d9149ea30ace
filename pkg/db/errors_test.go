package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendfPassesSentinelsThrough(t *testing.T) {
	assert.Equal(t, ErrNotFound, Backendf("get", ErrNotFound))
	assert.Equal(t, ErrCasMismatch, Backendf("update", ErrCasMismatch))
	assert.Nil(t, Backendf("get", nil))
}

func TestBackendfWrapsOpaqueFailures(t *testing.T) {
	cause := errors.New("connection reset")
	err := Backendf("get", cause)

	var be *BackendError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, "get", be.Op)
	assert.ErrorIs(t, err, cause)
}

func TestBatchItemErrorUnwraps(t *testing.T) {
	err := BatchItemError{Index: 3, Cause: ErrAlreadyExists}
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Error(), "item 3")
}
