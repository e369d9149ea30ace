package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a command is dispatched to a backend
	// that has no live session.
	ErrNotConnected = errors.New("davenport: not connected")

	// ErrNotFound is returned when the document or counter does not exist.
	ErrNotFound = errors.New("davenport: document not found")

	// ErrAlreadyExists is returned by create when a document is already
	// present under the key.
	ErrAlreadyExists = errors.New("davenport: document already exists")

	// ErrCasMismatch is returned by update when the supplied version token
	// does not match the stored one. Callers are expected to re-get and
	// retry; the store never retries on its own.
	ErrCasMismatch = errors.New("davenport: cas mismatch")

	// ErrDecode is returned when stored content is malformed for the
	// requested operation, e.g. a counter key holding non-numeric bytes.
	ErrDecode = errors.New("davenport: malformed stored content")

	// ErrInvalidKey is returned when an operation is given an empty key.
	ErrInvalidKey = errors.New("davenport: invalid key")
)

// BackendError wraps an opaque driver or I/O failure with the operation that
// produced it. It matches errors.Is against its cause.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("davenport: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Backendf wraps err as a BackendError unless it is already one of the typed
// sentinels, which pass through untouched.
func Backendf(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotConnected, ErrNotFound, ErrAlreadyExists, ErrCasMismatch, ErrDecode, ErrInvalidKey} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &BackendError{Op: op, Err: err}
}

// BatchItemError records the failure of one item in a batch run, tagged with
// the item's position in the original input sequence.
type BatchItemError struct {
	Index int
	Cause error
}

func (e BatchItemError) Error() string {
	return fmt.Sprintf("davenport: batch item %d: %v", e.Index, e.Cause)
}

func (e BatchItemError) Unwrap() error { return e.Cause }
