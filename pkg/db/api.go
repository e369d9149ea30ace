// Package db defines the document model, the error taxonomy, and the
// capability contract a storage backend must implement. Commands and their
// interpreter live in pkg/program; concrete backends live in the
// subpackages memory, pebble, and remote.
package db

import "context"

// Backend is the capability interface a document store must implement.
// Every operation returns a Future so network-backed implementations can
// complete asynchronously; in-process implementations return already
// resolved futures.
//
// Semantics all implementations must honor:
//   - CreateDocument fails with ErrAlreadyExists if the key is present and
//     otherwise stores content under a fresh cas token.
//   - UpdateDocument fails with ErrNotFound if the key is absent, and with
//     ErrCasMismatch if cas is non-zero and differs from the stored token.
//     CasUnconditional replaces without a version check.
//   - RemoveDocument fails with ErrNotFound if the key is absent.
//   - Counter fails with ErrNotFound if absent; there is no implicit zero.
//   - IncrementCounter creates an absent counter with value delta, otherwise
//     atomically adds delta (which may be negative) and returns the new
//     value. Non-numeric stored bytes surface as ErrDecode.
type Backend interface {
	GetDocument(ctx context.Context, key Key) *Future[Document]
	CreateDocument(ctx context.Context, key Key, content RawContent) *Future[Document]
	UpdateDocument(ctx context.Context, key Key, content RawContent, cas Cas) *Future[Document]
	RemoveDocument(ctx context.Context, key Key) *Future[struct{}]
	Counter(ctx context.Context, key Key) *Future[int64]
	IncrementCounter(ctx context.Context, key Key, delta int64) *Future[int64]

	// Connected reports whether the backend can currently accept commands.
	// The interpreter refuses dispatch with ErrNotConnected when false.
	Connected() bool
}
