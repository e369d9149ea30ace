// Package pebble implements db.Backend on top of a local pebble database.
// It persists documents and counters with the same CAS semantics as the
// in-memory backend; CAS read-modify-write cycles are serialized with a
// store-wide mutex.
package pebble

import (
	"context"
	"sync"

	pebbledb "github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/log"
)

type Store struct {
	db     *pebbledb.DB
	closed bool
	mu     sync.RWMutex
}

func options() *pebbledb.Options {
	return &pebbledb.Options{
		Cache:        pebbledb.NewCache(64 * 1024 * 1024), // 64MB
		MemTableSize: 32 * 1024 * 1024,                    // 32MB
	}
}

// NewStore opens (creating if needed) a store at path.
func NewStore(path string) (*Store, error) {
	database, err := pebbledb.Open(path, options())
	if err != nil {
		return nil, err
	}
	log.DB.Info().Str("path", path).Msg("opened pebble store")
	return &Store{db: database}, nil
}

// NewMemStore opens a store backed by an in-memory filesystem. Used by
// tests that want pebble's code paths without touching disk.
func NewMemStore() (*Store, error) {
	opts := options()
	opts.FS = vfs.NewMem()
	database, err := pebbledb.Open("davenport", opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	log.DB.Info().Msg("closed pebble store")
	return s.db.Close()
}

func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// get returns a copy of the raw record at k. Callers must hold the mutex.
func (s *Store) get(k []byte) ([]byte, error) {
	value, closer, err := s.db.Get(k)
	if err == pebbledb.ErrNotFound {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) GetDocument(_ context.Context, key db.Key) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.Failed[db.Document](db.Backendf("get", ErrClosed))
	}
	value, err := s.get(makeKey(prefixDocument, key))
	if err != nil {
		return db.Failed[db.Document](db.Backendf("get", err))
	}
	doc, err := decodeDocument(value)
	if err != nil {
		return db.Failed[db.Document](err)
	}
	return db.Resolved(doc)
}

func (s *Store) CreateDocument(_ context.Context, key db.Key, content db.RawContent) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.Failed[db.Document](db.Backendf("create", ErrClosed))
	}
	k := makeKey(prefixDocument, key)
	if _, err := s.get(k); err == nil {
		return db.Failed[db.Document](db.ErrAlreadyExists)
	} else if err != db.ErrNotFound {
		return db.Failed[db.Document](db.Backendf("create", err))
	}
	doc := db.Document{Content: content, Cas: 1}.Clone()
	if err := s.db.Set(k, encodeDocument(doc), pebbledb.Sync); err != nil {
		return db.Failed[db.Document](db.Backendf("create", err))
	}
	return db.Resolved(doc)
}

func (s *Store) UpdateDocument(_ context.Context, key db.Key, content db.RawContent, cas db.Cas) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.Failed[db.Document](db.Backendf("update", ErrClosed))
	}
	k := makeKey(prefixDocument, key)
	value, err := s.get(k)
	if err != nil {
		return db.Failed[db.Document](db.Backendf("update", err))
	}
	stored, err := decodeDocument(value)
	if err != nil {
		return db.Failed[db.Document](err)
	}
	if cas != db.CasUnconditional && cas != stored.Cas {
		return db.Failed[db.Document](db.ErrCasMismatch)
	}
	doc := db.Document{Content: content, Cas: stored.Cas + 1}.Clone()
	if err := s.db.Set(k, encodeDocument(doc), pebbledb.Sync); err != nil {
		return db.Failed[db.Document](db.Backendf("update", err))
	}
	return db.Resolved(doc)
}

func (s *Store) RemoveDocument(_ context.Context, key db.Key) *db.Future[struct{}] {
	if !key.Valid() {
		return db.Failed[struct{}](db.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.Failed[struct{}](db.Backendf("remove", ErrClosed))
	}
	k := makeKey(prefixDocument, key)
	if _, err := s.get(k); err != nil {
		return db.Failed[struct{}](db.Backendf("remove", err))
	}
	if err := s.db.Delete(k, pebbledb.Sync); err != nil {
		return db.Failed[struct{}](db.Backendf("remove", err))
	}
	return db.Resolved(struct{}{})
}

func (s *Store) Counter(_ context.Context, key db.Key) *db.Future[int64] {
	if !key.Valid() {
		return db.Failed[int64](db.ErrInvalidKey)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return db.Failed[int64](db.Backendf("counter", ErrClosed))
	}
	value, err := s.get(makeKey(prefixCounter, key))
	if err != nil {
		return db.Failed[int64](db.Backendf("counter", err))
	}
	v, err := decodeCounter(value)
	if err != nil {
		return db.Failed[int64](err)
	}
	return db.Resolved(v)
}

func (s *Store) IncrementCounter(_ context.Context, key db.Key, delta int64) *db.Future[int64] {
	if !key.Valid() {
		return db.Failed[int64](db.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.Failed[int64](db.Backendf("increment", ErrClosed))
	}
	k := makeKey(prefixCounter, key)
	value, err := s.get(k)
	switch {
	case err == db.ErrNotFound:
		// An absent counter starts at the delta itself.
		if err := s.db.Set(k, encodeCounter(delta), pebbledb.Sync); err != nil {
			return db.Failed[int64](db.Backendf("increment", err))
		}
		return db.Resolved(delta)
	case err != nil:
		return db.Failed[int64](db.Backendf("increment", err))
	}
	v, err := decodeCounter(value)
	if err != nil {
		return db.Failed[int64](err)
	}
	v += delta
	if err := s.db.Set(k, encodeCounter(v), pebbledb.Sync); err != nil {
		return db.Failed[int64](db.Backendf("increment", err))
	}
	return db.Resolved(v)
}
