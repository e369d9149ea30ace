// Package memory implements db.Backend over a plain in-process map. It is
// intended for tests and prototyping: operations complete synchronously,
// returning already-resolved futures, and replaying the same program
// against the same starting state is fully deterministic.
package memory

import (
	"context"

	"github.com/BobWall23/davenport/pkg/db"
)

// State is the whole content of a simulated store: documents and counters
// in separate key spaces, mirroring how the durable backends partition
// their key space.
type State struct {
	Docs     map[db.Key]db.Document
	Counters map[db.Key]int64
}

// NewState returns an empty store state.
func NewState() State {
	return State{
		Docs:     make(map[db.Key]db.Document),
		Counters: make(map[db.Key]int64),
	}
}

// Clone deep-copies the state, including document contents.
func (s State) Clone() State {
	out := State{
		Docs:     make(map[db.Key]db.Document, len(s.Docs)),
		Counters: make(map[db.Key]int64, len(s.Counters)),
	}
	for k, d := range s.Docs {
		out.Docs[k] = d.Clone()
	}
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	return out
}

// Backend is the in-memory db.Backend. It owns its state exclusively:
// the constructor clones the seed state and Snapshot clones on the way
// out, so callers only ever hold copies. It is not safe for concurrent
// use; serialize access if a test shares one across goroutines.
type Backend struct {
	state State
}

// New returns a backend seeded with a clone of state. Pass NewState() for
// an empty store.
func New(state State) *Backend {
	return &Backend{state: state.Clone()}
}

// Snapshot returns a copy of the backend's current state.
func (b *Backend) Snapshot() State {
	return b.state.Clone()
}

// Connected always holds: there is no session to lose.
func (b *Backend) Connected() bool { return true }

func (b *Backend) GetDocument(_ context.Context, key db.Key) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	doc, ok := b.state.Docs[key]
	if !ok {
		return db.Failed[db.Document](db.ErrNotFound)
	}
	return db.Resolved(doc.Clone())
}

func (b *Backend) CreateDocument(_ context.Context, key db.Key, content db.RawContent) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	if _, ok := b.state.Docs[key]; ok {
		return db.Failed[db.Document](db.ErrAlreadyExists)
	}
	doc := db.Document{Content: content, Cas: 1}.Clone()
	b.state.Docs[key] = doc
	return db.Resolved(doc.Clone())
}

func (b *Backend) UpdateDocument(_ context.Context, key db.Key, content db.RawContent, cas db.Cas) *db.Future[db.Document] {
	if !key.Valid() {
		return db.Failed[db.Document](db.ErrInvalidKey)
	}
	stored, ok := b.state.Docs[key]
	if !ok {
		return db.Failed[db.Document](db.ErrNotFound)
	}
	if cas != db.CasUnconditional && cas != stored.Cas {
		return db.Failed[db.Document](db.ErrCasMismatch)
	}
	doc := db.Document{Content: content, Cas: stored.Cas + 1}.Clone()
	b.state.Docs[key] = doc
	return db.Resolved(doc.Clone())
}

func (b *Backend) RemoveDocument(_ context.Context, key db.Key) *db.Future[struct{}] {
	if !key.Valid() {
		return db.Failed[struct{}](db.ErrInvalidKey)
	}
	if _, ok := b.state.Docs[key]; !ok {
		return db.Failed[struct{}](db.ErrNotFound)
	}
	delete(b.state.Docs, key)
	return db.Resolved(struct{}{})
}

func (b *Backend) Counter(_ context.Context, key db.Key) *db.Future[int64] {
	if !key.Valid() {
		return db.Failed[int64](db.ErrInvalidKey)
	}
	v, ok := b.state.Counters[key]
	if !ok {
		return db.Failed[int64](db.ErrNotFound)
	}
	return db.Resolved(v)
}

func (b *Backend) IncrementCounter(_ context.Context, key db.Key, delta int64) *db.Future[int64] {
	if !key.Valid() {
		return db.Failed[int64](db.ErrInvalidKey)
	}
	v, ok := b.state.Counters[key]
	if !ok {
		// An absent counter starts at the delta itself, not zero.
		b.state.Counters[key] = delta
		return db.Resolved(delta)
	}
	v += delta
	b.state.Counters[key] = v
	return db.Resolved(v)
}
