package codec

import (
	"iter"

	"github.com/BobWall23/davenport/pkg/batch"
	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/program"
)

// Store builds typed Programs over a Codec. Like every Program
// constructor, these perform no I/O; serialization and key derivation
// failures are folded into Programs that fail on interpretation.
type Store[T any] struct {
	codec Codec[T]
}

func NewStore[T any](c Codec[T]) Store[T] {
	return Store[T]{codec: c}
}

// Get fetches and decodes the value stored under key. Content that fails
// to decode surfaces as db.ErrDecode.
func (s Store[T]) Get(key db.Key) program.Program[T] {
	return program.Bind(program.Get(key), func(doc db.Document) program.Program[T] {
		v, err := s.codec.Deserialize(doc.Content)
		if err != nil {
			return program.Fail[T](db.ErrDecode)
		}
		return program.Pure(v)
	})
}

// Create serializes v and stores it under its derived key.
func (s Store[T]) Create(v T) program.Program[db.Document] {
	key, content, err := s.encode(v)
	if err != nil {
		return program.Fail[db.Document](err)
	}
	return program.Create(key, content)
}

// Update replaces the document holding v, CAS-checked against cas.
func (s Store[T]) Update(v T, cas db.Cas) program.Program[db.Document] {
	key, content, err := s.encode(v)
	if err != nil {
		return program.Fail[db.Document](err)
	}
	return program.Update(key, content, cas)
}

// Remove deletes the document holding v, addressed by its derived key.
func (s Store[T]) Remove(v T) program.Program[struct{}] {
	key, err := s.codec.KeyFor(v)
	if err != nil {
		return program.Fail[struct{}](err)
	}
	return program.Remove(key)
}

func (s Store[T]) encode(v T) (db.Key, db.RawContent, error) {
	key, err := s.codec.KeyFor(v)
	if err != nil {
		return "", nil, err
	}
	content, err := s.codec.Serialize(v)
	if err != nil {
		return "", nil, err
	}
	return key, content, nil
}

// BatchItems turns a lazy sequence of typed values into batch input. A
// value whose key derivation or serialization fails becomes an item that
// is already failed before any create is attempted, so the batch engine
// records it at the right index.
func BatchItems[T any](c Codec[T], values iter.Seq[T]) iter.Seq[batch.Item] {
	return func(yield func(batch.Item) bool) {
		for v := range values {
			key, err := c.KeyFor(v)
			if err != nil {
				if !yield(batch.Failed(err)) {
					return
				}
				continue
			}
			content, err := c.Serialize(v)
			if err != nil {
				if !yield(batch.Failed(err)) {
					return
				}
				continue
			}
			if !yield(batch.Of(program.Pure(key), content)) {
				return
			}
		}
	}
}

// BatchItemsSlice is BatchItems over a slice.
func BatchItemsSlice[T any](c Codec[T], values []T) iter.Seq[batch.Item] {
	return BatchItems(c, func(yield func(T) bool) {
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	})
}
