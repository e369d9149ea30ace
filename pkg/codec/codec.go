// Package codec is the typed layer above the raw document contract. A
// Codec knows how to serialize a value, deserialize stored content, and
// derive the key a value lives under; Store builds Programs that move
// typed values through any backend without the core ever learning the
// content's structure.
package codec

import (
	"encoding/json"
	"errors"

	"github.com/BobWall23/davenport/pkg/db"
)

// Codec converts between typed values and stored documents.
type Codec[T any] interface {
	Serialize(v T) (db.RawContent, error)
	Deserialize(content db.RawContent) (T, error)
	KeyFor(v T) (db.Key, error)
}

var errNoKeyFunc = errors.New("davenport: codec has no key function")

// JSON is a Codec that stores values as JSON text. Key derivation is
// supplied by the caller; see RandomKey and ContentKey for common schemes.
type JSON[T any] struct {
	Key func(T) (db.Key, error)
}

func NewJSON[T any](keyFor func(T) (db.Key, error)) JSON[T] {
	return JSON[T]{Key: keyFor}
}

func (j JSON[T]) Serialize(v T) (db.RawContent, error) {
	return json.Marshal(v)
}

func (j JSON[T]) Deserialize(content db.RawContent) (T, error) {
	var v T
	if err := json.Unmarshal(content, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (j JSON[T]) KeyFor(v T) (db.Key, error) {
	if j.Key == nil {
		return "", errNoKeyFunc
	}
	return j.Key(v)
}
