package pebble

import (
	"encoding/binary"

	"github.com/BobWall23/davenport/pkg/db"
)

// Key-space prefixes. Documents and counters live in disjoint key spaces
// so a counter op on a document key reads nothing rather than garbage.
const (
	prefixDocument byte = iota + 1
	prefixCounter
)

// makeKey builds the on-disk key from a prefix and the user key.
func makeKey(prefix byte, key db.Key) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefix
	copy(out[1:], key)
	return out
}

// Document records are an 8-byte big-endian cas header followed by the raw
// content. Counter records are exactly 8 big-endian bytes.

func encodeDocument(doc db.Document) []byte {
	out := make([]byte, 8+len(doc.Content))
	binary.BigEndian.PutUint64(out, uint64(doc.Cas))
	copy(out[8:], doc.Content)
	return out
}

func decodeDocument(value []byte) (db.Document, error) {
	if len(value) < 8 {
		return db.Document{}, db.ErrDecode
	}
	content := make(db.RawContent, len(value)-8)
	copy(content, value[8:])
	return db.Document{
		Content: content,
		Cas:     db.Cas(binary.BigEndian.Uint64(value)),
	}, nil
}

func encodeCounter(v int64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, uint64(v))
	return out
}

func decodeCounter(value []byte) (int64, error) {
	if len(value) != 8 {
		return 0, db.ErrDecode
	}
	return int64(binary.BigEndian.Uint64(value)), nil
}
