package codec

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/BobWall23/davenport/pkg/db"
)

// RandomKey derives a fresh key under prefix. Two calls never collide.
func RandomKey(prefix string) db.Key {
	return db.Key(prefix + uuid.NewString())
}

// ContentKey derives a stable content-addressed key: the same bytes always
// map to the same key, so re-creating identical content surfaces as
// ErrAlreadyExists instead of a duplicate document.
func ContentKey(prefix string, content db.RawContent) db.Key {
	sum := blake2b.Sum256(content)
	return db.Key(prefix + hex.EncodeToString(sum[:16]))
}
