package db

// Key identifies a document. Keys are opaque, non-empty strings compared by
// value; the store never interprets their structure.
type Key string

// RawContent is the serialized payload of a document. The core treats it as
// opaque bytes; decoding belongs to a typed layer above this package.
type RawContent []byte

// Cas is the compare-and-swap version token a backend assigns on every
// successful write. Zero means "no existing document" on create, or
// "unconditional write" on update.
type Cas uint64

// CasUnconditional skips the version check on update. The document must
// still exist.
const CasUnconditional Cas = 0

// Document is the result of a successful get, create, or update: the stored
// content together with its current version token.
type Document struct {
	Content RawContent
	Cas     Cas
}

// Clone returns a deep copy so callers can hold on to results without
// aliasing backend-owned buffers.
func (d Document) Clone() Document {
	content := make(RawContent, len(d.Content))
	copy(content, d.Content)
	return Document{Content: content, Cas: d.Cas}
}

func (k Key) Valid() bool {
	return len(k) > 0
}
