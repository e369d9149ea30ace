package server

// Wire types for the document API. Content travels base64-encoded inside
// JSON; the cas token is a decimal uint64.

type documentBody struct {
	Content string `json:"content"`
	Cas     uint64 `json:"cas,omitempty"`
}

type counterBody struct {
	Value int64 `json:"value"`
}

type deltaBody struct {
	Delta int64 `json:"delta"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Machine-readable error codes, mirrored by the remote driver.
const (
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"
	CodeCasMismatch   = "cas_mismatch"
	CodeDecode        = "decode"
	CodeInvalidKey    = "invalid_key"
	CodeInternal      = "internal"
)
