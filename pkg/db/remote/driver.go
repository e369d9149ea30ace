package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/BobWall23/davenport/pkg/db"
)

// driver is the low-level client for the document wire API. Its operations
// are event-style: each one runs the round trip on its own goroutine and
// reports through exactly one of the supplied callbacks. A get or remove of
// a missing document is a completion event with no payload, not an error;
// the backend adapter decides what that means.
type driver struct {
	base   string
	bucket string
	client *http.Client
}

func newDriver(host, bucket string, client *http.Client) *driver {
	return &driver{base: host, bucket: bucket, client: client}
}

// documentPayload is the wire form of a stored document.
type documentPayload struct {
	Content string `json:"content"`
	Cas     uint64 `json:"cas,omitempty"`
}

func (p documentPayload) decode() (db.Document, error) {
	content, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil {
		return db.Document{}, err
	}
	return db.Document{Content: content, Cas: db.Cas(p.Cas)}, nil
}

func encodeContent(content db.RawContent) documentPayload {
	return documentPayload{Content: base64.StdEncoding.EncodeToString(content)}
}

type counterPayload struct {
	Value int64 `json:"value"`
}

type deltaPayload struct {
	Delta int64 `json:"delta"`
}

// apiError is a non-2xx response, decoded. Code carries the server's
// machine-readable error code when the body had one.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

func (d *driver) health(ctx context.Context) error {
	return d.do(ctx, http.MethodGet, d.base+"/health", nil, nil)
}

func (d *driver) docURL(key db.Key) string {
	return fmt.Sprintf("%s/v1/%s/docs/%s", d.base, url.PathEscape(d.bucket), url.PathEscape(string(key)))
}

func (d *driver) counterURL(key db.Key) string {
	return fmt.Sprintf("%s/v1/%s/counters/%s", d.base, url.PathEscape(d.bucket), url.PathEscape(string(key)))
}

func (d *driver) getDocument(ctx context.Context, key db.Key, complete func(*documentPayload), fail func(error)) {
	go func() {
		var out documentPayload
		err := d.do(ctx, http.MethodGet, d.docURL(key), nil, &out)
		dispatchDoc(&out, err, complete, fail)
	}()
}

func (d *driver) createDocument(ctx context.Context, key db.Key, content db.RawContent, complete func(*documentPayload), fail func(error)) {
	go func() {
		var out documentPayload
		err := d.do(ctx, http.MethodPost, d.docURL(key), encodeContent(content), &out)
		dispatchDoc(&out, err, complete, fail)
	}()
}

func (d *driver) updateDocument(ctx context.Context, key db.Key, content db.RawContent, cas db.Cas, complete func(*documentPayload), fail func(error)) {
	go func() {
		body := encodeContent(content)
		body.Cas = uint64(cas)
		var out documentPayload
		err := d.do(ctx, http.MethodPut, d.docURL(key), body, &out)
		dispatchDoc(&out, err, complete, fail)
	}()
}

func (d *driver) removeDocument(ctx context.Context, key db.Key, complete func(), fail func(error)) {
	go func() {
		if err := d.do(ctx, http.MethodDelete, d.docURL(key), nil, nil); err != nil {
			fail(err)
			return
		}
		complete()
	}()
}

func (d *driver) getCounter(ctx context.Context, key db.Key, complete func(*counterPayload), fail func(error)) {
	go func() {
		var out counterPayload
		if err := d.do(ctx, http.MethodGet, d.counterURL(key), nil, &out); err != nil {
			if isMissing(err) {
				complete(nil)
				return
			}
			fail(err)
			return
		}
		complete(&out)
	}()
}

func (d *driver) incrementCounter(ctx context.Context, key db.Key, delta int64, complete func(*counterPayload), fail func(error)) {
	go func() {
		var out counterPayload
		if err := d.do(ctx, http.MethodPost, d.counterURL(key), deltaPayload{Delta: delta}, &out); err != nil {
			fail(err)
			return
		}
		complete(&out)
	}()
}

// dispatchDoc reports a document round trip: a missing document is a
// completion event carrying no payload.
func dispatchDoc(out *documentPayload, err error, complete func(*documentPayload), fail func(error)) {
	if err == nil {
		complete(out)
		return
	}
	if isMissing(err) {
		complete(nil)
		return
	}
	fail(err)
}

func isMissing(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && apiErr.Status == http.StatusNotFound
}

// do performs one round trip. A 2xx response is decoded into out when out
// is non-nil; anything else becomes an *apiError, or the transport error
// unchanged.
func (d *driver) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Code = eb.Error
			apiErr.Message = eb.Message
		} else {
			apiErr.Message = string(raw)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
