package remote

import (
	"context"
	"errors"
	"net/http"

	"github.com/BobWall23/davenport/pkg/db"
)

// Backend adapts a Connection to the db.Backend contract. Each operation
// issues one driver call and bridges its callbacks into a future that
// resolves exactly once. A completion event that carries neither a payload
// nor an error is treated as a missing document rather than left to hang.
type Backend struct {
	conn *Connection
}

func NewBackend(conn *Connection) *Backend {
	return &Backend{conn: conn}
}

func (b *Backend) Connected() bool { return b.conn.Connected() }

func (b *Backend) GetDocument(ctx context.Context, key db.Key) *db.Future[db.Document] {
	drv, f, ok := acquire[db.Document](b, key)
	if !ok {
		return f
	}
	complete, fail := bridgeDocument(f, "get")
	drv.getDocument(ctx, key, complete, fail)
	return f
}

func (b *Backend) CreateDocument(ctx context.Context, key db.Key, content db.RawContent) *db.Future[db.Document] {
	drv, f, ok := acquire[db.Document](b, key)
	if !ok {
		return f
	}
	complete, fail := bridgeDocument(f, "create")
	drv.createDocument(ctx, key, content, complete, fail)
	return f
}

func (b *Backend) UpdateDocument(ctx context.Context, key db.Key, content db.RawContent, cas db.Cas) *db.Future[db.Document] {
	drv, f, ok := acquire[db.Document](b, key)
	if !ok {
		return f
	}
	complete, fail := bridgeDocument(f, "update")
	drv.updateDocument(ctx, key, content, cas, complete, fail)
	return f
}

func (b *Backend) RemoveDocument(ctx context.Context, key db.Key) *db.Future[struct{}] {
	drv, f, ok := acquire[struct{}](b, key)
	if !ok {
		return f
	}
	drv.removeDocument(ctx, key,
		func() { f.Resolve(struct{}{}) },
		func(err error) { f.Reject(mapError("remove", err)) },
	)
	return f
}

func (b *Backend) Counter(ctx context.Context, key db.Key) *db.Future[int64] {
	drv, f, ok := acquire[int64](b, key)
	if !ok {
		return f
	}
	drv.getCounter(ctx, key,
		func(p *counterPayload) {
			if p == nil {
				f.Reject(db.ErrNotFound)
				return
			}
			f.Resolve(p.Value)
		},
		func(err error) { f.Reject(mapError("counter", err)) },
	)
	return f
}

func (b *Backend) IncrementCounter(ctx context.Context, key db.Key, delta int64) *db.Future[int64] {
	drv, f, ok := acquire[int64](b, key)
	if !ok {
		return f
	}
	drv.incrementCounter(ctx, key, delta,
		func(p *counterPayload) {
			if p == nil {
				f.Reject(db.ErrNotFound)
				return
			}
			f.Resolve(p.Value)
		},
		func(err error) { f.Reject(mapError("increment", err)) },
	)
	return f
}

// acquire checks the session and key up front so failures surface without
// touching the network.
func acquire[T any](b *Backend, key db.Key) (*driver, *db.Future[T], bool) {
	if !key.Valid() {
		return nil, db.Failed[T](db.ErrInvalidKey), false
	}
	drv, ok := b.conn.driver()
	if !ok {
		return nil, db.Failed[T](db.ErrNotConnected), false
	}
	return drv, db.NewFuture[T](), true
}

// bridgeDocument builds the completion pair for document round trips. The
// nil-payload completion, the driver's "missing document" event, maps to
// ErrNotFound.
func bridgeDocument(f *db.Future[db.Document], op string) (func(*documentPayload), func(error)) {
	complete := func(p *documentPayload) {
		if p == nil {
			f.Reject(db.ErrNotFound)
			return
		}
		doc, err := p.decode()
		if err != nil {
			f.Reject(db.ErrDecode)
			return
		}
		f.Resolve(doc)
	}
	fail := func(err error) {
		f.Reject(mapError(op, err))
	}
	return complete, fail
}

// mapError folds wire-level failures into the flat error taxonomy.
func mapError(op string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "not_found":
			return db.ErrNotFound
		case "already_exists":
			return db.ErrAlreadyExists
		case "cas_mismatch":
			return db.ErrCasMismatch
		case "decode":
			return db.ErrDecode
		case "invalid_key":
			return db.ErrInvalidKey
		}
		if apiErr.Status == http.StatusNotFound {
			return db.ErrNotFound
		}
	}
	return db.Backendf(op, err)
}
