package program

import (
	"context"
	"fmt"

	"github.com/BobWall23/davenport/pkg/db"
)

// Execute interprets p against backend and returns immediately with a
// deferred result. If the backend reports no live session the future is
// rejected with db.ErrNotConnected before any command is dispatched.
//
// Bound stages run strictly in declared order; a stage starts only after
// its predecessor's result is available, and the first failure
// short-circuits all later stages.
func Execute[T any](ctx context.Context, backend db.Backend, p Program[T]) *db.Future[T] {
	if !backend.Connected() {
		return db.Failed[T](db.ErrNotConnected)
	}
	f := db.NewFuture[T]()
	go func() {
		v, err := eval(ctx, backend, p.step)
		if err != nil {
			f.Reject(err)
			return
		}
		t, _ := v.(T)
		f.Resolve(t)
	}()
	return f
}

// Run is the blocking convenience wrapper around Execute. It must not be
// called from a goroutine that a backend needs to complete its futures, or
// it will deadlock.
func Run[T any](ctx context.Context, backend db.Backend, p Program[T]) (T, error) {
	return Execute(ctx, backend, p).Await(ctx)
}

// eval walks the continuation chain. The interpreter itself holds no state
// across calls; all side effects are those of the backend operations it
// awaits.
func eval(ctx context.Context, backend db.Backend, s step) (any, error) {
	for {
		switch st := s.(type) {
		case pureStep:
			return st.v, nil
		case failStep:
			return nil, st.err
		case commandStep:
			return dispatch(ctx, backend, st.cmd)
		case bindStep:
			v, err := eval(ctx, backend, st.prev)
			if err != nil {
				return nil, err
			}
			s = st.f(v)
		case rescueStep:
			v, err := eval(ctx, backend, st.prev)
			if err == nil {
				return v, nil
			}
			s = st.f(err)
		default:
			return nil, fmt.Errorf("davenport: unknown program step %T", s)
		}
	}
}

// dispatch maps one command variant to its backend operation and awaits the
// result.
func dispatch(ctx context.Context, backend db.Backend, c Command) (any, error) {
	switch cmd := c.(type) {
	case GetCommand:
		return backend.GetDocument(ctx, cmd.Key).Await(ctx)
	case CreateCommand:
		return backend.CreateDocument(ctx, cmd.Key, cmd.Content).Await(ctx)
	case UpdateCommand:
		return backend.UpdateDocument(ctx, cmd.Key, cmd.Content, cmd.Cas).Await(ctx)
	case RemoveCommand:
		return backend.RemoveDocument(ctx, cmd.Key).Await(ctx)
	case CounterCommand:
		return backend.Counter(ctx, cmd.Key).Await(ctx)
	case IncrementCommand:
		return backend.IncrementCounter(ctx, cmd.Key, cmd.Delta).Await(ctx)
	default:
		return nil, fmt.Errorf("davenport: unknown command %T", c)
	}
}
