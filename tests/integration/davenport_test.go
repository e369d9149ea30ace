package integration

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BobWall23/davenport/internal/config"
	"github.com/BobWall23/davenport/internal/server"
	"github.com/BobWall23/davenport/pkg/batch"
	"github.com/BobWall23/davenport/pkg/codec"
	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/db/pebble"
	"github.com/BobWall23/davenport/pkg/db/remote"
	"github.com/BobWall23/davenport/pkg/program"
)

type event struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

func eventCodec() codec.JSON[event] {
	return codec.NewJSON(func(e event) (db.Key, error) {
		if e.ID == "" {
			return "", errors.New("event has no id")
		}
		return db.Key("event::" + e.ID), nil
	})
}

// startStack serves a pebble store over the wire API and connects a remote
// backend to it, the way a deployed client would reach davenportd.
func startStack(t *testing.T) *remote.Backend {
	t.Helper()
	store, err := pebble.NewMemStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	ts := httptest.NewServer(server.New(store, cfg.Bucket, cfg.ComputePoolSize).Handler())
	t.Cleanup(ts.Close)

	rc := cfg.Remote()
	rc.Host = ts.URL
	conn := remote.NewConnection(rc)
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(conn.Disconnect)

	return remote.NewBackend(conn)
}

func TestReadModifyWriteLoop(t *testing.T) {
	ctx := context.Background()
	backend := startStack(t)

	created, err := program.Run(ctx, backend, program.Create("doc", db.RawContent("v1")))
	require.NoError(t, err)

	// A writer with a stale token loses; re-get and retry wins.
	_, err = program.Run(ctx, backend, program.Update("doc", db.RawContent("stale"), created.Cas+1))
	require.ErrorIs(t, err, db.ErrCasMismatch)

	retry := program.Bind(program.Get("doc"), func(doc db.Document) program.Program[db.Document] {
		return program.Update("doc", db.RawContent("v2"), doc.Cas)
	})
	updated, err := program.Run(ctx, backend, retry)
	require.NoError(t, err)
	assert.NotEqual(t, created.Cas, updated.Cas)

	got, err := program.Run(ctx, backend, program.Get("doc"))
	require.NoError(t, err)
	assert.Equal(t, db.RawContent("v2"), got.Content)
}

func TestCountersOverTheWire(t *testing.T) {
	ctx := context.Background()
	backend := startStack(t)

	v, err := program.Run(ctx, backend, program.Increment("hits", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = program.Run(ctx, backend, program.Increment("hits", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)
}

func TestBatchOverTheWire(t *testing.T) {
	ctx := context.Background()
	backend := startStack(t)

	values := []event{
		{ID: "1", Payload: "a"},
		{Payload: "no id"},
		{ID: "3", Payload: "c"},
	}
	out := batch.Run(ctx, backend, codec.BatchItemsSlice[event](eventCodec(), values), batch.ContinueAlways)

	assert.True(t, out.Succeeded(0))
	assert.True(t, out.Succeeded(2))
	require.Len(t, out.Failures, 1)
	assert.Equal(t, 1, out.Failures[0].Index)

	store := codec.NewStore[event](eventCodec())
	got, err := program.Run(ctx, backend, store.Get("event::3"))
	require.NoError(t, err)
	assert.Equal(t, "c", got.Payload)
}

func TestBatchEarlyAbortOverTheWire(t *testing.T) {
	ctx := context.Background()
	backend := startStack(t)

	values := []event{
		{ID: "1", Payload: "a"},
		{Payload: "no id"},
		{ID: "3", Payload: "c"},
	}
	out := batch.Run(ctx, backend, codec.BatchItemsSlice[event](eventCodec(), values), batch.StopOnFirstError)

	assert.True(t, out.Succeeded(0))
	assert.Len(t, out.Successes, 1)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, 1, out.Failures[0].Index)

	// Item 2 was never created.
	store := codec.NewStore[event](eventCodec())
	_, err := program.Run(ctx, backend, store.Get("event::3"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSameProgramAgainstBothBackends(t *testing.T) {
	ctx := context.Background()
	backend := startStack(t)

	p := program.Bind(program.Create("k", db.RawContent("v")), func(doc db.Document) program.Program[db.Document] {
		return program.Update("k", db.RawContent("v+"), doc.Cas)
	})

	overWire, err := program.Run(ctx, backend, p)
	require.NoError(t, err)

	local, err := pebble.NewMemStore()
	require.NoError(t, err)
	defer local.Close()
	direct, err := program.Run(ctx, local, p)
	require.NoError(t, err)

	assert.Equal(t, direct.Content, overWire.Content)
	assert.Equal(t, direct.Cas, overWire.Cas)
}
