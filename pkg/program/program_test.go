package program_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/db/memory"
	"github.com/BobWall23/davenport/pkg/program"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	created, err := program.Run(ctx, backend, program.Create("user::1", db.RawContent(`{"name":"ada"}`)))
	require.NoError(t, err)
	assert.NotEqual(t, db.Cas(0), created.Cas)

	got, err := program.Run(ctx, backend, program.Get("user::1"))
	require.NoError(t, err)
	assert.Equal(t, db.RawContent(`{"name":"ada"}`), got.Content)
	assert.Equal(t, created.Cas, got.Cas)
}

func TestCreateExisting(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	_, err := program.Run(ctx, backend, program.Create("k", db.RawContent("v")))
	require.NoError(t, err)

	_, err = program.Run(ctx, backend, program.Create("k", db.RawContent("w")))
	assert.ErrorIs(t, err, db.ErrAlreadyExists)
}

func TestCasEnforcement(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	created, err := program.Run(ctx, backend, program.Create("k", db.RawContent("v1")))
	require.NoError(t, err)

	_, err = program.Run(ctx, backend, program.Update("k", db.RawContent("v2"), created.Cas+41))
	assert.ErrorIs(t, err, db.ErrCasMismatch)

	updated, err := program.Run(ctx, backend, program.Update("k", db.RawContent("v2"), created.Cas))
	require.NoError(t, err)
	assert.NotEqual(t, created.Cas, updated.Cas)

	// Unconditional update skips the check but still requires existence.
	_, err = program.Run(ctx, backend, program.Update("k", db.RawContent("v3"), db.CasUnconditional))
	require.NoError(t, err)
	_, err = program.Run(ctx, backend, program.Update("missing", db.RawContent("v"), db.CasUnconditional))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRemoveThenGet(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	_, err := program.Run(ctx, backend, program.Create("k", db.RawContent("v")))
	require.NoError(t, err)

	_, err = program.Run(ctx, backend, program.Remove("k"))
	require.NoError(t, err)

	_, err = program.Run(ctx, backend, program.Get("k"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = program.Run(ctx, backend, program.Remove("k"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	_, err := program.Run(ctx, backend, program.Counter("hits"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	v, err := program.Run(ctx, backend, program.Increment("hits", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = program.Run(ctx, backend, program.Increment("hits", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(8), v)

	v, err = program.Run(ctx, backend, program.Increment("hits", -10))
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)

	v, err = program.Run(ctx, backend, program.Counter("hits"))
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)
}

func TestBindSequencing(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	// The second stage depends on the first stage's result.
	p := program.Bind(
		program.Create("k", db.RawContent("v1")),
		func(doc db.Document) program.Program[db.Document] {
			return program.Update("k", db.RawContent("v2"), doc.Cas)
		},
	)
	doc, err := program.Run(ctx, backend, p)
	require.NoError(t, err)
	assert.Equal(t, db.RawContent("v2"), doc.Content)
}

func TestBindShortCircuits(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	ran := false
	p := program.Bind(
		program.Get("missing"),
		func(db.Document) program.Program[db.Document] {
			ran = true
			return program.Create("never", db.RawContent("x"))
		},
	)
	_, err := program.Run(ctx, backend, p)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.False(t, ran, "later stage must not run after a failure")

	_, err = program.Run(ctx, backend, program.Get("never"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestConstructionPerformsNoIO(t *testing.T) {
	ctx := context.Background()

	// Build once, run against two independent stores.
	p := program.Create("k", db.RawContent("v"))

	first := memory.New(memory.NewState())
	_, err := program.Run(ctx, first, p)
	require.NoError(t, err)

	second := memory.New(memory.NewState())
	_, err = program.Run(ctx, second, p)
	require.NoError(t, err)
}

func TestMap(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	_, err := program.Run(ctx, backend, program.Create("k", db.RawContent("hello")))
	require.NoError(t, err)

	p := program.Map(program.Get("k"), func(doc db.Document) int {
		return len(doc.Content)
	})
	n, err := program.Run(ctx, backend, p)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMapError(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	wrapped := errors.New("wrapped")
	p := program.MapError(program.Get("missing"), func(err error) error {
		assert.ErrorIs(t, err, db.ErrNotFound)
		return wrapped
	})
	_, err := program.Run(ctx, backend, p)
	assert.ErrorIs(t, err, wrapped)
}

func TestOrElse(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	// Get-or-create via recovery.
	p := program.OrElse(program.Get("k"), func(err error) program.Program[db.Document] {
		if errors.Is(err, db.ErrNotFound) {
			return program.Create("k", db.RawContent("fresh"))
		}
		return program.Fail[db.Document](err)
	})
	doc, err := program.Run(ctx, backend, p)
	require.NoError(t, err)
	assert.Equal(t, db.RawContent("fresh"), doc.Content)

	// Second run finds the document and skips the recovery path.
	doc, err = program.Run(ctx, backend, p)
	require.NoError(t, err)
	assert.Equal(t, db.RawContent("fresh"), doc.Content)
}

type disconnectedBackend struct {
	db.Backend
}

func (disconnectedBackend) Connected() bool { return false }

func TestExecuteNotConnected(t *testing.T) {
	ctx := context.Background()

	f := program.Execute(ctx, disconnectedBackend{}, program.Get("k"))
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, db.ErrNotConnected)
}

func TestExecuteAsync(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(memory.NewState())

	f := program.Execute(ctx, backend, program.Create("k", db.RawContent("v")))
	doc, err := f.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.RawContent("v"), doc.Content)
}
