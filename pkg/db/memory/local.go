package memory

import (
	"context"

	"github.com/BobWall23/davenport/pkg/program"
)

// RunLocal interprets p against a fresh backend seeded with start and
// returns the resulting state alongside the program's result. The input
// state is never mutated, so a test can thread the returned state into the
// next RunLocal call to continue the simulated session, or discard it and
// replay from the original.
func RunLocal[T any](ctx context.Context, start State, p program.Program[T]) (State, T, error) {
	backend := New(start)
	v, err := program.Run(ctx, backend, p)
	return backend.Snapshot(), v, err
}
