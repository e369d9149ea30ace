// Package program provides the composable description of database work and
// the interpreter that executes it against a db.Backend. A Program is a
// value: building one performs no I/O, and the same Program may be stored
// and executed any number of times, against different backends.
package program

import "github.com/BobWall23/davenport/pkg/db"

// Program describes one or more commands whose eventual result has type T.
// Later stages may depend on earlier results via Bind; nothing runs until
// the Program is handed to Execute or Run.
type Program[T any] struct {
	step step
}

// step is the untyped continuation-chain node evaluated by the interpreter.
// The typed constructors below guarantee the any values flowing through it
// match the declared result types.
type step interface {
	isStep()
}

type pureStep struct{ v any }

type failStep struct{ err error }

type commandStep struct{ cmd Command }

// bindStep runs prev, then feeds its result to f to obtain the next step.
// Evaluation short-circuits if prev fails.
type bindStep struct {
	prev step
	f    func(any) step
}

// rescueStep runs prev, and on failure feeds the error to f to obtain an
// alternative step. Success passes through untouched.
type rescueStep struct {
	prev step
	f    func(error) step
}

func (pureStep) isStep()    {}
func (failStep) isStep()    {}
func (commandStep) isStep() {}
func (bindStep) isStep()    {}
func (rescueStep) isStep()  {}

// Pure lifts a plain value into a Program that performs no backend calls.
func Pure[T any](v T) Program[T] {
	return Program[T]{step: pureStep{v: v}}
}

// Fail builds a Program that fails with err as soon as it is interpreted.
func Fail[T any](err error) Program[T] {
	return Program[T]{step: failStep{err: err}}
}

// Get describes fetching the document stored under key.
func Get(key db.Key) Program[db.Document] {
	return Program[db.Document]{step: commandStep{cmd: GetCommand{Key: key}}}
}

// Create describes storing a new document. Fails with db.ErrAlreadyExists
// if the key is taken.
func Create(key db.Key, content db.RawContent) Program[db.Document] {
	return Program[db.Document]{step: commandStep{cmd: CreateCommand{Key: key, Content: content}}}
}

// Update describes a CAS-checked replace. Pass db.CasUnconditional to skip
// the version check.
func Update(key db.Key, content db.RawContent, cas db.Cas) Program[db.Document] {
	return Program[db.Document]{step: commandStep{cmd: UpdateCommand{Key: key, Content: content, Cas: cas}}}
}

// Remove describes deleting the document stored under key.
func Remove(key db.Key) Program[struct{}] {
	return Program[struct{}]{step: commandStep{cmd: RemoveCommand{Key: key}}}
}

// Counter describes reading a counter's current value.
func Counter(key db.Key) Program[int64] {
	return Program[int64]{step: commandStep{cmd: CounterCommand{Key: key}}}
}

// Increment describes an atomic counter adjustment. An absent counter is
// created with value delta.
func Increment(key db.Key, delta int64) Program[int64] {
	return Program[int64]{step: commandStep{cmd: IncrementCommand{Key: key, Delta: delta}}}
}

// Bind sequences two stages: the second is chosen from the first's result.
// If the first stage fails, f never runs.
func Bind[A, B any](p Program[A], f func(A) Program[B]) Program[B] {
	return Program[B]{step: bindStep{
		prev: p.step,
		f: func(v any) step {
			// Comma-ok so a nil any (e.g. a Program[error] that
			// succeeded with nil) becomes the zero A, not a panic.
			a, _ := v.(A)
			return f(a).step
		},
	}}
}

// Map transforms a Program's result with a pure function.
func Map[A, B any](p Program[A], f func(A) B) Program[B] {
	return Bind(p, func(a A) Program[B] {
		return Pure(f(a))
	})
}

// MapError rewrites the error a failing Program produces. Successful
// results pass through untouched.
func MapError[T any](p Program[T], f func(error) error) Program[T] {
	return Program[T]{step: rescueStep{
		prev: p.step,
		f: func(err error) step {
			return failStep{err: f(err)}
		},
	}}
}

// OrElse recovers a failing Program by running an alternative built from
// the error.
func OrElse[T any](p Program[T], alt func(error) Program[T]) Program[T] {
	return Program[T]{step: rescueStep{
		prev: p.step,
		f: func(err error) step {
			return alt(err).step
		},
	}}
}
