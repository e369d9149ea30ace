// Package batch drives many document creations from an ordered, possibly
// lazy input sequence, accumulating per-item outcomes under a caller-
// supplied continuation policy. Processing is strictly sequential: items
// run one at a time, in order, so outcome indices always refer to the
// original sequence position.
package batch

import (
	"context"
	"iter"

	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/log"
	"github.com/BobWall23/davenport/pkg/program"
)

// Item is one batch input: a key-producing program plus the content to
// store under the key it yields. An item may also be born failed, when
// whatever derived it (key computation, serialization) already erred before
// any creation was attempted.
type Item struct {
	KeyProgram program.Program[db.Key]
	Content    db.RawContent
	Err        error
}

// Of builds a live item.
func Of(keyProgram program.Program[db.Key], content db.RawContent) Item {
	return Item{KeyProgram: keyProgram, Content: content}
}

// Failed builds an item that is already known to have failed.
func Failed(err error) Item {
	return Item{Err: err}
}

// ContinueAlways processes every item regardless of failures.
func ContinueAlways(error) bool { return true }

// StopOnFirstError halts the batch at the first failure. The triggering
// failure is still reported in the outcome.
func StopOnFirstError(error) bool { return false }

// Run consumes items in order and attempts one Create per live item. For
// each failure (a born-failed item, a failing key program, or a failing
// create) a record tagged with the item's index is added to the outcome,
// and cont decides whether to keep consuming. A false answer stops
// iteration but never drops the failure that triggered it.
//
// Run never retries: cont only controls whether iteration proceeds.
func Run(ctx context.Context, backend db.Backend, items iter.Seq[Item], cont func(error) bool) Outcome {
	out := EmptyOutcome()
	index := 0
	for item := range items {
		cause := runItem(ctx, backend, item)
		if cause == nil {
			out.Successes[index] = struct{}{}
			index++
			continue
		}
		out.Failures = append(out.Failures, db.BatchItemError{Index: index, Cause: cause})
		log.Batch.Debug().Int("index", index).Err(cause).Msg("batch item failed")
		if !cont(cause) {
			log.Batch.Debug().Int("index", index).Msg("batch stopped by continuation policy")
			break
		}
		index++
	}
	return out
}

func runItem(ctx context.Context, backend db.Backend, item Item) error {
	if item.Err != nil {
		return item.Err
	}
	key, err := program.Run(ctx, backend, item.KeyProgram)
	if err != nil {
		return err
	}
	_, err = program.Run(ctx, backend, program.Create(key, item.Content))
	return err
}

// CreateProgram describes a whole batch run over a fixed slice of items
// as a single composable Program. Like Run it is strictly sequential,
// records every failure at its original index, and stops when cont answers
// false without dropping the triggering failure. Being a
// Program, it can be bound into larger programs and replayed; each run
// starts from an empty outcome.
func CreateProgram(items []Item, cont func(error) bool) program.Program[Outcome] {
	return chain(items, 0, EmptyOutcome(), cont)
}

func chain(items []Item, index int, acc Outcome, cont func(error) bool) program.Program[Outcome] {
	if len(items) == 0 {
		return program.Pure(acc)
	}
	head, rest := items[0], items[1:]
	return program.Bind(attempt(head), func(cause error) program.Program[Outcome] {
		if cause == nil {
			return chain(rest, index+1, acc.withSuccess(index), cont)
		}
		next := acc.withFailure(db.BatchItemError{Index: index, Cause: cause})
		if !cont(cause) {
			return program.Pure(next)
		}
		return chain(rest, index+1, next, cont)
	})
}

// attempt folds one item's creation into a Program whose result is the
// failure cause, nil on success.
func attempt(item Item) program.Program[error] {
	if item.Err != nil {
		return program.Pure(item.Err)
	}
	create := program.Bind(item.KeyProgram, func(key db.Key) program.Program[db.Document] {
		return program.Create(key, item.Content)
	})
	return program.OrElse(
		program.Map(create, func(db.Document) error { return nil }),
		func(err error) program.Program[error] { return program.Pure(err) },
	)
}

// Items adapts a slice to the lazy sequence Run consumes.
func Items(items []Item) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}
