package batch

import (
	"fmt"
	"sort"

	"github.com/BobWall23/davenport/pkg/db"
)

// Outcome summarizes a batch run: the set of input indices whose create
// succeeded, plus an ordered list of per-index failure records. Outcomes
// from sequential batch steps combine associatively with Merge, so partial
// results can be folded into one summary.
type Outcome struct {
	Successes map[int]struct{}
	Failures  []db.BatchItemError
}

// EmptyOutcome is the identity for Merge.
func EmptyOutcome() Outcome {
	return Outcome{Successes: make(map[int]struct{})}
}

// Merge combines two outcomes: success sets union, failure lists
// concatenate in order with duplicate indices dropped. With respect to the
// final success and failure sets the operation is associative and
// order-independent.
func Merge(a, b Outcome) Outcome {
	out := EmptyOutcome()
	for i := range a.Successes {
		out.Successes[i] = struct{}{}
	}
	for i := range b.Successes {
		out.Successes[i] = struct{}{}
	}
	seen := make(map[int]struct{})
	for _, f := range a.Failures {
		if _, dup := seen[f.Index]; dup {
			continue
		}
		seen[f.Index] = struct{}{}
		out.Failures = append(out.Failures, f)
	}
	for _, f := range b.Failures {
		if _, dup := seen[f.Index]; dup {
			continue
		}
		seen[f.Index] = struct{}{}
		out.Failures = append(out.Failures, f)
	}
	return out
}

// withSuccess returns a copy of o with index recorded as a success. The
// receiver is never mutated, so outcomes captured inside a reusable
// Program stay stable across runs.
func (o Outcome) withSuccess(index int) Outcome {
	add := EmptyOutcome()
	add.Successes[index] = struct{}{}
	return Merge(o, add)
}

// withFailure returns a copy of o with the failure appended.
func (o Outcome) withFailure(f db.BatchItemError) Outcome {
	add := EmptyOutcome()
	add.Failures = []db.BatchItemError{f}
	return Merge(o, add)
}

// Succeeded reports whether index was recorded as a success.
func (o Outcome) Succeeded(index int) bool {
	_, ok := o.Successes[index]
	return ok
}

// FailureFor returns the recorded failure for index, if any.
func (o Outcome) FailureFor(index int) (db.BatchItemError, bool) {
	for _, f := range o.Failures {
		if f.Index == index {
			return f, true
		}
	}
	return db.BatchItemError{}, false
}

// AllSucceeded reports whether no failures were recorded.
func (o Outcome) AllSucceeded() bool {
	return len(o.Failures) == 0
}

func (o Outcome) String() string {
	succ := make([]int, 0, len(o.Successes))
	for i := range o.Successes {
		succ = append(succ, i)
	}
	sort.Ints(succ)
	return fmt.Sprintf("batch outcome: %d succeeded %v, %d failed", len(succ), succ, len(o.Failures))
}
