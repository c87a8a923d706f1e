// Package nested reconciles the children a parent currently owns with the
// child list supplied in a nested write.
//
// The existing children go into an Arena keyed by id. Diff compares the
// payload against the arena and yields a Plan: which payload entries create a
// child, which update an existing one, and which existing children are
// deleted because the payload no longer lists them. Apply then replays the
// plan through a Writer, normally bound to an open transaction, so the parent
// and all of its child mutations commit or roll back together.
package nested

import (
	"context"
	"fmt"
)

// Arena holds the children a parent owns before the write, in their stored
// order.
type Arena[T any] struct {
	byID  map[int64]T
	order []int64
}

func NewArena[T any](children []T, id func(T) int64) *Arena[T] {
	a := &Arena[T]{byID: make(map[int64]T, len(children))}
	for _, c := range children {
		k := id(c)
		if _, dup := a.byID[k]; !dup {
			a.order = append(a.order, k)
		}
		a.byID[k] = c
	}
	return a
}

func (a *Arena[T]) Get(id int64) (T, bool) {
	c, ok := a.byID[id]
	return c, ok
}

func (a *Arena[T]) Len() int {
	return len(a.order)
}

type Op int

const (
	Create Op = iota
	Update
)

func (op Op) String() string {
	if op == Update {
		return "update"
	}
	return "create"
}

// Step is one payload entry and what to do with it. Pos is the entry's index
// in the payload; ID is only set for updates.
type Step[P any] struct {
	Op    Op
	Pos   int
	ID    int64
	Value P
}

type Plan[P any] struct {
	Steps  []Step[P]
	Delete []int64
}

func (p Plan[P]) Count(op Op) (n int) {
	for _, s := range p.Steps {
		if s.Op == op {
			n++
		}
	}
	return
}

// ForeignChildError is returned by Diff when the payload names an id the
// parent does not own.
type ForeignChildError struct {
	ID int64
}

func (e *ForeignChildError) Error() string {
	return fmt.Sprintf("child %d does not belong to this parent", e.ID)
}

// DuplicateChildError is returned by Diff when the payload names the same id
// more than once.
type DuplicateChildError struct {
	ID int64
}

func (e *DuplicateChildError) Error() string {
	return fmt.Sprintf("child %d is listed more than once", e.ID)
}

// Diff computes the plan turning the arena into payload. key returns the id
// of the existing child a payload entry refers to, or false for a new child.
func Diff[T, P any](a *Arena[T], payload []P, key func(P) (int64, bool)) (Plan[P], error) {
	plan := Plan[P]{Steps: make([]Step[P], 0, len(payload))}
	kept := make(map[int64]bool, len(payload))

	for pos, p := range payload {
		id, ok := key(p)
		if !ok {
			plan.Steps = append(plan.Steps, Step[P]{Op: Create, Pos: pos, Value: p})
			continue
		}
		if _, owned := a.byID[id]; !owned {
			return Plan[P]{}, &ForeignChildError{ID: id}
		}
		if kept[id] {
			return Plan[P]{}, &DuplicateChildError{ID: id}
		}
		kept[id] = true
		plan.Steps = append(plan.Steps, Step[P]{Op: Update, Pos: pos, ID: id, Value: p})
	}

	for _, id := range a.order {
		if !kept[id] {
			plan.Delete = append(plan.Delete, id)
		}
	}
	return plan, nil
}

// Writer performs the mutations of a plan for one parent.
type Writer[P any] interface {
	Create(ctx context.Context, pos int, p P) error
	Update(ctx context.Context, id int64, pos int, p P) error
	Delete(ctx context.Context, id int64) error
}

// Apply deletes the pruned children, then creates and updates the rest in
// payload order. It stops at the first error; the caller's transaction is
// expected to discard the partial work.
func Apply[P any](ctx context.Context, plan Plan[P], w Writer[P]) error {
	for _, id := range plan.Delete {
		if err := w.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete child %d: %w", id, err)
		}
	}
	for _, s := range plan.Steps {
		var err error
		switch s.Op {
		case Create:
			err = w.Create(ctx, s.Pos, s.Value)
		case Update:
			err = w.Update(ctx, s.ID, s.Pos, s.Value)
		}
		if err != nil {
			return fmt.Errorf("%s child at %d: %w", s.Op, s.Pos, err)
		}
	}
	return nil
}
