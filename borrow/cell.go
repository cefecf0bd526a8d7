// Package borrow tracks access to a container: any number of shared
// borrows or exactly one exclusive borrow may be active at a time.
// Conflicts are reported immediately instead of blocking, since the only
// way to reach one is a callback re-entering the same container.
package borrow

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"
)

// ErrConflict matches every *ConflictError.
var ErrConflict = errors.New("borrow conflict")

type Mode uint8

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// ConflictError is returned when a borrow is requested while an
// incompatible borrow is active on the same Cell.
type ConflictError struct {
	Name      string
	Held      Mode
	Requested Mode
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%s: %s borrow requested while %s borrow is active",
		e.Name, e.Requested, e.Held,
	)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Cell is the borrow state of one container. The zero value is ready to use.
type Cell struct {
	// Name is reported in conflict errors.
	Name string

	// >0 shared borrow count, -1 exclusive, 0 free
	state atomic.Int32
}

// Release ends a borrow. Calling it more than once is a no-op.
type Release func()

func (c *Cell) Borrow() (Release, error) {
	for {
		s := c.state.Load()
		if s < 0 {
			return nil, &ConflictError{Name: c.Name, Held: Exclusive, Requested: Shared}
		}
		if c.state.CompareAndSwap(s, s+1) {
			var done atomic.Bool
			return func() {
				if done.CompareAndSwap(false, true) {
					c.state.Dec()
				}
			}, nil
		}
	}
}

func (c *Cell) BorrowMut() (Release, error) {
	if !c.state.CompareAndSwap(0, -1) {
		held := Shared
		if c.state.Load() < 0 {
			held = Exclusive
		}
		return nil, &ConflictError{Name: c.Name, Held: held, Requested: Exclusive}
	}
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			c.state.Store(0)
		}
	}, nil
}

// MustBorrow panics with a *ConflictError on conflict.
func (c *Cell) MustBorrow() Release {
	r, err := c.Borrow()
	if err != nil {
		panic(err)
	}
	return r
}

// MustBorrowMut panics with a *ConflictError on conflict.
func (c *Cell) MustBorrowMut() Release {
	r, err := c.BorrowMut()
	if err != nil {
		panic(err)
	}
	return r
}

// Borrowed reports the active borrows: shared count and whether
// an exclusive borrow is held.
func (c *Cell) Borrowed() (shared int, exclusive bool) {
	s := c.state.Load()
	if s < 0 {
		return 0, true
	}
	return int(s), false
}
