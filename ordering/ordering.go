// Package ordering defines the tri-state comparison result shared with
// the host and the comparator capability used by ordered containers.
package ordering

import (
	"fmt"

	"github.com/Aashil0828/collections/variant"
	"github.com/pkg/errors"
)

// TypeName is the host-visible name of the Ordering enum.
const TypeName = "Collections.Utils.Ordering"

// ErrUnexpectedResult is the cause of a ComparatorError produced
// when a comparator returns something other than -1, 0 or 1.
var ErrUnexpectedResult = errors.New("unexpected comparator result")

type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "Less"
	case Equal:
		return "Equal"
	case Greater:
		return "Greater"
	}
	return fmt.Sprintf("Ordering(%d)", int8(o))
}

// Int returns the ordering as a three-way comparison integer.
func (o Ordering) Int() int { return int(o) }

// FromInt converts a host comparison result.
func FromInt(i int64) (Ordering, error) {
	switch i {
	case -1:
		return Less, nil
	case 0:
		return Equal, nil
	case 1:
		return Greater, nil
	}
	return Equal, errors.Wrapf(ErrUnexpectedResult, "got %d", i)
}

// FromVariant converts a host comparison result carried in a Variant.
func FromVariant(v variant.Variant) (Ordering, error) {
	i, ok := v.AsInt()
	if !ok {
		return Equal, errors.Wrapf(ErrUnexpectedResult, "got %s of kind %s", v, v.Kind())
	}
	return FromInt(i)
}

// Comparator defines a strict total order over host values.
type Comparator interface {
	Compare(a, b variant.Variant) (Ordering, error)
}

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc func(a, b variant.Variant) (Ordering, error)

func (f ComparatorFunc) Compare(a, b variant.Variant) (Ordering, error) {
	return f(a, b)
}

// ComparatorError reports a failed comparator invocation.
type ComparatorError struct {
	A, B  variant.Variant
	Cause error
}

func (e *ComparatorError) Error() string {
	return fmt.Sprintf("comparing %s and %s: %v", e.A, e.B, e.Cause)
}

func (e *ComparatorError) Unwrap() error { return e.Cause }

// Compare invokes c and wraps any failure into a ComparatorError.
func Compare(c Comparator, a, b variant.Variant) (Ordering, error) {
	if c == nil {
		return Equal, &ComparatorError{A: a, B: b, Cause: errors.New("no comparator")}
	}
	o, err := c.Compare(a, b)
	if err != nil {
		return Equal, &ComparatorError{A: a, B: b, Cause: err}
	}
	switch o {
	case Less, Equal, Greater:
		return o, nil
	}
	return Equal, &ComparatorError{
		A: a, B: b, Cause: errors.Wrapf(ErrUnexpectedResult, "got %d", int8(o)),
	}
}
