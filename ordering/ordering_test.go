package ordering_test

import (
	"errors"
	"testing"

	"github.com/Aashil0828/collections/ordering"
	"github.com/Aashil0828/collections/variant"
	"github.com/stretchr/testify/require"
)

func TestFromInt(t *testing.T) {
	for _, tc := range []struct {
		in     int64
		expect ordering.Ordering
	}{
		{-1, ordering.Less},
		{0, ordering.Equal},
		{1, ordering.Greater},
	} {
		o, err := ordering.FromInt(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.expect, o)
		require.Equal(t, int(tc.in), o.Int())
	}

	_, err := ordering.FromInt(2)
	require.ErrorIs(t, err, ordering.ErrUnexpectedResult)
}

func TestFromVariant(t *testing.T) {
	o, err := ordering.FromVariant(variant.FromInt(-1))
	require.NoError(t, err)
	require.Equal(t, ordering.Less, o)

	_, err = ordering.FromVariant(variant.FromString("less"))
	require.ErrorIs(t, err, ordering.ErrUnexpectedResult)

	_, err = ordering.FromVariant(variant.Variant{})
	require.ErrorIs(t, err, ordering.ErrUnexpectedResult)
}

func TestCompare(t *testing.T) {
	a, b := variant.FromInt(1), variant.FromInt(2)

	t.Run("ok", func(t *testing.T) {
		o, err := ordering.Compare(ordering.ComparatorFunc(
			func(a, b variant.Variant) (ordering.Ordering, error) {
				return ordering.Greater, nil
			},
		), a, b)
		require.NoError(t, err)
		require.Equal(t, ordering.Greater, o)
	})

	t.Run("failure", func(t *testing.T) {
		cause := errors.New("method not found")
		_, err := ordering.Compare(ordering.ComparatorFunc(
			func(a, b variant.Variant) (ordering.Ordering, error) {
				return ordering.Equal, cause
			},
		), a, b)
		var cerr *ordering.ComparatorError
		require.ErrorAs(t, err, &cerr)
		require.ErrorIs(t, err, cause)
		require.Equal(t, a, cerr.A)
		require.Equal(t, b, cerr.B)
	})

	t.Run("out_of_range", func(t *testing.T) {
		_, err := ordering.Compare(ordering.ComparatorFunc(
			func(a, b variant.Variant) (ordering.Ordering, error) {
				return ordering.Ordering(5), nil
			},
		), a, b)
		require.ErrorIs(t, err, ordering.ErrUnexpectedResult)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := ordering.Compare(nil, a, b)
		var cerr *ordering.ComparatorError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestString(t *testing.T) {
	require.Equal(t, "Less", ordering.Less.String())
	require.Equal(t, "Equal", ordering.Equal.String())
	require.Equal(t, "Greater", ordering.Greater.String())
	require.Equal(t, "Ordering(3)", ordering.Ordering(3).String())
}
