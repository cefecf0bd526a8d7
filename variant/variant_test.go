package variant_test

import (
	"testing"

	"github.com/Aashil0828/collections/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroIsEmpty(t *testing.T) {
	var v variant.Variant
	require.True(t, v.IsEmpty())
	require.Equal(t, variant.Empty, v.Kind())
	require.Nil(t, v.Interface())
	_, ok := v.AsBytes()
	require.False(t, ok)
	_, ok = v.AsString()
	require.False(t, ok)
}

func TestOf(t *testing.T) {
	assertions := assert.New(t)
	for _, tc := range []struct {
		name   string
		in     any
		kind   variant.Kind
		expect any
	}{
		{"nil", nil, variant.Empty, nil},
		{"bool", true, variant.Bool, true},
		{"int", 42, variant.Int, int64(42)},
		{"int8", int8(-3), variant.Int, int64(-3)},
		{"uint32", uint32(7), variant.Int, int64(7)},
		{"float32", float32(0.5), variant.Float, 0.5},
		{"float64", 2.25, variant.Float, 2.25},
		{"string", "abc", variant.String, "abc"},
		{"bytes", []byte{1, 2}, variant.Bytes, []byte{1, 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v, err := variant.Of(tc.in)
			assertions.NoError(err)
			assertions.Equal(tc.kind, v.Kind())
			assertions.Equal(tc.expect, v.Interface())
		})
	}
	t.Run("unsupported", func(t *testing.T) {
		_, err := variant.Of(struct{}{})
		assertions.Error(err)
		assertions.Panics(func() { variant.MustOf(map[string]int{}) })
	})
}

func TestAsBytes(t *testing.T) {
	b, ok := variant.FromString("key").AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte("key"), b)

	b, ok = variant.FromInt(1).AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, b)

	b, ok = variant.FromBool(true).AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte{1}, b)

	b, ok = variant.FromRef(2).AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0}, b)

	_, ok = variant.FromArray(variant.FromInt(1)).AsBytes()
	require.False(t, ok)
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte("abc")
	v := variant.FromBytes(src)
	src[0] = 'x'
	b, _ := v.AsBytes()
	require.Equal(t, []byte("abc"), b)
}

func TestAsBytesReturnsCopy(t *testing.T) {
	v := variant.FromBytes([]byte{1, 2})
	b, _ := v.AsBytes()
	b[0] = 9
	b, _ = v.AsBytes()
	require.Equal(t, []byte{1, 2}, b)

	out := v.Interface().([]byte)
	out[1] = 9
	require.Equal(t, []byte{1, 2}, v.Interface())
}

func TestClone(t *testing.T) {
	v := variant.FromArray(variant.FromString("a"), variant.FromInt(1))
	c := v.Clone()
	require.Equal(t, v.Interface(), c.Interface())
	items, ok := c.AsArray()
	require.True(t, ok)
	require.Len(t, items, 2)
}

func TestString(t *testing.T) {
	require.Equal(t, "<empty>", variant.Variant{}.String())
	require.Equal(t, `"a"`, variant.FromString("a").String())
	require.Equal(t, "ref#3", variant.FromRef(3).String())
	require.Equal(t, "12", variant.FromInt(12).String())
	require.Equal(t, "Array", variant.Array.String())
}
