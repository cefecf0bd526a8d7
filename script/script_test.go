package script_test

import (
	"bytes"
	"testing"

	"github.com/Aashil0828/collections"
	"github.com/Aashil0828/collections/registry"
	"github.com/Aashil0828/collections/script"
	"github.com/google/go-cmp/cmp"
	plog "github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const drain = `
function drain(it) {
	var out = [];
	while (it.HasNext()) out.push(it.Next());
	return out;
}
function numeric(a, b) { return a < b ? -1 : a > b ? 1 : 0; }
`

func newHost(t *testing.T) (*script.Host, *registry.Registry) {
	_, reg, err := collections.Load(plog.Logger{Writer: &plog.IOWriter{Writer: new(bytes.Buffer)}})
	require.NoError(t, err)
	h, err := script.NewHost(reg, plog.Logger{Writer: &plog.IOWriter{Writer: new(bytes.Buffer)}})
	require.NoError(t, err)
	_, err = h.Run("drain.js", drain)
	require.NoError(t, err)
	return h, reg
}

func run(t *testing.T, h *script.Host, src string) any {
	t.Helper()
	v, err := h.Run("test.js", src)
	require.NoError(t, err)
	return v.Interface()
}

func TestNewHostRegistersComparator(t *testing.T) {
	_, reg := newHost(t)
	c, ok := reg.Class(script.ComparatorTypeName)
	require.True(t, ok)
	assert.Contains(t, c.Methods, registry.CompareMethod)

	_, err := script.NewHost(reg, plog.Logger{Writer: &plog.IOWriter{Writer: new(bytes.Buffer)}})
	assert.NoError(t, err)
}

func TestHashMap(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var m = Collections.HashMap();
		m.Set("a", 1);
		m.Set("b", 2);
		m.Set("a", 3);
		[m.Get("a"), m.Get("missing") === undefined, m.HasKey("b"), drain(m.Iter())];
	`)
	want := []any{int64(3), true, true, []any{
		[]any{"a", int64(3)},
		[]any{"b", int64(2)},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestHashMapLiveIterator(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var m = Collections.HashMap();
		m.Set(1, "x");
		var it = m.Iter();
		var first = it.Next();
		m.Set(2, "y");
		[first, it.HasNext(), it.Next(), it.HasNext()];
	`)
	want := []any{
		[]any{int64(1), "x"},
		true,
		[]any{int64(2), "y"},
		false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestBTreeMap(t *testing.T) {
	for _, tc := range []struct {
		name       string
		comparator string
	}{
		{"function", "numeric"},
		{"object", "{ Compare: function (a, b) { return this.sign * numeric(a, b); }, sign: 1 }"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newHost(t)
			got := run(t, h, `
				var m = Collections.BTreeMap(`+tc.comparator+`);
				m.Set(3, "x");
				m.Set(1, "y");
				m.Set(2, "z");
				var it = m.Iter();
				m.Set(0, "late");
				[m.Get(1), m.HasKey(4), drain(it)];
			`)
			want := []any{"y", false, []any{
				[]any{int64(1), "y"},
				[]any{int64(2), "z"},
				[]any{int64(3), "x"},
			}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBTreeMapReentrantSet(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var reenter = false;
		var m = Collections.BTreeMap(function (a, b) {
			if (reenter) m.Set(0, 0);
			return numeric(a, b);
		});
		m.Set(1, "a");
		reenter = true;
		var caught = "";
		try { m.Set(2, "b"); } catch (e) { caught = String(e); }
		reenter = false;
		[caught, drain(m.Iter())];
	`).([]any)
	assert.Contains(t, got[0], "CollectionsError")
	assert.Contains(t, got[0], "borrow requested")
	if diff := cmp.Diff([]any{[]any{int64(1), "a"}}, got[1]); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestBTreeMapReentrantGet(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var m = Collections.BTreeMap(numeric);
		m.Set(1, "a");
		m.Set(2, "b");
		var other = Collections.BTreeMap(function (a, b) {
			m.Get(1);
			return numeric(a, b);
		});
		other.Set(1, "c");
		other.Set(2, "d");
		[other.Get(2), m.Get(2)];
	`)
	assert.Equal(t, []any{"d", "b"}, got)
}

func TestBTreeMapComparatorErrors(t *testing.T) {
	for _, tc := range []struct {
		name       string
		comparator string
		expect     string
	}{
		{"throws", `function (a, b) { if (b === 13 || a === 13) throw new Error("unlucky"); return numeric(a, b); }`, "unlucky"},
		{"out_of_range", `function (a, b) { return (a === 13 || b === 13) ? 2 : numeric(a, b); }`, "unexpected comparator result"},
		{"not_a_number", `function (a, b) { return (a === 13 || b === 13) ? "less" : numeric(a, b); }`, "unexpected comparator result"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newHost(t)
			got := run(t, h, `
				var m = Collections.BTreeMap(`+tc.comparator+`);
				m.Set(1, "a");
				var caught = "";
				try { m.Set(13, "b"); } catch (e) { caught = String(e); }
				m.Set(2, "c");
				[caught, drain(m.Iter()).length];
			`).([]any)
			assert.Contains(t, got[0], tc.expect)
			assert.Equal(t, int64(2), got[1])
		})
	}
}

func TestBTreeMapRejectsNonComparator(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var caught = "";
		try { Collections.BTreeMap(42); } catch (e) { caught = e.name; }
		caught;
	`)
	assert.Equal(t, "TypeError", got)
}

func TestRelease(t *testing.T) {
	h, reg := newHost(t)
	run(t, h, `var m = Collections.BTreeMap(numeric); m.Set(1, "a");`)
	assert.Equal(t, 2, reg.Len())

	got := run(t, h, `
		m.Release();
		var caught = "";
		try { m.Get(1); } catch (e) { caught = e.name; }
		caught;
	`)
	assert.Equal(t, script.ErrorName, got)
	assert.Zero(t, reg.Len())
}

func TestValues(t *testing.T) {
	h, _ := newHost(t)
	got := run(t, h, `
		var m = Collections.HashMap();
		var inner = Collections.HashMap();
		inner.Set("k", "v");
		m.Set("float", 1.5);
		m.Set("bool", true);
		m.Set("null", null);
		m.Set("array", [1, "two"]);
		m.Set("map", inner);
		[m.Get("float"), m.Get("bool"), m.Get("null") === undefined, m.Get("array"), m.Get("map").Get("k")];
	`)
	want := []any{1.5, true, true, []any{int64(1), "two"}, "v"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	_, err := h.Run("fn.js", `Collections.HashMap().Set("f", function () {});`)
	assert.ErrorContains(t, err, "unsupported script value")
}

func TestRunErrors(t *testing.T) {
	h, _ := newHost(t)
	_, err := h.Run("syntax.js", `var = ;`)
	assert.ErrorContains(t, err, "compile")

	_, err = h.Run("throw.js", `Collections.HashMap().Get();`)
	assert.ErrorContains(t, err, "wrong number of arguments")

	v, err := h.Get("numeric")
	assert.ErrorContains(t, err, "unsupported script value")
	assert.True(t, v.IsEmpty())
}

func TestReleaseOfStoredReference(t *testing.T) {
	h, reg := newHost(t)
	got := run(t, h, `
		var outer = Collections.HashMap();
		var inner = Collections.HashMap();
		inner.Set("k", "v");
		outer.Set("inner", inner);
		var read = outer.Get("inner");
		read.Release();
		read.Release();
		[typeof read.Release, inner.Get("k"), drain(outer.Iter()).length];
	`)
	assert.Equal(t, []any{"function", "v", int64(1)}, got)
	assert.Equal(t, map[string]int{
		"Collections.HashMap.MapImpl":         2,
		"Collections.HashMap.MapIteratorImpl": 1,
	}, reg.Live())

	run(t, h, `inner.Release();`)
	assert.Equal(t, 1, reg.Live()["Collections.HashMap.MapImpl"])
}

func TestComparatorArgumentsAreBorrowed(t *testing.T) {
	h, reg := newHost(t)
	got := run(t, h, `
		var seen = [];
		var m = Collections.BTreeMap(function (a, b) {
			seen.push(typeof a.Release);
			return numeric(a.Get("n"), b.Get("n"));
		});
		var k1 = Collections.HashMap(); k1.Set("n", 1);
		var k2 = Collections.HashMap(); k2.Set("n", 2);
		m.Set(k2, "two");
		m.Set(k1, "one");
		[seen[0], seen[seen.length - 1], drain(m.Iter())[0][1]];
	`)
	assert.Equal(t, []any{"undefined", "undefined", "one"}, got)
	assert.Equal(t, map[string]int{
		"Collections.HashMap.MapImpl":          2,
		"Collections.BTreeMap.MapImpl":         1,
		"Collections.BTreeMap.MapIteratorImpl": 1,
		script.ComparatorTypeName:              1,
	}, reg.Live())
}
