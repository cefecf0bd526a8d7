// Package btreemap provides an ordered map whose key order is defined by
// a host supplied comparator. Every lookup and insertion descends a
// red-black tree and calls the comparator once per visited node, so the
// comparator may run arbitrary host code, including calls into other
// maps. Re-entering the same map while it is being modified is rejected
// with a *borrow.ConflictError.
package btreemap

import (
	"github.com/Aashil0828/collections/borrow"
	"github.com/Aashil0828/collections/ordering"
	"github.com/Aashil0828/collections/variant"
	"github.com/emirpasic/gods/maps/treemap"
)

const (
	TypeName         = "Collections.BTreeMap.MapImpl"
	IteratorTypeName = "Collections.BTreeMap.MapIteratorImpl"
)

// Key orders a host value through the comparator of the map it belongs to.
type Key struct {
	Value variant.Variant
	cmp   ordering.Comparator
	// stored entry, nil for lookup keys
	e *entry
}

func NewKey(v variant.Variant, cmp ordering.Comparator) Key {
	return Key{Value: v, cmp: cmp}
}

func (k Key) value() variant.Variant {
	if k.e != nil {
		return k.e.key
	}
	return k.Value
}

// Compare orders k relative to o.
// A comparator failure panics with a fault that the calling
// map operation turns back into an error.
func (k Key) Compare(o Key) ordering.Ordering {
	r, err := ordering.Compare(k.cmp, k.value(), o.value())
	if err != nil {
		panic(fault{err})
	}
	return r
}

type fault struct{ err error }

func recoverFault(err *error) {
	if r := recover(); r != nil {
		f, ok := r.(fault)
		if !ok {
			panic(r)
		}
		*err = f.err
	}
}

type entry struct {
	key   variant.Variant
	value variant.Variant
}

// Map is an ordered map keyed by comparator equivalence classes.
type Map struct {
	cell borrow.Cell
	tree *treemap.Map
	cmp  ordering.Comparator
	// entry found equal to the key being inserted by Set
	hit *entry
}

// New creates an empty map ordered by cmp.
// The comparator is fixed for the lifetime of the map.
func New(cmp ordering.Comparator) *Map {
	m := &Map{cmp: cmp}
	m.cell.Name = TypeName
	m.tree = treemap.NewWith(func(a, b interface{}) int {
		ka, kb := a.(Key), b.(Key)
		r := ka.Compare(kb)
		if r == ordering.Equal && ka.e != nil && kb.e != nil && ka.e != kb.e {
			m.hit = kb.e
		}
		return r.Int()
	})
	return m
}

func (m *Map) Comparator() ordering.Comparator { return m.cmp }

// Get returns the value stored under the equivalence class of key,
// or the empty value if there is none.
func (m *Map) Get(key variant.Variant) (value variant.Variant, err error) {
	release, err := m.cell.Borrow()
	if err != nil {
		return variant.Variant{}, err
	}
	defer release()
	defer recoverFault(&err)

	if e, ok := m.tree.Get(NewKey(key, m.cmp)); ok {
		return e.(*entry).value, nil
	}
	return variant.Variant{}, nil
}

// Set associates value with the equivalence class of key.
// An existing entry keeps its original key and gets the new value.
// The tree is descended once: when Put lands on an equal node it
// replaces the node's entry, which then takes over the original key.
func (m *Map) Set(key, value variant.Variant) (err error) {
	release, err := m.cell.BorrowMut()
	if err != nil {
		return err
	}
	defer release()
	defer recoverFault(&err)

	e := &entry{key: key, value: value}
	m.hit = nil
	m.tree.Put(Key{Value: key, cmp: m.cmp, e: e}, e)
	if m.hit != nil {
		e.key = m.hit.key
		m.hit = nil
	}
	return nil
}

func (m *Map) HasKey(key variant.Variant) (ok bool, err error) {
	release, err := m.cell.Borrow()
	if err != nil {
		return false, err
	}
	defer release()
	defer recoverFault(&err)

	_, ok = m.tree.Get(NewKey(key, m.cmp))
	return ok, nil
}

// Len returns the number of stored entries.
func (m *Map) Len() int {
	release := m.cell.MustBorrow()
	defer release()
	return m.tree.Size()
}

// Iter returns an iterator over a copy of the current entries
// in comparator order. Later changes to m are not visible to it.
func (m *Map) Iter() (*Iterator, error) {
	release, err := m.cell.Borrow()
	if err != nil {
		return nil, err
	}
	defer release()

	pairs := make([][2]variant.Variant, 0, m.tree.Size())
	for it := m.tree.Iterator(); it.Next(); {
		e := it.Value().(*entry)
		pairs = append(pairs, [2]variant.Variant{e.key.Clone(), e.value.Clone()})
	}
	return &Iterator{pairs: pairs}, nil
}

// Iterator yields a snapshot of a Map once.
type Iterator struct {
	pairs [][2]variant.Variant
}

// Next returns the next key-value pair,
// or a pair of empty values once the iterator is exhausted.
func (it *Iterator) Next() (pair [2]variant.Variant) {
	if len(it.pairs) < 1 {
		return pair
	}
	pair = it.pairs[0]
	it.pairs[0] = [2]variant.Variant{}
	it.pairs = it.pairs[1:]
	return pair
}

func (it *Iterator) HasNext() bool { return len(it.pairs) > 0 }

// Len returns the number of pairs left.
func (it *Iterator) Len() int { return len(it.pairs) }
