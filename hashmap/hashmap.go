// Package hashmap provides an insertion ordered hash map keyed by the
// canonical byte encoding of host values.
// Entries live in a slice in insertion order and a swiss table maps each
// encoding digest to the most recent entry with that digest.
// Entries sharing a digest are chained and told apart by their encodings.
// Operations never call back into host code.
package hashmap

import (
	"github.com/Aashil0828/collections/borrow"
	"github.com/Aashil0828/collections/variant"
	"github.com/dolthub/swiss"
)

const (
	TypeName         = "Collections.HashMap.MapImpl"
	IteratorTypeName = "Collections.HashMap.MapIteratorImpl"
)

const noEntry = -1

type entry struct {
	Key
	value variant.Variant
	// Next entry with the same digest
	next int
}

// table is shared by a map and its iterators.
type table struct {
	cell    borrow.Cell
	entries []entry
	index   *swiss.Map[uint64, int]
	hasher  Hasher
}

func (t *table) find(k Key) int {
	i, ok := t.index.Get(k.Hash)
	if !ok {
		return noEntry
	}
	for ; i != noEntry; i = t.entries[i].next {
		if t.entries[i].Equal(k) {
			return i
		}
	}
	return noEntry
}

// Map is an insertion ordered hash map.
type Map struct {
	t *table
}

// New creates a new map instance.
// Encodings are digested with CityHash unless another hasher is provided.
func New(capacity int, hasher Hasher) *Map {
	if hasher == nil {
		hasher = defaultHasher
	}
	t := &table{
		entries: make([]entry, 0, capacity),
		index:   swiss.NewMap[uint64, int](uint32(capacity)),
		hasher:  hasher,
	}
	t.cell.Name = TypeName
	return &Map{t: t}
}

// Get returns the value associated with key,
// otherwise returns the empty value.
func (m *Map) Get(key variant.Variant) variant.Variant {
	release := m.t.cell.MustBorrow()
	defer release()
	if i := m.t.find(NewKey(key, m.t.hasher)); i != noEntry {
		return m.t.entries[i].value
	}
	return variant.Variant{}
}

// Set associates key with value overwriting any existing association.
// New keys are appended to the iteration order,
// overwritten keys keep their position and original key value.
func (m *Map) Set(key, value variant.Variant) {
	release := m.t.cell.MustBorrowMut()
	defer release()
	k := NewKey(key, m.t.hasher)
	if i := m.t.find(k); i != noEntry {
		m.t.entries[i].value = value
		return
	}
	head, ok := m.t.index.Get(k.Hash)
	if !ok {
		head = noEntry
	}
	m.t.entries = append(m.t.entries, entry{Key: k, value: value, next: head})
	m.t.index.Put(k.Hash, len(m.t.entries)-1)
}

func (m *Map) HasKey(key variant.Variant) bool {
	release := m.t.cell.MustBorrow()
	defer release()
	return m.t.find(NewKey(key, m.t.hasher)) != noEntry
}

// Len returns the number of stored key-value pairs.
func (m *Map) Len() int {
	release := m.t.cell.MustBorrow()
	defer release()
	return len(m.t.entries)
}

// Visit calls fn for every stored key-value pair in insertion order.
// Returns immediately if fn returns true.
// fn must not modify m.
func (m *Map) Visit(fn func(key, value variant.Variant) (stop bool)) {
	release := m.t.cell.MustBorrow()
	defer release()
	for i := range m.t.entries {
		if fn(m.t.entries[i].Value, m.t.entries[i].value) {
			return
		}
	}
}

// Iter returns an iterator sharing the live map.
func (m *Map) Iter() *Iterator { return &Iterator{t: m.t} }

// Iterator walks a live Map by position. Keys inserted after the
// iterator was created are visited when the cursor reaches them.
type Iterator struct {
	t        *table
	position int
}

// Next returns the pair at the cursor and advances it,
// or a pair of empty values if the cursor is past the end.
func (it *Iterator) Next() (pair [2]variant.Variant) {
	release := it.t.cell.MustBorrow()
	defer release()
	if it.position < len(it.t.entries) {
		e := &it.t.entries[it.position]
		pair = [2]variant.Variant{e.Value.Clone(), e.value.Clone()}
	}
	it.position++
	return pair
}

func (it *Iterator) HasNext() bool {
	release := it.t.cell.MustBorrow()
	defer release()
	return it.position < len(it.t.entries)
}
