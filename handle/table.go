// Package handle implements the process-wide table of reference counted
// objects reachable from the host. Handles are opaque non-zero integers;
// an object is dropped from the table once its last reference is released.
package handle

import (
	"errors"
	"sync"

	"github.com/dolthub/maphash"
	"go.uber.org/atomic"
)

const (
	DefaultShardElements   = 64
	NegativeShardUnallowed = "negative shard cannot be initialized"
)

var (
	ErrNegativeShards = errors.New(NegativeShardUnallowed)
	ErrUnknownHandle  = errors.New("unknown handle")
)

// Handle identifies an object in a Table. Zero is the null handle.
type Handle uint64

// Object is a table entry.
type Object struct {
	Type  string
	Value any
	refs  atomic.Int32
}

// Refs returns the current reference count.
func (o *Object) Refs() int { return int(o.refs.Load()) }

// Table is safe for concurrent use, several host threads may
// share it while each of them drives its own containers.
type Table struct {
	shards     []*store
	hashfunc   maphash.Hasher[Handle]
	sharedLock sync.RWMutex
	seq        atomic.Uint64
}

func New(numShards int, useSwissMap bool) (*Table, error) {
	if numShards < 1 {
		return nil, ErrNegativeShards
	}
	shards := make([]*store, numShards)
	for i := range shards {
		shards[i] = newStore(useSwissMap, DefaultShardElements)
	}
	return &Table{
		shards:   shards,
		hashfunc: maphash.NewHasher[Handle](),
	}, nil
}

// lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
func fastModN(x, n uint32) uint32 {
	return uint32((uint64(x) * uint64(n)) >> 32)
}

func (t *Table) shardOf(h Handle) *store {
	return t.shards[fastModN(uint32(t.hashfunc.Hash(h)), uint32(len(t.shards)))]
}

// Insert adds an object holding one reference and returns its handle.
func (t *Table) Insert(typeName string, value any) Handle {
	h := Handle(t.seq.Inc())
	t.sharedLock.RLock()
	defer t.sharedLock.RUnlock()
	t.shardOf(h).insert(h, &Object{Type: typeName, Value: value})
	return h
}

func (t *Table) Get(h Handle) (*Object, bool) {
	t.sharedLock.RLock()
	defer t.sharedLock.RUnlock()
	return t.shardOf(h).lookup(h)
}

// Retain adds a reference to h.
func (t *Table) Retain(h Handle) error {
	t.sharedLock.RLock()
	defer t.sharedLock.RUnlock()
	return t.shardOf(h).retain(h)
}

// Release drops a reference to h and removes the object when it
// was the last one, in which case the removed object is returned.
func (t *Table) Release(h Handle) (*Object, error) {
	t.sharedLock.RLock()
	defer t.sharedLock.RUnlock()
	return t.shardOf(h).release(h)
}

// RemoveAll drops every object regardless of its reference count.
func (t *Table) RemoveAll() {
	t.sharedLock.Lock()
	defer t.sharedLock.Unlock()
	for _, s := range t.shards {
		s.reset()
	}
}

// Iter calls callback for every live object until it returns true.
// The table is locked during iteration, callback must not modify it.
func (t *Table) Iter(callback func(h Handle, o *Object) bool) {
	t.sharedLock.Lock()
	defer t.sharedLock.Unlock()
	for _, s := range t.shards {
		if s.each(callback) {
			return
		}
	}
}

func (t *Table) Len() int {
	t.sharedLock.RLock()
	defer t.sharedLock.RUnlock()
	var total int
	for _, s := range t.shards {
		total += s.size()
	}
	return total
}
