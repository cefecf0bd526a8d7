package handle

import (
	"sync"

	"github.com/dolthub/swiss"
)

// objects is the backing index of a store.
type objects interface {
	get(h Handle) (*Object, bool)
	put(h Handle, o *Object)
	del(h Handle)
	each(fn func(h Handle, o *Object) (stop bool)) bool
	count() int
	reset()
}

// store is one shard of a Table: the live objects whose handles hash to
// it, and the reference counts that keep them alive.
type store struct {
	lock sync.RWMutex
	objects
}

func newStore(useSwissMap bool, size int) *store {
	if useSwissMap {
		return &store{objects: swissObjects{swiss.NewMap[Handle, *Object](uint32(size))}}
	}
	return &store{objects: make(mapObjects, size)}
}

func (s *store) insert(h Handle, o *Object) {
	o.refs.Store(1)
	s.lock.Lock()
	defer s.lock.Unlock()
	s.put(h, o)
}

func (s *store) lookup(h Handle) (*Object, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.get(h)
}

func (s *store) retain(h Handle) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.get(h)
	if !ok {
		return ErrUnknownHandle
	}
	o.refs.Inc()
	return nil
}

// release drops one reference and unlinks the object with the last one.
func (s *store) release(h Handle) (*Object, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.get(h)
	if !ok {
		return nil, ErrUnknownHandle
	}
	if o.refs.Dec() > 0 {
		return nil, nil
	}
	s.del(h)
	return o, nil
}

func (s *store) size() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.count()
}

// mapObjects indexes objects with a builtin map.
type mapObjects map[Handle]*Object

func (m mapObjects) get(h Handle) (o *Object, ok bool) {
	o, ok = m[h]
	return
}

func (m mapObjects) put(h Handle, o *Object) { m[h] = o }

func (m mapObjects) del(h Handle) { delete(m, h) }

func (m mapObjects) each(fn func(h Handle, o *Object) bool) bool {
	for h, o := range m {
		if fn(h, o) {
			return true
		}
	}
	return false
}

func (m mapObjects) count() int { return len(m) }

func (m mapObjects) reset() { clear(m) }

// swissObjects indexes objects with a SwissTable.
type swissObjects struct {
	m *swiss.Map[Handle, *Object]
}

func (s swissObjects) get(h Handle) (*Object, bool) { return s.m.Get(h) }

func (s swissObjects) put(h Handle, o *Object) { s.m.Put(h, o) }

func (s swissObjects) del(h Handle) { s.m.Delete(h) }

func (s swissObjects) each(fn func(h Handle, o *Object) bool) (stopped bool) {
	s.m.Iter(func(h Handle, o *Object) bool {
		stopped = fn(h, o)
		return stopped
	})
	return stopped
}

func (s swissObjects) count() int { return s.m.Count() }

func (s swissObjects) reset() { s.m.Clear() }
