// Package collections exports the ordered and hash map containers to a
// host runtime. Register installs the container classes into a registry;
// Load builds a ready to use registry described by the embedded manifest.
package collections

import (
	"fmt"

	"github.com/Aashil0828/collections/btreemap"
	"github.com/Aashil0828/collections/handle"
	"github.com/Aashil0828/collections/hashmap"
	"github.com/Aashil0828/collections/registry"
	"github.com/Aashil0828/collections/variant"
	plog "github.com/phuslu/log"
	"github.com/pkg/errors"
)

// DefaultShards is the number of handle table shards used when the
// manifest leaves it unset.
const DefaultShards = 16

// Method names shared by all containers.
const (
	MethodGet     = "Get"
	MethodSet     = "Set"
	MethodHasKey  = "HasKey"
	MethodIter    = "Iter"
	MethodNext    = "Next"
	MethodHasNext = "HasNext"
	MethodNew     = "New"
)

// Load reads the manifest and returns a registry with all container
// classes registered.
func Load(log plog.Logger) (*Plugin, *registry.Registry, error) {
	p, err := Manifest()
	if err != nil {
		return nil, nil, err
	}
	reg, err := Open(p, log)
	if err != nil {
		return nil, nil, err
	}
	return p, reg, nil
}

// Open returns a registry backed as p describes with all container
// classes registered.
func Open(p *Plugin, log plog.Logger) (*registry.Registry, error) {
	handles, err := handle.New(p.Shards, p.SwissMap)
	if err != nil {
		return nil, err
	}
	reg := registry.New(handles, log)
	if err := Register(reg, p.NewHasher()); err != nil {
		return nil, err
	}
	log.Info().
		Str("name", p.Name).
		Str("author", p.Author).
		Str("version", p.Version.String()).
		Int("shards", p.Shards).
		Bool("swiss", p.SwissMap).
		Str("hasher", p.Hasher).
		Msg("plugin loaded")
	return reg, nil
}

// Register installs the container classes. Hash maps digest their keys
// with hasher, CityHash if nil.
func Register(reg *registry.Registry, hasher hashmap.Hasher) error {
	for _, c := range Classes(hasher) {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Classes returns the export table.
func Classes(hasher hashmap.Hasher) []registry.Class {
	return []registry.Class{
		hashMapClass(hasher),
		hashMapIteratorClass(),
		btreeMapClass(),
		btreeMapIteratorClass(),
	}
}

// ErrNotAContainer is returned by Entries for objects other than maps.
var ErrNotAContainer = errors.New("object is not a map")

// Entries returns the key-value pairs of the map behind ref in
// iteration order.
func Entries(reg *registry.Registry, ref variant.Variant) ([][2]variant.Variant, error) {
	_, o, err := reg.Resolve(ref)
	if err != nil {
		return nil, err
	}
	switch m := o.Value.(type) {
	case *hashmap.Map:
		pairs := make([][2]variant.Variant, 0, m.Len())
		m.Visit(func(key, value variant.Variant) bool {
			pairs = append(pairs, [2]variant.Variant{key, value})
			return false
		})
		return pairs, nil
	case *btreemap.Map:
		it, err := m.Iter()
		if err != nil {
			return nil, err
		}
		pairs := make([][2]variant.Variant, 0, it.Len())
		for it.HasNext() {
			pairs = append(pairs, it.Next())
		}
		return pairs, nil
	}
	return nil, errors.Wrap(ErrNotAContainer, o.Type)
}

type errThisType struct {
	expected string
	got      any
}

func (e errThisType) Error() string {
	return fmt.Sprintf("receiver is %T, expected %s", e.got, e.expected)
}

func this[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, errThisType{expected: fmt.Sprintf("%T", zero), got: v}
	}
	return t, nil
}

func newRef(m registry.Method) registry.Method {
	m.NewRef = true
	return m
}

func hashMapClass(hasher hashmap.Hasher) registry.Class {
	method := func(
		arity int,
		fn func(r *registry.Registry, m *hashmap.Map, args []variant.Variant) (variant.Variant, error),
	) registry.Method {
		return registry.Method{Args: arity, Fn: func(
			r *registry.Registry, v any, args []variant.Variant,
		) (variant.Variant, error) {
			m, err := this[*hashmap.Map](v)
			if err != nil {
				return variant.Variant{}, err
			}
			return fn(r, m, args)
		}}
	}
	return registry.Class{
		Name:      hashmap.TypeName,
		Construct: func() any { return hashmap.New(0, hasher) },
		Methods: map[string]registry.Method{
			MethodGet: method(1, func(
				_ *registry.Registry, m *hashmap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				return m.Get(args[0]), nil
			}),
			MethodSet: method(2, func(
				_ *registry.Registry, m *hashmap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				m.Set(args[0], args[1])
				return variant.Variant{}, nil
			}),
			MethodHasKey: method(1, func(
				_ *registry.Registry, m *hashmap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				return variant.FromBool(m.HasKey(args[0])), nil
			}),
			MethodIter: newRef(method(0, func(
				r *registry.Registry, m *hashmap.Map, _ []variant.Variant,
			) (variant.Variant, error) {
				return r.WrapRef(hashmap.IteratorTypeName, m.Iter())
			})),
		},
	}
}

func hashMapIteratorClass() registry.Class {
	return registry.Class{
		Name: hashmap.IteratorTypeName,
		Methods: map[string]registry.Method{
			MethodNext: {Fn: func(
				_ *registry.Registry, v any, _ []variant.Variant,
			) (variant.Variant, error) {
				it, err := this[*hashmap.Iterator](v)
				if err != nil {
					return variant.Variant{}, err
				}
				p := it.Next()
				return variant.FromArray(p[0], p[1]), nil
			}},
			MethodHasNext: {Fn: func(
				_ *registry.Registry, v any, _ []variant.Variant,
			) (variant.Variant, error) {
				it, err := this[*hashmap.Iterator](v)
				if err != nil {
					return variant.Variant{}, err
				}
				return variant.FromBool(it.HasNext()), nil
			}},
		},
	}
}

func btreeMapClass() registry.Class {
	method := func(
		arity int,
		fn func(r *registry.Registry, m *btreemap.Map, args []variant.Variant) (variant.Variant, error),
	) registry.Method {
		return registry.Method{Args: arity, Fn: func(
			r *registry.Registry, v any, args []variant.Variant,
		) (variant.Variant, error) {
			m, err := this[*btreemap.Map](v)
			if err != nil {
				return variant.Variant{}, err
			}
			return fn(r, m, args)
		}}
	}
	return registry.Class{
		Name: btreemap.TypeName,
		Dispose: func(r *registry.Registry, v any) {
			m, ok := v.(*btreemap.Map)
			if !ok {
				return
			}
			if c, ok := m.Comparator().(registry.HandleComparator); ok {
				_ = r.Release(c.Handle)
			}
		},
		StaticMethods: map[string]registry.StaticMethod{
			MethodNew: {Args: 1, Fn: func(
				r *registry.Registry, args []variant.Variant,
			) (variant.Variant, error) {
				c, err := r.Comparator(args[0])
				if err != nil {
					return variant.Variant{}, err
				}
				ref, err := r.WrapRef(btreemap.TypeName, btreemap.New(c))
				if err != nil {
					_ = r.Release(c.Handle)
					return variant.Variant{}, err
				}
				return ref, nil
			}},
		},
		Methods: map[string]registry.Method{
			MethodGet: method(1, func(
				_ *registry.Registry, m *btreemap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				return m.Get(args[0])
			}),
			MethodSet: method(2, func(
				_ *registry.Registry, m *btreemap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				return variant.Variant{}, m.Set(args[0], args[1])
			}),
			MethodHasKey: method(1, func(
				_ *registry.Registry, m *btreemap.Map, args []variant.Variant,
			) (variant.Variant, error) {
				ok, err := m.HasKey(args[0])
				return variant.FromBool(ok), err
			}),
			MethodIter: newRef(method(0, func(
				r *registry.Registry, m *btreemap.Map, _ []variant.Variant,
			) (variant.Variant, error) {
				it, err := m.Iter()
				if err != nil {
					return variant.Variant{}, err
				}
				return r.WrapRef(btreemap.IteratorTypeName, it)
			})),
		},
	}
}

func btreeMapIteratorClass() registry.Class {
	return registry.Class{
		Name: btreemap.IteratorTypeName,
		Methods: map[string]registry.Method{
			MethodNext: {Fn: func(
				_ *registry.Registry, v any, _ []variant.Variant,
			) (variant.Variant, error) {
				it, err := this[*btreemap.Iterator](v)
				if err != nil {
					return variant.Variant{}, err
				}
				p := it.Next()
				return variant.FromArray(p[0], p[1]), nil
			}},
			MethodHasNext: {Fn: func(
				_ *registry.Registry, v any, _ []variant.Variant,
			) (variant.Variant, error) {
				it, err := this[*btreemap.Iterator](v)
				if err != nil {
					return variant.Variant{}, err
				}
				return variant.FromBool(it.HasNext()), nil
			}},
		},
	}
}
