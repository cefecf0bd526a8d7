// Package script embeds a JavaScript runtime as a host for the
// registered container classes. Scripts reach the containers through the
// global Collections object:
//
//	var m = Collections.BTreeMap(function (a, b) { return a < b ? -1 : a > b ? 1 : 0 });
//	m.Set(2, "b");
//	for (var it = m.Iter(); it.HasNext();) { var p = it.Next(); }
//
// A Host and everything it creates must be used from one goroutine.
package script

import (
	"math"
	"sort"
	"strconv"

	"github.com/Aashil0828/collections"
	"github.com/Aashil0828/collections/btreemap"
	"github.com/Aashil0828/collections/handle"
	"github.com/Aashil0828/collections/hashmap"
	"github.com/Aashil0828/collections/registry"
	"github.com/Aashil0828/collections/variant"
	plog "github.com/phuslu/log"
	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
)

const (
	// ComparatorTypeName is the class of comparators defined by scripts.
	ComparatorTypeName = "Script.Comparator"

	// ErrorName is the name of errors thrown into scripts.
	ErrorName = "CollectionsError"

	handleProperty = "__handle"
	releaseMethod  = "Release"
)

var ErrUnsupportedValue = errors.New("unsupported script value")

// ownership tells fromVariant who holds the reference behind a Ref.
type ownership uint8

const (
	// borrowed wrappers are only valid during a callback and have no
	// Release method.
	borrowed ownership = iota
	// retained wrappers take a new reference for the script.
	retained
	// transferred wrappers adopt the reference the call returned.
	transferred
)

type Host struct {
	vm  *otto.Otto
	reg *registry.Registry
	log plog.Logger
}

// NewHost creates a runtime bound to reg. The Script.Comparator class is
// registered on first use of reg.
func NewHost(reg *registry.Registry, log plog.Logger) (*Host, error) {
	h := &Host{vm: otto.New(), reg: reg, log: log}
	if _, ok := reg.Class(ComparatorTypeName); !ok {
		if err := reg.Register(comparatorClass()); err != nil {
			return nil, err
		}
	}
	global, err := h.vm.Object(`({})`)
	if err != nil {
		return nil, err
	}
	if err := global.Set("HashMap", h.newHashMap); err != nil {
		return nil, err
	}
	if err := global.Set("BTreeMap", h.newBTreeMap); err != nil {
		return nil, err
	}
	if err := h.vm.Set("Collections", global); err != nil {
		return nil, err
	}
	return h, nil
}

// Run compiles and runs src. Uncaught script exceptions are returned as
// errors.
func (h *Host) Run(filename string, src any) (variant.Variant, error) {
	s, err := h.vm.Compile(filename, src)
	if err != nil {
		return variant.Variant{}, errors.Wrap(err, "compile")
	}
	res, err := h.vm.Run(s)
	if err != nil {
		return variant.Variant{}, err
	}
	return h.toVariant(res)
}

// Get returns the value of a global script variable.
func (h *Host) Get(name string) (variant.Variant, error) {
	v, err := h.vm.Get(name)
	if err != nil {
		return variant.Variant{}, err
	}
	return h.toVariant(v)
}

func (h *Host) throw(err error) {
	h.log.Debug().Err(err).Msg("throwing into script")
	panic(h.vm.MakeCustomError(ErrorName, err.Error()))
}

func (h *Host) must(v otto.Value, err error) otto.Value {
	if err != nil {
		h.throw(err)
	}
	return v
}

func (h *Host) newHashMap(call otto.FunctionCall) otto.Value {
	id, err := h.reg.New(hashmap.TypeName)
	if err != nil {
		h.throw(err)
	}
	return h.must(h.wrap(id, true))
}

func (h *Host) newBTreeMap(call otto.FunctionCall) otto.Value {
	fn, this := call.Argument(0), otto.UndefinedValue()
	if fn.IsObject() && !fn.IsFunction() {
		this = fn
		fn = h.must(fn.Object().Get(registry.CompareMethod))
	}
	if !fn.IsFunction() {
		panic(h.vm.MakeTypeError("BTreeMap expects a comparator function or an object with a Compare method"))
	}
	cref, err := h.reg.WrapRef(ComparatorTypeName, &comparator{host: h, fn: fn, this: this})
	if err != nil {
		h.throw(err)
	}
	ref, err := h.reg.CallStatic(btreemap.TypeName, collections.MethodNew, cref)
	// the map retains its own reference to the comparator
	id, _ := cref.AsRef()
	if rerr := h.reg.Release(handle.Handle(id)); err == nil {
		err = rerr
	}
	if err != nil {
		h.throw(err)
	}
	return h.must(h.fromVariant(ref, transferred))
}

// wrap returns a script object forwarding the methods of the object
// behind id. An owning wrapper holds one reference until the script
// calls its Release method.
func (h *Host) wrap(id handle.Handle, owning bool) (otto.Value, error) {
	o, err := h.reg.Object(id)
	if err != nil {
		return otto.Value{}, err
	}
	c, ok := h.reg.Class(o.Type)
	if !ok {
		return otto.Value{}, errors.Wrap(registry.ErrUnknownClass, o.Type)
	}
	obj, err := h.vm.Object(`({})`)
	if err != nil {
		return otto.Value{}, err
	}
	if err := obj.Set(handleProperty, float64(id)); err != nil {
		return otto.Value{}, err
	}
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		name := name
		err := obj.Set(name, func(call otto.FunctionCall) otto.Value {
			return h.invoke(id, name, call)
		})
		if err != nil {
			return otto.Value{}, err
		}
	}
	if !owning {
		return obj.Value(), nil
	}
	released := false
	err = obj.Set(releaseMethod, func(otto.FunctionCall) otto.Value {
		if released {
			return otto.UndefinedValue()
		}
		released = true
		if err := h.reg.Release(id); err != nil {
			h.throw(err)
		}
		return otto.UndefinedValue()
	})
	if err != nil {
		return otto.Value{}, err
	}
	return obj.Value(), nil
}

func (h *Host) invoke(id handle.Handle, method string, call otto.FunctionCall) otto.Value {
	args := make([]variant.Variant, len(call.ArgumentList))
	for i, a := range call.ArgumentList {
		v, err := h.toVariant(a)
		if err != nil {
			h.throw(err)
		}
		args[i] = v
	}
	res, err := h.reg.Call(id, method, args...)
	if err != nil {
		h.throw(err)
	}
	own := retained
	if o, err := h.reg.Object(id); err == nil {
		if c, ok := h.reg.Class(o.Type); ok && c.Methods[method].NewRef {
			own = transferred
		}
	}
	return h.must(h.fromVariant(res, own))
}

func (h *Host) toVariant(v otto.Value) (variant.Variant, error) {
	switch {
	case v.IsUndefined(), v.IsNull():
		return variant.Variant{}, nil
	case v.IsBoolean():
		b, err := v.ToBoolean()
		return variant.FromBool(b), err
	case v.IsNumber():
		f, err := v.ToFloat()
		if err != nil {
			return variant.Variant{}, err
		}
		if f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return variant.FromInt(int64(f)), nil
		}
		return variant.FromFloat(f), nil
	case v.IsString():
		s, err := v.ToString()
		return variant.FromString(s), err
	case v.IsFunction():
		return variant.Variant{}, errors.Wrap(ErrUnsupportedValue, "function")
	case v.IsObject():
		return h.objectToVariant(v.Object())
	}
	return variant.Variant{}, errors.Wrap(ErrUnsupportedValue, v.Class())
}

func (h *Host) objectToVariant(o *otto.Object) (variant.Variant, error) {
	if o.Class() == "Array" {
		lv, err := o.Get("length")
		if err != nil {
			return variant.Variant{}, err
		}
		n, err := lv.ToInteger()
		if err != nil {
			return variant.Variant{}, err
		}
		items := make([]variant.Variant, n)
		for i := range items {
			e, err := o.Get(strconv.Itoa(i))
			if err != nil {
				return variant.Variant{}, err
			}
			if items[i], err = h.toVariant(e); err != nil {
				return variant.Variant{}, err
			}
		}
		return variant.FromArray(items...), nil
	}
	hv, err := o.Get(handleProperty)
	if err != nil {
		return variant.Variant{}, err
	}
	if !hv.IsNumber() {
		return variant.Variant{}, errors.Wrap(ErrUnsupportedValue, o.Class())
	}
	id, err := hv.ToInteger()
	if err != nil {
		return variant.Variant{}, err
	}
	return variant.FromRef(uint64(id)), nil
}

func (h *Host) fromVariant(v variant.Variant, own ownership) (otto.Value, error) {
	switch v.Kind() {
	case variant.Empty:
		return otto.UndefinedValue(), nil
	case variant.Ref:
		ref, _ := v.AsRef()
		id := handle.Handle(ref)
		if own == retained {
			if err := h.reg.Retain(id); err != nil {
				return otto.Value{}, err
			}
		}
		w, err := h.wrap(id, own != borrowed)
		if err != nil && own == retained {
			_ = h.reg.Release(id)
		}
		return w, err
	case variant.Bytes:
		b, _ := v.AsBytes()
		return h.vm.ToValue(string(b))
	case variant.Array:
		items, _ := v.AsArray()
		values := make([]any, len(items))
		if own == transferred {
			own = retained
		}
		for i, item := range items {
			e, err := h.fromVariant(item, own)
			if err != nil {
				return otto.Value{}, err
			}
			values[i] = e
		}
		arr, err := h.vm.Object(`[]`)
		if err != nil {
			return otto.Value{}, err
		}
		if len(values) > 0 {
			if _, err := arr.Call("push", values...); err != nil {
				return otto.Value{}, err
			}
		}
		return arr.Value(), nil
	}
	return h.vm.ToValue(v.Interface())
}
