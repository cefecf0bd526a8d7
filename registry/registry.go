// Package registry exposes native objects to the host. Classes are
// registered under stable dotted type names with a set of named methods,
// instances live in a handle.Table and calls are dispatched by handle and
// method name. Any failure raised by a method, including faults panicking
// out of a container, reaches the caller as a *CallError.
package registry

import (
	"fmt"
	"sync"

	"github.com/Aashil0828/collections/handle"
	"github.com/Aashil0828/collections/ordering"
	"github.com/Aashil0828/collections/variant"
	plog "github.com/phuslu/log"
	"github.com/pkg/errors"
)

// CompareMethod is the method a comparator object must implement.
const CompareMethod = "Compare"

var (
	ErrDuplicateClass   = errors.New("class already registered")
	ErrInvalidClass     = errors.New("invalid class")
	ErrUnknownClass     = errors.New("unknown class")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrNotConstructible = errors.New("class has no default constructor")
	ErrArity            = errors.New("wrong number of arguments")
	ErrNotAHandle       = errors.New("argument is not a handle")
	ErrUnknownHandle    = handle.ErrUnknownHandle
)

// Method is an instance method.
type Method struct {
	Args int
	Fn   func(r *Registry, this any, args []variant.Variant) (variant.Variant, error)

	// NewRef is set when Fn returns a Ref to a new object whose only
	// reference is handed to the caller.
	NewRef bool
}

// StaticMethod is a method called on the class itself.
type StaticMethod struct {
	Args int
	Fn   func(r *Registry, args []variant.Variant) (variant.Variant, error)
}

// Class describes a native type.
type Class struct {
	Name string

	// Construct creates a default initialized instance, nil if the
	// class can only be created by its static methods.
	Construct func() any

	// Dispose is called once the last reference to an instance is released.
	Dispose func(r *Registry, this any)

	Methods       map[string]Method
	StaticMethods map[string]StaticMethod
}

// CallError reports a failed method call.
type CallError struct {
	Type   string
	Method string
	Handle handle.Handle
	Cause  error
}

func (e *CallError) Error() string {
	if e.Handle != 0 {
		return fmt.Sprintf("%s#%d.%s: %v", e.Type, e.Handle, e.Method, e.Cause)
	}
	return fmt.Sprintf("%s.%s: %v", e.Type, e.Method, e.Cause)
}

func (e *CallError) Unwrap() error { return e.Cause }

type Registry struct {
	lock    sync.RWMutex
	classes map[string]*Class
	handles *handle.Table
	log     plog.Logger
}

func New(handles *handle.Table, log plog.Logger) *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		handles: handles,
		log:     log,
	}
}

// Register adds a class. Type names must be unique.
func (r *Registry) Register(c Class) error {
	if c.Name == "" {
		return errors.Wrap(ErrInvalidClass, "empty type name")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.classes[c.Name]; ok {
		return errors.Wrap(ErrDuplicateClass, c.Name)
	}
	r.classes[c.Name] = &c
	r.log.Debug().
		Str("type", c.Name).
		Int("methods", len(c.Methods)).
		Int("static_methods", len(c.StaticMethods)).
		Msg("class registered")
	return nil
}

func (r *Registry) Class(typeName string) (*Class, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.classes[typeName]
	return c, ok
}

// Classes returns the registered type names.
func (r *Registry) Classes() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	return names
}

// New creates a default initialized instance of typeName.
func (r *Registry) New(typeName string) (handle.Handle, error) {
	c, ok := r.Class(typeName)
	if !ok {
		return 0, errors.Wrap(ErrUnknownClass, typeName)
	}
	if c.Construct == nil {
		return 0, errors.Wrap(ErrNotConstructible, typeName)
	}
	return r.insert(c, c.Construct()), nil
}

// Wrap registers value as an instance of typeName.
func (r *Registry) Wrap(typeName string, value any) (handle.Handle, error) {
	c, ok := r.Class(typeName)
	if !ok {
		return 0, errors.Wrap(ErrUnknownClass, typeName)
	}
	return r.insert(c, value), nil
}

// WrapRef is like Wrap but returns the handle as a Ref variant.
func (r *Registry) WrapRef(typeName string, value any) (variant.Variant, error) {
	h, err := r.Wrap(typeName, value)
	if err != nil {
		return variant.Variant{}, err
	}
	return variant.FromRef(uint64(h)), nil
}

func (r *Registry) insert(c *Class, value any) handle.Handle {
	h := r.handles.Insert(c.Name, value)
	r.log.Debug().Str("type", c.Name).Uint64("handle", uint64(h)).Msg("object created")
	return h
}

// Object resolves a handle.
func (r *Registry) Object(h handle.Handle) (*handle.Object, error) {
	o, ok := r.handles.Get(h)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "handle %d", h)
	}
	return o, nil
}

// Resolve resolves a Ref variant.
func (r *Registry) Resolve(v variant.Variant) (handle.Handle, *handle.Object, error) {
	id, ok := v.AsRef()
	if !ok {
		return 0, nil, errors.Wrapf(ErrNotAHandle, "got %s", v.Kind())
	}
	o, err := r.Object(handle.Handle(id))
	if err != nil {
		return 0, nil, err
	}
	return handle.Handle(id), o, nil
}

func (r *Registry) Retain(h handle.Handle) error {
	if err := r.handles.Retain(h); err != nil {
		return errors.Wrapf(err, "handle %d", h)
	}
	return nil
}

// Release drops a reference to h, disposing the object with the last one.
func (r *Registry) Release(h handle.Handle) error {
	o, err := r.handles.Release(h)
	if err != nil {
		return errors.Wrapf(err, "handle %d", h)
	}
	if o == nil {
		return nil
	}
	r.log.Debug().Str("type", o.Type).Uint64("handle", uint64(h)).Msg("object released")
	if c, ok := r.Class(o.Type); ok && c.Dispose != nil {
		c.Dispose(r, o.Value)
	}
	return nil
}

// Len returns the number of live objects.
func (r *Registry) Len() int { return r.handles.Len() }

// Live returns the number of live objects per type name.
func (r *Registry) Live() map[string]int {
	live := make(map[string]int)
	r.handles.Iter(func(_ handle.Handle, o *handle.Object) bool {
		live[o.Type]++
		return false
	})
	return live
}

// Close drops every live object regardless of outstanding references
// and disposes each of them once. Handles held by the host are invalid
// afterwards.
func (r *Registry) Close() {
	var objects []*handle.Object
	r.handles.Iter(func(_ handle.Handle, o *handle.Object) bool {
		objects = append(objects, o)
		return false
	})
	r.handles.RemoveAll()
	for _, o := range objects {
		if c, ok := r.Class(o.Type); ok && c.Dispose != nil {
			c.Dispose(r, o.Value)
		}
	}
	r.log.Debug().Int("objects", len(objects)).Msg("registry closed")
}

// Call invokes method on the object identified by h.
func (r *Registry) Call(
	h handle.Handle, method string, args ...variant.Variant,
) (result variant.Variant, err error) {
	o, err := r.Object(h)
	if err != nil {
		return variant.Variant{}, &CallError{Method: method, Handle: h, Cause: err}
	}
	fail := func(cause error) error {
		return &CallError{Type: o.Type, Method: method, Handle: h, Cause: cause}
	}
	c, ok := r.Class(o.Type)
	if !ok {
		return variant.Variant{}, fail(errors.Wrap(ErrUnknownClass, o.Type))
	}
	m, ok := c.Methods[method]
	if !ok {
		return variant.Variant{}, fail(ErrUnknownMethod)
	}
	if len(args) != m.Args {
		return variant.Variant{}, fail(errors.Wrapf(
			ErrArity, "expected %d, got %d", m.Args, len(args),
		))
	}
	defer r.recoverCall(&err, fail)
	if result, err = m.Fn(r, o.Value, args); err != nil {
		return variant.Variant{}, fail(err)
	}
	return result, nil
}

// CallStatic invokes a static method of typeName.
func (r *Registry) CallStatic(
	typeName, method string, args ...variant.Variant,
) (result variant.Variant, err error) {
	fail := func(cause error) error {
		return &CallError{Type: typeName, Method: method, Cause: cause}
	}
	c, ok := r.Class(typeName)
	if !ok {
		return variant.Variant{}, fail(ErrUnknownClass)
	}
	m, ok := c.StaticMethods[method]
	if !ok {
		return variant.Variant{}, fail(ErrUnknownMethod)
	}
	if len(args) != m.Args {
		return variant.Variant{}, fail(errors.Wrapf(
			ErrArity, "expected %d, got %d", m.Args, len(args),
		))
	}
	defer r.recoverCall(&err, fail)
	if result, err = m.Fn(r, args); err != nil {
		return variant.Variant{}, fail(err)
	}
	return result, nil
}

func (r *Registry) recoverCall(err *error, fail func(error) error) {
	p := recover()
	if p == nil {
		return
	}
	cause, ok := p.(error)
	if !ok {
		cause = errors.Errorf("panic: %v", p)
	}
	*err = fail(cause)
	r.log.Warn().Err(*err).Msg("call failed")
}

// HandleComparator calls the Compare method of a host object.
type HandleComparator struct {
	Registry *Registry
	Handle   handle.Handle
}

func (c HandleComparator) Compare(a, b variant.Variant) (ordering.Ordering, error) {
	res, err := c.Registry.Call(c.Handle, CompareMethod, a, b)
	if err != nil {
		return ordering.Equal, err
	}
	return ordering.FromVariant(res)
}

// Comparator resolves v to a comparator object and retains it.
// The caller owns the reference and must Release the handle.
func (r *Registry) Comparator(v variant.Variant) (HandleComparator, error) {
	h, o, err := r.Resolve(v)
	if err != nil {
		return HandleComparator{}, err
	}
	c, ok := r.Class(o.Type)
	if !ok {
		return HandleComparator{}, errors.Wrap(ErrUnknownClass, o.Type)
	}
	if _, ok := c.Methods[CompareMethod]; !ok {
		return HandleComparator{}, errors.Wrapf(
			ErrUnknownMethod, "%s has no %s method", o.Type, CompareMethod,
		)
	}
	if err := r.Retain(h); err != nil {
		return HandleComparator{}, err
	}
	return HandleComparator{Registry: r, Handle: h}, nil
}
