package domain

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// ErrFallback is returned by a slot operation to hand control back to the
// default object behavior, as if the slot were not defined.
var ErrFallback = errors.New("fall back to default behavior")

// Object is an instance of a Class. Its fields are only reachable through
// Get/Set, which route through the class slots.
type Object struct {
	class *Class

	mu     sync.RWMutex
	fields map[string]any
}

// Class returns the exact runtime class of the instance.
func (o *Object) Class() *Class { return o.class }

func (o *Object) String() string {
	return fmt.Sprintf("<%s object>", o.class.name)
}

// Get reads a field through OpGetAttr, or Lookup when the class has none.
func (o *Object) Get(ctx context.Context, name string) (any, error) {
	if fn := o.class.Slot(OpGetAttr); fn != nil {
		v, err := fn(ctx, o, Call(name))
		if !errors.Is(err, ErrFallback) {
			return v, err
		}
	}
	return o.Lookup(ctx, name)
}

// Lookup is the default read: the stored field, resolved through its
// OpDescriptorGet when the value is itself an object defining one, or
// OpGetMissing when the field is absent.
func (o *Object) Lookup(ctx context.Context, name string) (any, error) {
	v, ok := o.Peek(name)
	if ok {
		if d, isObj := v.(*Object); isObj {
			if fn := d.class.Slot(OpDescriptorGet); fn != nil {
				r, err := fn(ctx, d, Call(o))
				if !errors.Is(err, ErrFallback) {
					return r, err
				}
			}
		}
		return v, nil
	}

	if fn := o.class.Slot(OpGetMissing); fn != nil {
		r, err := fn(ctx, o, Call(name))
		if !errors.Is(err, ErrFallback) {
			return r, err
		}
	}
	return nil, &FieldNotFoundError{Class: o.class.name, Field: name}
}

// Set writes a field through OpSetAttr, or Store when the class has none.
func (o *Object) Set(ctx context.Context, name string, value any) error {
	if fn := o.class.Slot(OpSetAttr); fn != nil {
		_, err := fn(ctx, o, Call(name, value))
		if !errors.Is(err, ErrFallback) {
			return err
		}
	}
	return o.Store(ctx, name, value)
}

// Store is the default write. When the current value is an object defining
// OpDescriptorSet, the write is delegated to it.
func (o *Object) Store(ctx context.Context, name string, value any) error {
	if cur, ok := o.Peek(name); ok {
		if d, isObj := cur.(*Object); isObj {
			if fn := d.class.Slot(OpDescriptorSet); fn != nil {
				_, err := fn(ctx, d, Call(o, value))
				if !errors.Is(err, ErrFallback) {
					return err
				}
			}
		}
	}

	o.mu.Lock()
	o.fields[name] = value
	o.mu.Unlock()
	return nil
}

// Invoke calls the instance itself through OpCall.
func (o *Object) Invoke(ctx context.Context, args Args) (any, error) {
	if fn := o.class.Slot(OpCall); fn != nil {
		v, err := fn(ctx, o, args)
		if !errors.Is(err, ErrFallback) {
			return v, err
		}
	}
	return nil, fmt.Errorf("%s: %w", o.class.name, ErrNotCallable)
}

// CallMethod runs a method with the caller set to the method name, so that
// field operations performed by its body report it as their trigger.
func (o *Object) CallMethod(ctx context.Context, name string, args Args) (any, error) {
	fn, ok := o.class.Method(name)
	if !ok {
		return nil, &MethodNotFoundError{Class: o.class.name, Method: name}
	}
	return fn(WithCaller(ctx, name), o, args)
}

// Peek reads a stored field without going through any operation.
func (o *Object) Peek(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[name]
	return v, ok
}

// Fields returns a snapshot of the stored fields.
func (o *Object) Fields() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.fields)
}
