package domain

import (
	"slices"
	"sync"
)

// Class describes a type whose instances expose their state only through
// interceptable operations. Slots, methods and attributes are inherited from
// the parent chain unless overridden.
type Class struct {
	name   string
	parent *Class

	mu      sync.RWMutex
	slots   map[OpName]Operation
	methods map[string]Operation
	attrs   map[string]any
}

// ClassOption configures a Class at definition time.
type ClassOption func(*Class)

// WithParent makes the class a subclass of parent.
func WithParent(parent *Class) ClassOption {
	return func(c *Class) {
		c.parent = parent
	}
}

// WithSlot defines one of the interceptable operations.
func WithSlot(op OpName, fn Operation) ClassOption {
	return func(c *Class) {
		c.slots[op] = fn
	}
}

// WithMethod defines a user method.
func WithMethod(name string, fn Operation) ClassOption {
	return func(c *Class) {
		c.methods[name] = fn
	}
}

// WithAttr defines a class attribute, e.g. a handler to be resolved by name.
func WithAttr(name string, value any) ClassOption {
	return func(c *Class) {
		c.attrs[name] = value
	}
}

// NewClass defines a class.
func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{
		name:    name,
		slots:   make(map[OpName]Operation),
		methods: make(map[string]Operation),
		attrs:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// TargetName implements Target.
func (c *Class) TargetName() string { return c.name }

// Parent returns the superclass, or nil.
func (c *Class) Parent() *Class { return c.parent }

// IsSubclassOf reports whether c is other or derives from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// Slot returns the operation for op, own or inherited. nil means the class
// relies on the default object behavior.
func (c *Class) Slot(op OpName) Operation {
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		fn, ok := k.slots[op]
		k.mu.RUnlock()
		if ok {
			return fn
		}
	}
	return nil
}

// SetSlot installs fn as the class's own op slot.
func (c *Class) SetSlot(op OpName, fn Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[op] = fn
}

// Method returns the named method, own or inherited.
func (c *Class) Method(name string) (Operation, bool) {
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		fn, ok := k.methods[name]
		k.mu.RUnlock()
		if ok {
			return fn, true
		}
	}
	return nil, false
}

// SetMethod installs fn as the class's own method.
func (c *Class) SetMethod(name string, fn Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[name] = fn
}

// MethodNames lists the methods visible on the class, own and inherited,
// sorted by name.
func (c *Class) MethodNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		for name := range k.methods {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		k.mu.RUnlock()
	}
	slices.Sort(names)
	return names
}

// Attr returns a class attribute, own or inherited.
func (c *Class) Attr(name string) (any, bool) {
	for k := c; k != nil; k = k.parent {
		k.mu.RLock()
		v, ok := k.attrs[name]
		k.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// SetAttr sets a class attribute.
func (c *Class) SetAttr(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[name] = value
}

// New creates an instance with the given initial fields. Fields are stored
// directly, without going through the write operations.
func (c *Class) New(fields map[string]any) *Object {
	o := &Object{class: c, fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}
