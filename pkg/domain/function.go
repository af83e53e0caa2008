package domain

import (
	"context"
	"sync"
)

// Function is a standalone callable that can be configured for dispatch.
// Weaving replaces its operation in place, so callers holding the *Function
// observe the interception.
type Function struct {
	name string

	mu    sync.RWMutex
	fn    Operation
	attrs map[string]any
}

// FunctionOption configures a Function.
type FunctionOption func(*Function)

// WithFunctionAttr sets an attribute on the function, e.g. a handler to be
// resolved by name.
func WithFunctionAttr(name string, value any) FunctionOption {
	return func(f *Function) {
		f.attrs[name] = value
	}
}

// NewFunction wraps fn as a dispatch target.
func NewFunction(name string, fn Operation, opts ...FunctionOption) *Function {
	f := &Function{name: name, fn: fn, attrs: make(map[string]any)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// TargetName implements Target.
func (f *Function) TargetName() string { return f.name }

// Call invokes the current operation.
func (f *Function) Call(ctx context.Context, args Args) (any, error) {
	return f.Operation()(ctx, nil, args)
}

// Operation returns the current (possibly woven) operation.
func (f *Function) Operation() Operation {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fn
}

// SetOperation replaces the operation.
func (f *Function) SetOperation(fn Operation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

// Attr returns a function attribute.
func (f *Function) Attr(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.attrs[name]
	return v, ok
}

// SetAttr sets a function attribute.
func (f *Function) SetAttr(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs[name] = value
}
