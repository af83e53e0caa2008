package domain

import (
	"context"
	"maps"
	"slices"
)

// Operation is the uniform signature of every interceptable operation.
// self is nil for free functions.
type Operation func(ctx context.Context, self *Object, args Args) (any, error)

// OpName names an interceptable slot of a class.
type OpName string

const (
	// OpCall runs when an instance is invoked.
	OpCall OpName = "call"
	// OpGetAttr replaces the whole attribute read.
	OpGetAttr OpName = "getattr"
	// OpGetMissing runs when a read finds no field.
	OpGetMissing OpName = "getmissing"
	// OpDescriptorGet runs when an instance stored in another object's field is read.
	OpDescriptorGet OpName = "descriptor_get"
	// OpSetAttr replaces the whole attribute write.
	OpSetAttr OpName = "setattr"
	// OpDescriptorSet runs when an instance stored in another object's field is overwritten.
	OpDescriptorSet OpName = "descriptor_set"
)

// Args carries the positional and named arguments of one call.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Call builds Args from positional values.
func Call(positional ...any) Args {
	return Args{Positional: positional}
}

// With returns a copy of a with the named argument set.
func (a Args) With(name string, value any) Args {
	out := a.Clone()
	if out.Named == nil {
		out.Named = make(map[string]any, 1)
	}
	out.Named[name] = value
	return out
}

// Clone copies the argument containers; the values themselves are shared.
func (a Args) Clone() Args {
	return Args{
		Positional: slices.Clone(a.Positional),
		Named:      maps.Clone(a.Named),
	}
}

// Keys returns the named argument keys in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a.Named))
	for k := range a.Named {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Arg returns the i-th positional argument, or nil when out of range.
func (a Args) Arg(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

type callerKey struct{}

// ExternalCaller names a caller that did not declare itself.
const ExternalCaller = "<external>"

// WithCaller records who is performing the next operations. Object.CallMethod
// sets it for the duration of a method body.
func WithCaller(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, callerKey{}, name)
}

// CallerFrom returns the caller recorded in ctx, or ExternalCaller.
func CallerFrom(ctx context.Context) string {
	if name, ok := ctx.Value(callerKey{}).(string); ok && name != "" {
		return name
	}
	return ExternalCaller
}

// Target is anything that can be configured for dispatch: a *Class or a
// *Function. Identity is pointer identity.
type Target interface {
	TargetName() string
	Attr(name string) (any, bool)
}
