package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotCallable is returned when an instance without a call operation is invoked.
var ErrNotCallable = errors.New("object is not callable")

// ErrUnsupportedTarget is returned for targets that are neither classes nor functions.
var ErrUnsupportedTarget = errors.New("unsupported dispatch target")

// ErrUnknownEventKind is returned when a kind name cannot be parsed.
var ErrUnknownEventKind = errors.New("unknown event kind")

// ErrUnknownBehavior is returned when a behavior name cannot be parsed.
var ErrUnknownBehavior = errors.New("unknown behavior")

// HandlerNotFoundError is a configuration error: a handler given by name is
// not an attribute of the target.
type HandlerNotFoundError struct {
	Target string
	Name   string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("dispatch handler with the name %s for %s not found", e.Name, e.Target)
}

// HandlerTypeError is returned when a named attribute exists but cannot be
// invoked as a handler.
type HandlerTypeError struct {
	Target string
	Name   string
	Value  any
}

func (e *HandlerTypeError) Error() string {
	return fmt.Sprintf("dispatch handler %s for %s is a %T, not a handler", e.Name, e.Target, e.Value)
}

// IncompatibleEventError is returned when class-only kinds are requested on a function.
type IncompatibleEventError struct {
	Target string
	Events EventKind
}

func (e *IncompatibleEventError) Error() string {
	return fmt.Sprintf("events %s can only be dispatched on classes, %s is a function", e.Events, e.Target)
}

// FieldNotFoundError is returned when reading a field that does not exist.
type FieldNotFoundError struct {
	Class string
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("%s object has no field %q", e.Class, e.Field)
}

// MethodNotFoundError is returned when calling a method that does not exist.
type MethodNotFoundError struct {
	Class  string
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("%s object has no method %q", e.Class, e.Method)
}

// OperationError decorates an error raised by an intercepted operation with
// the class, operation and arguments it was called with. Unwrap returns the
// original error, so errors.Is and errors.As keep matching its kind.
type OperationError struct {
	Class string
	Op    string
	Args  Args
	Err   error
}

func (e *OperationError) Error() string {
	parts := []string{"self"}
	for _, a := range e.Args.Positional {
		parts = append(parts, fmt.Sprint(a))
	}
	for _, k := range e.Args.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Args.Named[k]))
	}
	return fmt.Sprintf("%s.%s(%s): %v", e.Class, e.Op, strings.Join(parts, ", "), e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
