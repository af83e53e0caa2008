package domain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Trigger identifies who performed an intercepted operation. Op is the bound
// method resolved on the receiver's class (or the original function for
// function-level events); it is nil when the name could not be resolved.
type Trigger struct {
	Name string
	Op   Operation
}

// Resolved reports whether the trigger name was resolved to an operation.
func (t Trigger) Resolved() bool { return t.Op != nil }

func (t Trigger) String() string { return t.Name }

// EventSpec holds the fields used to build an Event.
type EventSpec struct {
	Kind       EventKind
	TargetName string
	Operation  string
	Target     *Object
	Original   Operation
	Trigger    Trigger
	Args       Args
}

// Event describes one intercepted occurrence. It is immutable: accessors
// return copies of the argument containers.
type Event struct {
	id         string
	at         time.Time
	kind       EventKind
	targetName string
	operation  string
	target     *Object
	original   Operation
	trigger    Trigger
	args       []any
	kwargs     map[string]any
}

// NewEvent builds an Event, copying the argument containers.
func NewEvent(spec EventSpec) Event {
	return Event{
		id:         uuid.NewString(),
		at:         time.Now(),
		kind:       spec.Kind,
		targetName: spec.TargetName,
		operation:  spec.Operation,
		target:     spec.Target,
		original:   spec.Original,
		trigger:    spec.Trigger,
		args:       slices.Clone(spec.Args.Positional),
		kwargs:     maps.Clone(spec.Args.Named),
	}
}

// ID is unique per occurrence.
func (e Event) ID() string { return e.id }

// Time is when the occurrence was intercepted.
func (e Event) Time() time.Time { return e.at }

// Kind is the event that fired.
func (e Event) Kind() EventKind { return e.kind }

// TargetName is the name of the configured class or function.
func (e Event) TargetName() string { return e.targetName }

// Operation is the name of the slot, method or function that fired.
func (e Event) Operation() string { return e.operation }

// Target is the instance the operation happened on; nil for function calls.
func (e Event) Target() *Object { return e.target }

// Original is the implementation that runs after the handlers. It is nil
// when the intercepted slot had none.
func (e Event) Original() Operation { return e.original }

// Trigger identifies the caller.
func (e Event) Trigger() Trigger { return e.trigger }

// Args returns the positional arguments.
func (e Event) Args() []any { return slices.Clone(e.args) }

// Kwargs returns the named arguments.
func (e Event) Kwargs() map[string]any {
	if e.kwargs == nil {
		return map[string]any{}
	}
	return maps.Clone(e.kwargs)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s.%s by %s %v", e.kind, e.targetName, e.operation, e.trigger.Name, e.args)
}

// Handler is notified synchronously of every matching occurrence. A non-nil
// error aborts the remaining handlers and the intercepted operation.
type Handler func(ctx context.Context, ev Event) error

// HandlerEntry is either a handler or the name of a target attribute holding one.
type HandlerEntry struct {
	fn   Handler
	name string
}

// Func wraps a handler as an entry.
func Func(h Handler) HandlerEntry {
	return HandlerEntry{fn: h}
}

// Named refers to a handler stored as an attribute of the target.
func Named(name string) HandlerEntry {
	return HandlerEntry{name: name}
}

// Handler returns the direct handler, nil for named entries.
func (h HandlerEntry) Handler() Handler { return h.fn }

// Name returns the attribute name, empty for direct entries.
func (h HandlerEntry) Name() string { return h.name }

// IsNamed reports whether the entry must be resolved on the target.
func (h HandlerEntry) IsNamed() bool { return h.fn == nil }

func (h HandlerEntry) String() string {
	if h.IsNamed() {
		return h.name
	}
	return "<func>"
}
