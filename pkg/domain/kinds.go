package domain

import (
	"fmt"
	"strings"
)

// EventKind is a bitset of observable occurrences.
type EventKind uint8

const (
	// FieldGet observes attribute reads. Classes only.
	FieldGet EventKind = 1 << iota
	// FieldSet observes attribute writes. Classes only.
	FieldSet
	// FieldChange observes attribute writes that change the stored value. Classes only.
	FieldChange
	// OnMethodCalls observes every user-defined method of a class.
	OnMethodCalls
	// OnCall observes calling an instance (classes) or the function itself.
	OnCall
)

// ClassOnlyEvents are the kinds that make no sense on a standalone function.
const ClassOnlyEvents = FieldGet | FieldSet | FieldChange | OnMethodCalls

var eventKindNames = []struct {
	kind EventKind
	name string
}{
	{FieldGet, "field_get"},
	{FieldSet, "field_set"},
	{FieldChange, "field_change"},
	{OnMethodCalls, "on_method_calls"},
	{OnCall, "on_call"},
}

// AllEvents lists every kind in declaration order.
func AllEvents() []EventKind {
	out := make([]EventKind, len(eventKindNames))
	for i, n := range eventKindNames {
		out[i] = n.kind
	}
	return out
}

// Has reports whether every bit of k is set in e.
func (e EventKind) Has(k EventKind) bool {
	return k != 0 && e&k == k
}

// Split returns the individual kinds set in e, in declaration order.
func (e EventKind) Split() []EventKind {
	var out []EventKind
	for _, n := range eventKindNames {
		if e&n.kind != 0 {
			out = append(out, n.kind)
		}
	}
	return out
}

func (e EventKind) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	for _, n := range eventKindNames {
		if e&n.kind != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseEventKind parses a single kind name. Both "field_set" and "FIELD_SET"
// are accepted.
func ParseEventKind(s string) (EventKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, n := range eventKindNames {
		if n.name == key {
			return n.kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// Behavior is a bitset of modifiers that control how interception composes
// with inheritance.
type Behavior uint8

const (
	// IncludeInheritance notifies for instances of subclasses too.
	IncludeInheritance Behavior = 1 << iota
)

// Has reports whether every bit of b is set.
func (bh Behavior) Has(b Behavior) bool {
	return b != 0 && bh&b == b
}

func (bh Behavior) String() string {
	if bh.Has(IncludeInheritance) {
		return "include_inheritance"
	}
	return "none"
}

// ParseBehavior parses a single behavior name.
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "include_inheritance":
		return IncludeInheritance, nil
	case "none", "":
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBehavior, s)
}

// CheckFunctionEvents rejects class-only kinds requested on a function.
func CheckFunctionEvents(target string, events EventKind) error {
	if bad := events & ClassOnlyEvents; bad != 0 {
		return &IncompatibleEventError{Target: target, Events: bad}
	}
	return nil
}
