package weaver_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/dispatch/internal/weaver"
	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects events and marks them in a shared timeline.
type recorder struct {
	name     string
	timeline *[]string
	events   []domain.Event
}

func (r *recorder) handle(_ context.Context, ev domain.Event) error {
	r.events = append(r.events, ev)
	if r.timeline != nil {
		*r.timeline = append(*r.timeline, r.name)
	}
	return nil
}

func configure(t *testing.T, reg *registry.Registry, target domain.Target, events domain.EventKind, behavior domain.Behavior, handlers ...domain.Handler) {
	t.Helper()
	reg.Attach(target, registry.Config{Events: events, Behavior: behavior, Handlers: handlers})
	require.NoError(t, weaver.New(reg, nil).Weave(target, events))
}

func newPoint() *domain.Class {
	return domain.NewClass("C")
}

func TestWeave_FunctionOnCall(t *testing.T) {
	reg := registry.NewRegistry()
	var timeline []string
	log := &recorder{name: "log", timeline: &timeline}

	add := domain.NewFunction("add", func(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
		timeline = append(timeline, "body")
		return args.Arg(0).(int) + args.Arg(1).(int), nil
	})
	configure(t, reg, add, domain.OnCall, 0, log.handle)

	v, err := add.Call(context.Background(), domain.Call(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, []string{"log", "body"}, timeline, "handlers run before the function")

	require.Len(t, log.events, 1)
	ev := log.events[0]
	assert.Equal(t, domain.OnCall, ev.Kind())
	assert.Nil(t, ev.Target())
	assert.Equal(t, []any{2, 3}, ev.Args())
	assert.Equal(t, "add", ev.Trigger().Name)
	assert.True(t, ev.Trigger().Resolved())
	assert.NotNil(t, ev.Original())

	// The original operation is what the event carries.
	direct, err := ev.Original()(context.Background(), nil, domain.Call(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, direct)
}

func TestWeave_FunctionErrorsPropagateUnchanged(t *testing.T) {
	reg := registry.NewRegistry()
	boom := errors.New("boom")
	fn := domain.NewFunction("fail", func(context.Context, *domain.Object, domain.Args) (any, error) {
		return nil, boom
	})
	configure(t, reg, fn, domain.OnCall, 0)

	_, err := fn.Call(context.Background(), domain.Call())
	assert.Same(t, boom, err)
}

func TestWeave_FieldSet(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	c := newPoint()
	configure(t, reg, c, domain.FieldSet, 0, record.handle)

	obj := c.New(map[string]any{"x": 0})
	require.NoError(t, obj.Set(context.Background(), "x", 5))

	require.Len(t, record.events, 1)
	ev := record.events[0]
	assert.Equal(t, domain.FieldSet, ev.Kind())
	assert.Contains(t, ev.Args(), 5)
	assert.Same(t, obj, ev.Target())
	assert.Equal(t, "setattr", ev.Operation())
	assert.Nil(t, ev.Original(), "C defines no write operation of its own")

	v, err := obj.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestWeave_HandlerOrderAndTiming(t *testing.T) {
	reg := registry.NewRegistry()
	var timeline []string
	a := &recorder{name: "a", timeline: &timeline}
	b := &recorder{name: "b", timeline: &timeline}
	c := &recorder{name: "c", timeline: &timeline}

	cls := domain.NewClass("Counter",
		domain.WithSlot(domain.OpCall, func(context.Context, *domain.Object, domain.Args) (any, error) {
			timeline = append(timeline, "call")
			return "called", nil
		}),
		domain.WithSlot(domain.OpSetAttr, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			timeline = append(timeline, "set")
			return nil, self.Store(ctx, args.Arg(0).(string), args.Arg(1))
		}),
	)
	configure(t, reg, cls, domain.OnCall|domain.FieldSet|domain.FieldGet, 0, a.handle, b.handle, c.handle)
	obj := cls.New(map[string]any{"n": 1})
	ctx := context.Background()

	v, err := obj.Invoke(ctx, domain.Call())
	require.NoError(t, err)
	assert.Equal(t, "called", v)
	assert.Equal(t, []string{"a", "b", "c", "call"}, timeline)

	timeline = nil
	require.NoError(t, obj.Set(ctx, "n", 2))
	assert.Equal(t, []string{"a", "b", "c", "set"}, timeline)

	timeline = nil
	_, err = obj.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, timeline)

	for _, r := range []*recorder{a, b, c} {
		assert.Len(t, r.events, 3, "every handler sees every occurrence exactly once")
	}
}

func TestWeave_InheritanceScoping(t *testing.T) {
	tests := []struct {
		name       string
		behavior   domain.Behavior
		wantEvents int
	}{
		{name: "exact class only", behavior: 0, wantEvents: 0},
		{name: "include inheritance", behavior: domain.IncludeInheritance, wantEvents: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.NewRegistry()
			record := &recorder{}
			var ran int
			base := domain.NewClass("Base",
				domain.WithSlot(domain.OpSetAttr, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
					ran++
					return nil, self.Store(ctx, args.Arg(0).(string), args.Arg(1))
				}),
			)
			derived := domain.NewClass("Derived", domain.WithParent(base))
			configure(t, reg, base, domain.FieldSet, tt.behavior, record.handle)

			obj := derived.New(nil)
			require.NoError(t, obj.Set(context.Background(), "x", 1))

			assert.Equal(t, 1, ran, "the original always runs")
			assert.Len(t, record.events, tt.wantEvents)
			v, _ := obj.Peek("x")
			assert.Equal(t, 1, v)

			// Exact instances always notify.
			require.NoError(t, base.New(nil).Set(context.Background(), "x", 2))
			assert.Len(t, record.events, tt.wantEvents+1)
		})
	}
}

type validationError struct {
	field string
}

func (e *validationError) Error() string { return e.field + " must be positive" }

func TestWeave_OriginalErrorIsRewrapped(t *testing.T) {
	reg := registry.NewRegistry()
	cls := domain.NewClass("Account",
		domain.WithSlot(domain.OpSetAttr, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			if v, ok := args.Arg(1).(int); ok && v < 0 {
				return nil, &validationError{field: args.Arg(0).(string)}
			}
			return nil, self.Store(ctx, args.Arg(0).(string), args.Arg(1))
		}),
	)
	configure(t, reg, cls, domain.FieldSet, 0)

	err := cls.New(nil).Set(context.Background(), "balance", -1)
	require.Error(t, err)

	var verr *validationError
	require.ErrorAs(t, err, &verr, "callers matching the original kind keep working")
	assert.Equal(t, "balance", verr.field)

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Account", opErr.Class)
	assert.Equal(t, "Account.setattr(self, balance, -1): balance must be positive", err.Error())
	assert.Contains(t, err.Error(), verr.Error())
}

func TestWeave_HandlerFailureShortCircuits(t *testing.T) {
	reg := registry.NewRegistry()
	boom := errors.New("rejected")
	var ran int
	after := &recorder{}

	cls := domain.NewClass("Guarded",
		domain.WithSlot(domain.OpSetAttr, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			ran++
			return nil, self.Store(ctx, args.Arg(0).(string), args.Arg(1))
		}),
	)
	configure(t, reg, cls, domain.FieldSet, 0,
		func(context.Context, domain.Event) error { return boom },
		after.handle,
	)

	obj := cls.New(nil)
	err := obj.Set(context.Background(), "x", 1)
	assert.Same(t, boom, err, "handler errors are not decorated")
	assert.Zero(t, ran, "the original must not run")
	assert.Empty(t, after.events)
	_, stored := obj.Peek("x")
	assert.False(t, stored)
}

func TestWeave_Transparency(t *testing.T) {
	build := func() *domain.Class {
		return domain.NewClass("Box",
			domain.WithSlot(domain.OpSetAttr, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
				if args.Arg(0) == "locked" {
					return nil, errors.New("field is locked")
				}
				return nil, self.Store(ctx, args.Arg(0).(string), args.Arg(1))
			}),
		)
	}
	plain := build()
	woven := build()
	configure(t, registry.NewRegistry(), woven, domain.FieldGet|domain.FieldSet|domain.FieldChange|domain.OnCall|domain.OnMethodCalls, domain.IncludeInheritance)

	ctx := context.Background()
	for _, cls := range []*domain.Class{plain, woven} {
		obj := cls.New(map[string]any{"a": 1})

		v, err := obj.Get(ctx, "a")
		require.NoError(t, err, cls.Name())
		assert.Equal(t, 1, v)

		require.NoError(t, obj.Set(ctx, "b", 2))
		v, err = obj.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, 2, v)

		_, err = obj.Get(ctx, "missing")
		var notFound *domain.FieldNotFoundError
		assert.ErrorAs(t, err, &notFound)

		_, err = obj.Invoke(ctx, domain.Call())
		assert.ErrorIs(t, err, domain.ErrNotCallable)

		err = obj.Set(ctx, "locked", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field is locked")
	}
}

func TestWeave_Trigger(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	cls := domain.NewClass("Account",
		domain.WithMethod("Deposit", func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			return nil, self.Set(ctx, "balance", args.Arg(0))
		}),
	)
	configure(t, reg, cls, domain.FieldSet, 0, record.handle)
	obj := cls.New(nil)
	ctx := context.Background()

	_, err := obj.CallMethod(ctx, "Deposit", domain.Call(10))
	require.NoError(t, err)
	require.NoError(t, obj.Set(ctx, "balance", 20))
	require.NoError(t, obj.Set(domain.WithCaller(ctx, "script"), "balance", 30))

	require.Len(t, record.events, 3)

	byMethod := record.events[0].Trigger()
	assert.Equal(t, "Deposit", byMethod.Name)
	assert.True(t, byMethod.Resolved())

	external := record.events[1].Trigger()
	assert.Equal(t, domain.ExternalCaller, external.Name)
	assert.False(t, external.Resolved())

	named := record.events[2].Trigger()
	assert.Equal(t, "script", named.Name)
	assert.False(t, named.Resolved())
}

func TestWeave_FieldGetSlots(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	cls := domain.NewClass("Config",
		domain.WithSlot(domain.OpGetMissing, func(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
			return "default", nil
		}),
	)
	configure(t, reg, cls, domain.FieldGet, 0, record.handle)
	obj := cls.New(map[string]any{"present": 1})
	ctx := context.Background()

	v, err := obj.Get(ctx, "present")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = obj.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, "default", v)

	ops := make([]string, len(record.events))
	for i, ev := range record.events {
		ops[i] = ev.Operation()
		assert.Equal(t, domain.FieldGet, ev.Kind())
	}
	assert.Equal(t, []string{"getattr", "getattr", "getmissing"}, ops)
}

func TestWeave_Descriptors(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	celsius := domain.NewClass("Celsius",
		domain.WithSlot(domain.OpDescriptorGet, func(_ context.Context, self *domain.Object, _ domain.Args) (any, error) {
			v, _ := self.Peek("value")
			return v, nil
		}),
		domain.WithSlot(domain.OpDescriptorSet, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			return nil, self.Store(ctx, "value", args.Arg(1))
		}),
	)
	configure(t, reg, celsius, domain.FieldGet|domain.FieldSet, 0, record.handle)

	d := celsius.New(map[string]any{"value": 20})
	owner := domain.NewClass("Thermostat").New(map[string]any{"temperature": d})
	ctx := context.Background()

	v, err := owner.Get(ctx, "temperature")
	require.NoError(t, err)
	assert.Equal(t, 20, v)
	require.NoError(t, owner.Set(ctx, "temperature", 22))

	require.Len(t, record.events, 2)
	get, set := record.events[0], record.events[1]
	assert.Equal(t, "descriptor_get", get.Operation())
	assert.Same(t, d, get.Target())
	assert.Equal(t, []any{owner}, get.Args())
	assert.Equal(t, "descriptor_set", set.Operation())
	assert.Equal(t, []any{owner, 22}, set.Args())

	stored, _ := d.Peek("value")
	assert.Equal(t, 22, stored)
}

func TestWeave_MethodCalls(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	double := func(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
		return args.Arg(0).(int) * 2, nil
	}
	base := domain.NewClass("Calc",
		domain.WithMethod("Double", double),
		domain.WithMethod("__init__", func(context.Context, *domain.Object, domain.Args) (any, error) { return nil, nil }),
	)
	derived := domain.NewClass("SciCalc", domain.WithParent(base))
	configure(t, reg, base, domain.OnMethodCalls, 0, record.handle)

	// Defined after weaving: not observed.
	base.SetMethod("Triple", func(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
		return args.Arg(0).(int) * 3, nil
	})

	ctx := context.Background()
	obj := base.New(nil)
	v, err := obj.CallMethod(ctx, "Double", domain.Call(4))
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	_, err = obj.CallMethod(ctx, "Triple", domain.Call(1))
	require.NoError(t, err)
	_, err = obj.CallMethod(ctx, "__init__", domain.Call())
	require.NoError(t, err)

	// Method wrappers do not consult IncludeInheritance.
	sub := derived.New(nil)
	_, err = sub.CallMethod(ctx, "Double", domain.Call(1))
	require.NoError(t, err)

	require.Len(t, record.events, 2)
	ev := record.events[0]
	assert.Equal(t, domain.OnCall, ev.Kind())
	assert.Equal(t, "Double", ev.Operation())
	assert.Equal(t, "Double", ev.Trigger().Name)
	assert.Same(t, obj, ev.Target())
	assert.Equal(t, []any{4}, ev.Args())
	assert.Same(t, sub, record.events[1].Target())
}

func TestWeave_FieldChange(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	cls := domain.NewClass("Reactive")
	configure(t, reg, cls, domain.FieldChange, 0, record.handle)
	obj := cls.New(map[string]any{"x": 1})
	ctx := context.Background()

	require.NoError(t, obj.Set(ctx, "x", 1))
	assert.Empty(t, record.events, "same value is not a change")

	require.NoError(t, obj.Set(ctx, "x", 2))
	require.Len(t, record.events, 1)
	assert.Equal(t, domain.FieldChange, record.events[0].Kind())
	assert.Equal(t, []any{"x", 2}, record.events[0].Args())
	assert.Equal(t, map[string]any{"previous": 1}, record.events[0].Kwargs())

	require.NoError(t, obj.Set(ctx, "y", []int{1}))
	require.Len(t, record.events, 2)
	assert.Empty(t, record.events[1].Kwargs(), "new fields carry no previous value")

	require.NoError(t, obj.Set(ctx, "y", []int{1}))
	assert.Len(t, record.events, 2, "deeply equal values are not a change")
}

func TestWeave_FieldChangeThroughDescriptor(t *testing.T) {
	reg := registry.NewRegistry()
	changes := &recorder{}
	reads := &recorder{}
	celsius := domain.NewClass("Celsius",
		domain.WithSlot(domain.OpDescriptorGet, func(_ context.Context, self *domain.Object, _ domain.Args) (any, error) {
			v, _ := self.Peek("value")
			return v, nil
		}),
		domain.WithSlot(domain.OpDescriptorSet, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			return nil, self.Store(ctx, "value", args.Arg(1))
		}),
	)
	configure(t, reg, celsius, domain.FieldGet, 0, reads.handle)
	thermostat := domain.NewClass("Thermostat")
	configure(t, reg, thermostat, domain.FieldChange, 0, changes.handle)

	d := celsius.New(map[string]any{"value": 20})
	owner := thermostat.New(map[string]any{"temperature": d})
	ctx := context.Background()

	require.NoError(t, owner.Set(ctx, "temperature", 20))
	assert.Empty(t, changes.events, "the descriptor already holds 20")

	require.NoError(t, owner.Set(ctx, "temperature", 22))
	require.Len(t, changes.events, 1)
	assert.Equal(t, []any{"temperature", 22}, changes.events[0].Args())
	assert.Equal(t, map[string]any{"previous": 20}, changes.events[0].Kwargs())

	assert.Empty(t, reads.events, "comparing does not count as a read")
	stored, _ := owner.Peek("temperature")
	assert.Same(t, d, stored)
}

func TestWeave_FieldChangeThroughWriteOnlyDescriptor(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	sink := domain.NewClass("Sink",
		domain.WithSlot(domain.OpDescriptorSet, func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
			return nil, self.Store(ctx, "last", args.Arg(1))
		}),
	)
	cls := domain.NewClass("Owner")
	configure(t, reg, cls, domain.FieldChange, 0, record.handle)
	owner := cls.New(map[string]any{"out": sink.New(nil)})
	ctx := context.Background()

	require.NoError(t, owner.Set(ctx, "out", 1))
	require.NoError(t, owner.Set(ctx, "out", 1))
	require.Len(t, record.events, 2, "write-only descriptors always change")
	assert.Empty(t, record.events[0].Kwargs())
}

func TestWeave_FieldSetAndChangeShareTheSlot(t *testing.T) {
	reg := registry.NewRegistry()
	record := &recorder{}
	cls := domain.NewClass("Both")
	configure(t, reg, cls, domain.FieldSet|domain.FieldChange, 0, record.handle)

	require.NoError(t, cls.New(nil).Set(context.Background(), "x", 1))
	require.Len(t, record.events, 2)
	assert.Equal(t, domain.FieldSet, record.events[0].Kind())
	assert.Equal(t, domain.FieldChange, record.events[1].Kind())
}

func TestWeave_Idempotent(t *testing.T) {
	reg := registry.NewRegistry()
	first := &recorder{}
	second := &recorder{}
	cls := domain.NewClass("Twice",
		domain.WithMethod("Ping", func(context.Context, *domain.Object, domain.Args) (any, error) { return "pong", nil }),
	)
	add := domain.NewFunction("add", func(_ context.Context, _ *domain.Object, args domain.Args) (any, error) {
		return args.Arg(0).(int) + args.Arg(1).(int), nil
	})
	ctx := context.Background()

	configure(t, reg, cls, domain.FieldSet|domain.OnMethodCalls, 0, first.handle)
	configure(t, reg, cls, domain.FieldSet|domain.OnMethodCalls, 0, first.handle)
	configure(t, reg, add, domain.OnCall, 0, first.handle)
	configure(t, reg, add, domain.OnCall, 0, first.handle)

	obj := cls.New(nil)
	require.NoError(t, obj.Set(ctx, "x", 1))
	_, err := obj.CallMethod(ctx, "Ping", domain.Call())
	require.NoError(t, err)
	_, err = add.Call(ctx, domain.Call(1, 2))
	require.NoError(t, err)
	assert.Len(t, first.events, 3, "one notification per occurrence")

	// Re-configuration replaces handlers and events.
	configure(t, reg, cls, domain.OnMethodCalls, 0, second.handle)
	require.NoError(t, obj.Set(ctx, "x", 2))
	_, err = obj.CallMethod(ctx, "Ping", domain.Call())
	require.NoError(t, err)
	assert.Len(t, first.events, 3)
	require.Len(t, second.events, 1)
	assert.Equal(t, "Ping", second.events[0].Operation())
}

func TestWeave_SeparateRegistriesBothNotify(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	cls := domain.NewClass("Shared")
	configure(t, registry.NewRegistry(), cls, domain.FieldSet, 0, a.handle)
	configure(t, registry.NewRegistry(), cls, domain.FieldSet, 0, b.handle)

	require.NoError(t, cls.New(nil).Set(context.Background(), "x", 1))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

type otherTarget struct{}

func (otherTarget) TargetName() string      { return "other" }
func (otherTarget) Attr(string) (any, bool) { return nil, false }

func TestWeave_UnsupportedTarget(t *testing.T) {
	err := weaver.New(registry.NewRegistry(), nil).Weave(otherTarget{}, domain.OnCall)
	assert.ErrorIs(t, err, domain.ErrUnsupportedTarget)
}

func TestSlotsFor(t *testing.T) {
	tests := []struct {
		events domain.EventKind
		want   []domain.OpName
	}{
		{domain.OnCall, []domain.OpName{domain.OpCall}},
		{domain.FieldGet, []domain.OpName{domain.OpGetAttr, domain.OpGetMissing, domain.OpDescriptorGet}},
		{domain.FieldSet | domain.FieldChange, []domain.OpName{domain.OpSetAttr, domain.OpDescriptorSet}},
		{domain.FieldChange, []domain.OpName{domain.OpSetAttr}},
		{domain.OnMethodCalls, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.events), func(t *testing.T) {
			assert.Equal(t, tt.want, weaver.SlotsFor(tt.events))
		})
	}
}
