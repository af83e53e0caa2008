// Package weaver installs interception wrappers around the operations of
// dispatch targets.
//
// Wrappers are permanent. They read the target's configuration from the
// registry on every call, so re-configuring a target changes which handlers
// run and which kinds notify without wrapping any operation twice.
package weaver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/registry"
)

// slotTable maps each event kind to the class slots that implement it.
// Adding a kind only means extending this table.
var slotTable = []struct {
	kind domain.EventKind
	ops  []domain.OpName
}{
	{domain.OnCall, []domain.OpName{domain.OpCall}},
	{domain.FieldGet, []domain.OpName{domain.OpGetAttr, domain.OpGetMissing, domain.OpDescriptorGet}},
	{domain.FieldSet, []domain.OpName{domain.OpSetAttr, domain.OpDescriptorSet}},
	{domain.FieldChange, []domain.OpName{domain.OpSetAttr}},
}

// Weaver installs wrappers whose handlers come from a registry.
type Weaver struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// New creates a weaver bound to reg.
func New(reg *registry.Registry, logger *slog.Logger) *Weaver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Weaver{registry: reg, logger: logger}
}

// Weave wraps the operations of target that implement events.
func (w *Weaver) Weave(target domain.Target, events domain.EventKind) error {
	switch t := target.(type) {
	case *domain.Function:
		w.weaveFunction(t, events)
		return nil
	case *domain.Class:
		w.weaveClass(t, events)
		return nil
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedTarget, target)
	}
}

func (w *Weaver) weaveFunction(f *domain.Function, events domain.EventKind) {
	if !events.Has(domain.OnCall) {
		return
	}
	if !w.registry.Claim(f, "call") {
		w.logger.Debug("function already woven", "target", f.Name())
		return
	}
	f.SetOperation(w.wrapCall(f, f.Name(), domain.OnCall, f.Operation()))
	w.logger.Debug("function woven", "target", f.Name())
}

func (w *Weaver) weaveClass(cls *domain.Class, events domain.EventKind) {
	for _, op := range SlotsFor(events) {
		if !w.registry.Claim(cls, "slot:"+string(op)) {
			w.logger.Debug("slot already woven", "target", cls.Name(), "op", op)
			continue
		}
		original := cls.Slot(op)
		cls.SetSlot(op, w.wrapSlot(cls, op, original))
		w.logger.Debug("slot woven", "target", cls.Name(), "op", op, "has_original", original != nil)
	}

	if !events.Has(domain.OnMethodCalls) {
		return
	}
	// Methods defined after this point are not wrapped.
	for _, name := range cls.MethodNames() {
		if isSpecial(name) || !w.registry.Claim(cls, "method:"+name) {
			continue
		}
		m, _ := cls.Method(name)
		cls.SetMethod(name, w.wrapCall(cls, name, domain.OnMethodCalls, m))
		w.logger.Debug("method woven", "target", cls.Name(), "method", name)
	}
}

// wrapCall wraps a function or method. It notifies OnCall events while gate
// is configured on target, then runs original unchanged.
func (w *Weaver) wrapCall(target domain.Target, name string, gate domain.EventKind, original domain.Operation) domain.Operation {
	return func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
		cfg, _ := w.registry.Config(target)
		if cfg.Events.Has(gate) && !isQuiet(ctx) {
			ev := domain.NewEvent(domain.EventSpec{
				Kind:       domain.OnCall,
				TargetName: target.TargetName(),
				Operation:  name,
				Target:     self,
				Original:   original,
				Trigger:    domain.Trigger{Name: name, Op: original},
				Args:       args,
			})
			if err := registry.Notify(ctx, cfg.Handlers, ev); err != nil {
				return nil, err
			}
		}
		return original(ctx, self, args)
	}
}

// wrapSlot wraps one class slot. original may be nil, in which case the
// wrapper hands control back to the default object behavior.
func (w *Weaver) wrapSlot(cls *domain.Class, op domain.OpName, original domain.Operation) domain.Operation {
	kinds := kindsFor(op)
	return func(ctx context.Context, self *domain.Object, args domain.Args) (any, error) {
		cfg, _ := w.registry.Config(cls)
		if self != nil && !isQuiet(ctx) && (self.Class() == cls || cfg.Behavior.Has(domain.IncludeInheritance)) {
			trigger := resolveTrigger(ctx, self)
			for _, kind := range kinds {
				if !cfg.Events.Has(kind) {
					continue
				}
				evArgs := args
				if kind == domain.FieldChange {
					changed, prev, existed := fieldChanged(ctx, self, args)
					if !changed {
						continue
					}
					if existed {
						evArgs = args.With("previous", prev)
					}
				}
				ev := domain.NewEvent(domain.EventSpec{
					Kind:       kind,
					TargetName: cls.Name(),
					Operation:  string(op),
					Target:     self,
					Original:   original,
					Trigger:    trigger,
					Args:       evArgs,
				})
				if err := registry.Notify(ctx, cfg.Handlers, ev); err != nil {
					return nil, err
				}
			}
		}

		if original == nil {
			return nil, domain.ErrFallback
		}
		v, err := original(ctx, self, args)
		if err != nil && !errors.Is(err, domain.ErrFallback) {
			return nil, &domain.OperationError{Class: cls.Name(), Op: string(op), Args: args.Clone(), Err: err}
		}
		return v, err
	}
}

// SlotsFor lists the class slots that implement events, without duplicates.
func SlotsFor(events domain.EventKind) []domain.OpName {
	seen := make(map[domain.OpName]bool)
	var ops []domain.OpName
	for _, row := range slotTable {
		if !events.Has(row.kind) {
			continue
		}
		for _, op := range row.ops {
			if !seen[op] {
				seen[op] = true
				ops = append(ops, op)
			}
		}
	}
	return ops
}

func kindsFor(op domain.OpName) []domain.EventKind {
	var kinds []domain.EventKind
	for _, row := range slotTable {
		for _, o := range row.ops {
			if o == op {
				kinds = append(kinds, row.kind)
			}
		}
	}
	return kinds
}

// resolveTrigger turns the caller recorded in ctx into a method of the
// receiver's class when one has that name.
func resolveTrigger(ctx context.Context, self *domain.Object) domain.Trigger {
	name := domain.CallerFrom(ctx)
	if m, ok := self.Class().Method(name); ok {
		return domain.Trigger{Name: name, Op: m}
	}
	return domain.Trigger{Name: name}
}

// fieldChanged compares the current value of the field being written with
// the new one. Absent fields always count as changed. When the field holds a
// descriptor that takes over writes, its current value is the one its
// descriptor_get reports, read without notifying; a write-only descriptor
// always counts as changed.
func fieldChanged(ctx context.Context, self *domain.Object, args domain.Args) (changed bool, prev any, existed bool) {
	name, ok := args.Arg(0).(string)
	if !ok {
		return true, nil, false
	}
	prev, existed = self.Peek(name)
	if !existed {
		return true, nil, false
	}
	if d, isObj := prev.(*domain.Object); isObj && d.Class().Slot(domain.OpDescriptorSet) != nil {
		if d.Class().Slot(domain.OpDescriptorGet) == nil {
			return true, nil, false
		}
		cur, err := self.Lookup(quiet(ctx), name)
		if err != nil {
			return true, nil, false
		}
		prev = cur
	}
	return !reflect.DeepEqual(prev, args.Arg(1)), prev, true
}

type quietKey struct{}

// quiet marks ctx so that woven operations run their originals without
// notifying.
func quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

func isQuiet(ctx context.Context) bool {
	q, _ := ctx.Value(quietKey{}).(bool)
	return q
}

func isSpecial(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
