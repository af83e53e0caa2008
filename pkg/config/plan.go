// Package config loads declarative weaving plans: which targets to
// configure, with which events, behavior and named handlers.
//
//	targets:
//	  - name: Account
//	    events: [field_set, on_method_calls]
//	    behavior: [include_inheritance]
//	    handlers: [audit]
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/aretw0/dispatch"
	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan wraps every validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// TargetPlan configures one target.
type TargetPlan struct {
	Name     string             `mapstructure:"name"`
	Events   []domain.EventKind `mapstructure:"events"`
	Behavior []domain.Behavior  `mapstructure:"behavior"`
	Handlers []string           `mapstructure:"handlers"`
}

// EventSet combines the listed events.
func (t TargetPlan) EventSet() domain.EventKind {
	var out domain.EventKind
	for _, e := range t.Events {
		out |= e
	}
	return out
}

// BehaviorSet combines the listed behaviors.
func (t TargetPlan) BehaviorSet() domain.Behavior {
	var out domain.Behavior
	for _, b := range t.Behavior {
		out |= b
	}
	return out
}

// Plan is a list of target configurations, applied in order.
type Plan struct {
	Targets []TargetPlan `mapstructure:"targets"`
}

// Catalog maps target names to targets.
type Catalog map[string]domain.Target

// Load reads a plan from a YAML file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML plan.
func Parse(data []byte) (*Plan, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	var plan Plan
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(kindHook),
		ErrorUnused: true,
		Result:      &plan,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

var (
	eventKindType = reflect.TypeOf(domain.EventKind(0))
	behaviorType  = reflect.TypeOf(domain.Behavior(0))
)

// kindHook turns names such as "field_set" into typed flags.
func kindHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case eventKindType:
		return domain.ParseEventKind(data.(string))
	case behaviorType:
		return domain.ParseBehavior(data.(string))
	}
	return data, nil
}

// Validate checks names and events without looking at any target.
func (p *Plan) Validate() error {
	seen := make(map[string]bool, len(p.Targets))
	for i, t := range p.Targets {
		if t.Name == "" {
			return fmt.Errorf("%w: target #%d has no name", ErrInvalidPlan, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: target %s listed twice", ErrInvalidPlan, t.Name)
		}
		seen[t.Name] = true
		if t.EventSet() == 0 {
			return fmt.Errorf("%w: target %s has no events", ErrInvalidPlan, t.Name)
		}
	}
	return nil
}

// Check validates the plan against a catalog: every target must exist,
// functions may only request OnCall and every handler name must resolve on
// its target.
func (p *Plan) Check(cat Catalog) error {
	for _, t := range p.Targets {
		target, ok := cat[t.Name]
		if !ok {
			return fmt.Errorf("%w: unknown target %s", ErrInvalidPlan, t.Name)
		}
		if _, isFunc := target.(*domain.Function); isFunc {
			if err := domain.CheckFunctionEvents(t.Name, t.EventSet()); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
			}
		}
		if _, err := registry.Resolve(target, t.entries()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
		}
	}
	return nil
}

func (t TargetPlan) entries(extra ...domain.Handler) []domain.HandlerEntry {
	entries := make([]domain.HandlerEntry, 0, len(t.Handlers)+len(extra))
	for _, name := range t.Handlers {
		entries = append(entries, domain.Named(name))
	}
	for _, h := range extra {
		entries = append(entries, domain.Func(h))
	}
	return entries
}

// Apply configures every target of the plan through d. Handler names are
// resolved on each target; extra handlers are appended to all of them. The
// plan is checked first, so a failing plan leaves every target untouched.
func (p *Plan) Apply(d *dispatch.Dispatcher, cat Catalog, extra ...domain.Handler) error {
	if err := p.Check(cat); err != nil {
		return err
	}
	for _, t := range p.Targets {
		if _, err := d.Dispatch(t.EventSet(), t.BehaviorSet(), t.entries(extra...)...).Apply(cat[t.Name]); err != nil {
			return err
		}
	}
	return nil
}
