package dispatch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dispatch/internal/weaver"
	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/registry"
)

// Version is the library version reported by the CLI.
const Version = "0.3.0"

// Dispatcher configures targets against one registry.
type Dispatcher struct {
	registry *registry.Registry
	weaver   *weaver.Weaver
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRegistry stores handler configuration in reg instead of the default registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = reg
	}
}

// New creates a Dispatcher. By default it uses the process-wide registry and
// discards logs.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = registry.Default()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("component", "dispatch")
	d.weaver = weaver.New(d.registry, d.logger)
	return d
}

// Registry returns the side table the dispatcher writes to.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Configurator applies one configuration to targets.
type Configurator struct {
	d        *Dispatcher
	events   domain.EventKind
	behavior domain.Behavior
	handlers []domain.HandlerEntry
}

// Dispatch prepares a configuration: which events to observe, how they
// compose with inheritance, and which handlers to notify, in order.
func (d *Dispatcher) Dispatch(events domain.EventKind, behavior domain.Behavior, handlers ...domain.HandlerEntry) Configurator {
	return Configurator{d: d, events: events, behavior: behavior, handlers: handlers}
}

// Apply configures target and returns it. Nothing is modified when the
// events do not fit the target or a named handler cannot be resolved.
func (c Configurator) Apply(target domain.Target) (domain.Target, error) {
	d := c.d
	switch t := target.(type) {
	case *domain.Function:
		if err := domain.CheckFunctionEvents(t.Name(), c.events); err != nil {
			return target, err
		}
	case *domain.Class:
	default:
		return target, fmt.Errorf("%w: %T", domain.ErrUnsupportedTarget, target)
	}

	handlers, err := registry.Resolve(target, c.handlers)
	if err != nil {
		return target, fmt.Errorf("configure %s: %w", target.TargetName(), err)
	}

	d.registry.Attach(target, registry.Config{
		Events:   c.events,
		Behavior: c.behavior,
		Handlers: handlers,
	})
	if err := d.weaver.Weave(target, c.events); err != nil {
		return target, err
	}

	d.logger.Debug("target configured",
		"target", target.TargetName(),
		"events", c.events.String(),
		"behavior", c.behavior.String(),
		"handlers", len(handlers),
	)
	return target, nil
}

// Decorate applies c to t and returns t with its concrete type.
func Decorate[T domain.Target](c Configurator, t T) (T, error) {
	if _, err := c.Apply(t); err != nil {
		return t, err
	}
	return t, nil
}

// MustDecorate is like Decorate but panics on configuration errors. It is
// meant for package-level definitions.
func MustDecorate[T domain.Target](c Configurator, t T) T {
	out, err := Decorate(c, t)
	if err != nil {
		panic(err)
	}
	return out
}

var defaultDispatcher = New()

// Dispatch prepares a configuration on the default registry.
func Dispatch(events domain.EventKind, behavior domain.Behavior, handlers ...domain.HandlerEntry) Configurator {
	return defaultDispatcher.Dispatch(events, behavior, handlers...)
}

// Dispatchers returns the handlers configured for target on the default
// registry, or an empty slice.
func Dispatchers(target domain.Target) []domain.Handler {
	return registry.Default().Dispatchers(target)
}
