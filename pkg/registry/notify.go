package registry

import (
	"context"

	"github.com/aretw0/dispatch/pkg/domain"
)

// Notify calls handlers in order. The first error stops the chain and is
// returned unchanged.
func Notify(ctx context.Context, handlers []domain.Handler, ev domain.Event) error {
	for _, h := range handlers {
		if h == nil {
			continue
		}
		if err := h(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Chain combines handlers into one that notifies them in order.
func Chain(handlers ...domain.Handler) domain.Handler {
	return func(ctx context.Context, ev domain.Event) error {
		return Notify(ctx, handlers, ev)
	}
}
