/*
Package dispatch attaches event handlers to classes and functions without
changing their behavior.

A target is configured once with the kinds of events to observe, an optional
behavior flag and an ordered list of handlers. From then on every matching
occurrence (a field read, a field write, a call) builds an immutable Event and
hands it to each handler before the original operation runs.

# Concept

Targets are explicit values: a domain.Class holds the operation slots of its
instances, a domain.Function wraps a single operation. Configuring a target
replaces those slots with wrappers that consult a registry on every call, so
re-configuring later swaps handlers in place and never wraps twice.

Handlers run synchronously, in registration order. The first handler error
aborts the occurrence: later handlers and the original operation do not run.
Errors raised by a class operation itself are wrapped in a
domain.OperationError that still matches the original with errors.Is and
errors.As.

# Usage

	account := domain.NewClass("Account",
		domain.WithAttr("audit", auditHandler),
	)

	_, err := dispatch.Dispatch(
		domain.FieldSet|domain.OnMethodCalls,
		domain.IncludeInheritance,
		domain.Named("audit"),
	).Apply(account)
	if err != nil {
		log.Fatal(err)
	}

Named handlers are resolved against the target's attributes when the
configuration is applied. A missing name fails the whole configuration and
leaves the target untouched.
*/
package dispatch
