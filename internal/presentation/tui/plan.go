package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/dispatch/internal/weaver"
	"github.com/aretw0/dispatch/pkg/config"
	"github.com/aretw0/dispatch/pkg/domain"
)

// DescribePlan renders plan as markdown. Targets found in cat are described
// with the slots and methods that weaving them would wrap.
func DescribePlan(plan *config.Plan, cat config.Catalog) string {
	var sb strings.Builder
	sb.WriteString("# Weaving plan\n\n")
	if len(plan.Targets) == 0 {
		sb.WriteString("_No targets._\n")
		return sb.String()
	}

	sb.WriteString("| Target | Type | Events | Behavior | Handlers |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, t := range plan.Targets {
		handlers := "-"
		if len(t.Handlers) > 0 {
			handlers = strings.Join(t.Handlers, ", ")
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			t.Name, targetType(cat[t.Name]), eventList(t.EventSet()), t.BehaviorSet(), handlers)
	}

	for _, t := range plan.Targets {
		cls, ok := cat[t.Name].(*domain.Class)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", t.Name)
		if p := cls.Parent(); p != nil {
			fmt.Fprintf(&sb, "Subclass of `%s`.\n\n", p.Name())
		}
		slots := weaver.SlotsFor(t.EventSet())
		if len(slots) > 0 {
			names := make([]string, len(slots))
			for i, op := range slots {
				names[i] = "`" + string(op) + "`"
			}
			fmt.Fprintf(&sb, "- Slots: %s\n", strings.Join(names, ", "))
		}
		if t.EventSet().Has(domain.OnMethodCalls) {
			fmt.Fprintf(&sb, "- Methods: %s\n", strings.Join(cls.MethodNames(), ", "))
		}
		if t.BehaviorSet().Has(domain.IncludeInheritance) {
			sb.WriteString("- Subclass instances notify too.\n")
		}
	}
	return sb.String()
}

func targetType(t domain.Target) string {
	switch t.(type) {
	case *domain.Class:
		return "class"
	case *domain.Function:
		return "function"
	case nil:
		return "unknown"
	}
	return fmt.Sprintf("%T", t)
}

func eventList(events domain.EventKind) string {
	return strings.ReplaceAll(events.String(), "|", ", ")
}
