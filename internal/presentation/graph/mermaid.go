package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/registry"
)

// GraphOverlay contains runtime data to visualize on the diagram.
type GraphOverlay struct {
	// Observed lists the targets that produced at least one event.
	Observed []string
}

// GenerateMermaid produces a Mermaid class diagram of the targets configured
// in reg. It applies semantic styling:
// - Functions: <<function>> annotation
// - Classes: one member per method, inheritance edges to their parent
// - Configuration: a note with the events and behavior
// It also highlights observed targets if an overlay is provided.
func GenerateMermaid(reg *registry.Registry, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	for _, t := range reg.Targets() {
		safeID := sanitizeMermaidID(t.TargetName())
		cfg, _ := reg.Config(t)

		switch x := t.(type) {
		case *domain.Function:
			fmt.Fprintf(&sb, "    class %s {\n        <<function>>\n    }\n", safeID)
		case *domain.Class:
			fmt.Fprintf(&sb, "    class %s {\n", safeID)
			for _, m := range x.MethodNames() {
				fmt.Fprintf(&sb, "        +%s()\n", m)
			}
			sb.WriteString("    }\n")
			if p := x.Parent(); p != nil {
				fmt.Fprintf(&sb, "    %s <|-- %s\n", sanitizeMermaidID(p.Name()), safeID)
			}
		}

		note := strings.ReplaceAll(cfg.Events.String(), "|", ", ")
		if cfg.Behavior.Has(domain.IncludeInheritance) {
			note += "<br/>" + cfg.Behavior.String()
		}
		fmt.Fprintf(&sb, "    note for %s \"%s\"\n", safeID, note)
	}

	if overlay != nil && len(overlay.Observed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef observed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Observed {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    cssClass \"%s\" observed\n", safeID)
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "<", "_")
	s = strings.ReplaceAll(s, ">", "_")
	return s
}
