package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/routing"
)

// Overlay contains navigation state to visualize on the graph.
type Overlay struct {
	// Active lists the components of the committed snapshot.
	Active []string
	// Current is the component loaded deepest in the first viewport chain.
	Current string
}

// OverlayFromSnapshot marks every loaded component of snap as active.
func OverlayFromSnapshot(snap *domain.Snapshot) *Overlay {
	if snap == nil {
		return nil
	}
	o := &Overlay{}
	for _, vp := range snap.Viewports {
		o.Active = append(o.Active, vp.Component)
		o.Current = vp.Component
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the route table.
// It applies semantic styling:
// - Root: ((Circle))
// - Component with viewports: [[Subroutine]]
// - Default: [Rectangle]
// Configured routes are solid arrows labelled with their path; components
// reachable only by name under configured-first routing are dotted.
func GenerateMermaid(tree *routing.Tree, mode domain.RoutingMode, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, def := range tree.Definitions() {
		safeID := sanitizeMermaidID(def.Name)
		opener, closer := "[", "]"
		switch {
		case def == tree.Root.Component:
			opener, closer = "((", "))"
		case len(def.Viewports) > 1:
			opener, closer = "[[", "]]"
		}
		label := def.Name
		if len(def.Viewports) > 1 {
			label += " <br/> " + strings.Join(def.Viewports, " | ")
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range tree.Edges() {
		from := sanitizeMermaidID(e.From.Name)
		to := sanitizeMermaidID(e.To.Name())
		if !e.To.Configured {
			if mode == domain.RoutingConfiguredOnly {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, to))
			continue
		}
		label := e.To.Path
		if label == "" {
			label = "(default)"
		}
		if e.To.Viewport != "" {
			label += "@" + e.To.Viewport
		}
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, strings.ReplaceAll(label, "\"", "'"), to))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Active {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && safeID != "" && name != overlay.Current {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s active;\n", safeID))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
