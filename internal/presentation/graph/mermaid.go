package graph

import (
	"fmt"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// GraphOverlay contains live instance data to visualize on the graph.
type GraphOverlay struct {
	CompletedNodes []string
	ActiveNodes    []string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a graph.
// It applies semantic styling:
// - Start/End events: ((Circle)) / (((Double circle)))
// - Exclusive gateway: {Rhombus}
// - Multi-instance user task: [[Subroutine]]
// - User task: [Rectangle]
// Nodes edited at runtime are dashed and nodes pending deletion are greyed
// out. Overlay styles (Completed/Active) are applied if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var edited, pending []string
	for _, node := range g.Nodes {
		// Sanitize ID for Mermaid
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.Type == domain.ElementStartEvent:
			opener, closer = "((", "))"
		case node.Type == domain.ElementEndEvent:
			opener, closer = "(((", ")))"
		case node.Type == domain.ElementExclusiveGateway:
			opener, closer = "{", "}"
		case node.IsMultiInstance():
			opener, closer = "[[", "]]"
		}

		label := node.ID
		if node.Name != "" && node.Name != node.ID {
			label = node.Name + " <br/> " + node.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		switch node.EditState {
		case domain.EditStateEdited:
			edited = append(edited, safeID)
		case domain.EditStatePendingDelete:
			pending = append(pending, safeID)
		}
	}

	for _, f := range g.Flows {
		arrow := "-->"
		if src := g.Node(f.SourceRef); src != nil && src.DefaultFlow == f.ID {
			arrow = "-. default .->"
		}
		if f.Condition != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(f.Condition))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(f.SourceRef), arrow, sanitizeMermaidID(f.TargetRef))
	}

	if len(edited) > 0 || len(pending) > 0 {
		sb.WriteString("\n    %% Edit Styles\n")
		sb.WriteString("    classDef edited stroke-dasharray: 5 5;\n")
		sb.WriteString("    classDef pending fill:#eeeeee,stroke:#9e9e9e,color:#9e9e9e;\n")
		for _, id := range edited {
			fmt.Fprintf(&sb, "    class %s edited;\n", id)
		}
		for _, id := range pending {
			fmt.Fprintf(&sb, "    class %s pending;\n", id)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.CompletedNodes {
			// Only style nodes that still exist (deleted tasks stay in history)
			if g.Node(id) == nil || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s completed;\n", sanitizeMermaidID(id))
		}
		seen = make(map[string]bool)
		for _, id := range overlay.ActiveNodes {
			if g.Node(id) == nil || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(id))
		}
	}

	return sb.String()
}

// OverlayFromExecutions marks the nodes active executions currently wait in.
func OverlayFromExecutions(execs []*domain.Execution) *GraphOverlay {
	overlay := &GraphOverlay{}
	for _, e := range execs {
		if e.CurrentElementID == "" || e.IsEnded {
			continue
		}
		if e.IsActive {
			overlay.ActiveNodes = append(overlay.ActiveNodes, e.CurrentElementID)
		}
	}
	return overlay
}

// Escape double quotes for Mermaid labels.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	// "end" is a Mermaid keyword
	if strings.EqualFold(s, "end") {
		s += "_"
	}
	return s
}
