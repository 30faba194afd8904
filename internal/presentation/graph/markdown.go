package graph

import (
	"fmt"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// GenerateMarkdown summarizes a graph as markdown: one table of nodes, one
// of flows, and the Mermaid diagram.
func GenerateMarkdown(g *domain.Graph) string {
	var sb strings.Builder
	title := g.ID
	if g.Name != "" && g.Name != g.ID {
		title = fmt.Sprintf("%s (%s)", g.Name, g.ID)
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("## Nodes\n\n")
	sb.WriteString("| ID | Type | Candidates | Multi-instance |\n")
	sb.WriteString("|----|------|------------|----------------|\n")
	for _, n := range g.Nodes {
		var candidates, loop string
		if n.UserTask != nil {
			candidates = strings.Join(append(append([]string{}, n.UserTask.CandidateUsers...), n.UserTask.CandidateGroups...), ", ")
		}
		switch {
		case n.Loop == nil:
		case n.Loop.Sequential:
			loop = "sequential"
		default:
			loop = "parallel"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", cell(n.ID), n.Type, cell(candidates), loop)
	}

	sb.WriteString("\n## Flows\n\n")
	sb.WriteString("| ID | From | To | Condition | Priority |\n")
	sb.WriteString("|----|------|----|-----------|----------|\n")
	for _, f := range g.Flows {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", cell(f.ID), cell(f.SourceRef), cell(f.TargetRef), cell(f.Condition), f.Priority)
	}

	sb.WriteString("\n```mermaid\n")
	sb.WriteString(GenerateMermaid(g, nil))
	sb.WriteString("```\n")
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
