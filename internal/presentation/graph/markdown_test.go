package graph_test

import (
	"strings"
	"testing"

	"github.com/fangliji/flowable-engine/internal/presentation/graph"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMarkdown(t *testing.T) {
	got := graph.GenerateMarkdown(sample())

	assert.True(t, strings.HasPrefix(got, "# leave\n"))
	assert.Contains(t, got, "| approve | userTask | u1,u2 | parallel |")
	assert.Contains(t, got, "| route | exclusiveGateway |  |  |")
	assert.Contains(t, got, `| toEscalate | route | escalate.hr | ${kind == "long"} |  |`)
	assert.Contains(t, got, "```mermaid\ngraph TD\n")
	assert.True(t, strings.HasSuffix(got, "```\n"))
}

func TestGenerateMarkdown_NamedTitle(t *testing.T) {
	g := sample()
	g.Name = "Leave request"

	got := graph.GenerateMarkdown(g)
	assert.True(t, strings.HasPrefix(got, "# Leave request (leave)\n"), got)
}
