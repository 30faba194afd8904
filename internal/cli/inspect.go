package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/fangliji/flowable-engine/internal/dto"
	"github.com/fangliji/flowable-engine/internal/presentation/graph"
	"github.com/fangliji/flowable-engine/internal/presentation/tui"
	"github.com/fangliji/flowable-engine/pkg/adapters/file"
)

// loadDefinitions reads one definition file, or every definition of a directory.
func loadDefinitions(path string) ([]*dto.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return file.LoadDefinitions(path)
	}
	def, err := file.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	return []*dto.Definition{def}, nil
}

// Validate checks the definitions under path and reports each one.
func Validate(path string, w io.Writer) error {
	defs, err := loadDefinitions(path)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no definitions found in %s", path)
	}
	for _, def := range defs {
		fmt.Fprintf(w, "%s: %d nodes, %d flows\n", def.Key, len(def.Nodes), len(def.Flows))
	}
	return nil
}

// Graph writes the Mermaid diagram of every definition under path.
func Graph(path string, w io.Writer) error {
	defs, err := loadDefinitions(path)
	if err != nil {
		return err
	}
	for i, def := range defs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, graph.GenerateMermaid(def.ToGraph(), nil))
	}
	return nil
}

// Describe writes a markdown summary of every definition under path,
// styled for the terminal when styled is set.
func Describe(path string, w io.Writer, styled bool, width int) error {
	defs, err := loadDefinitions(path)
	if err != nil {
		return err
	}
	render := tui.NewRenderer(styled, width)
	for _, def := range defs {
		out, err := render(graph.GenerateMarkdown(def.ToGraph()))
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
	}
	return nil
}

// Lease prints the lease status of a process instance as JSON. Only shared
// lease stores (redis, sqlite) hold leases of other processes.
func Lease(ctx context.Context, cfg *config.Config, processInstanceID string, w io.Writer) error {
	rt, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	st, err := rt.Engine.Lease(ctx, processInstanceID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
