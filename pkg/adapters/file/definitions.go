package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fangliji/flowable-engine/internal/dto"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

var definitionExts = []string{".yaml", ".yml", ".json"}

// LoadDefinition reads and validates one definition file.
func LoadDefinition(path string) (*dto.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := dto.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := graph.Validate(def.ToGraph()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadDefinitions reads every definition file of dir in name order.
func LoadDefinitions(dir string) ([]*dto.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	var defs []*dto.Definition
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(definitionExts, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		def, err := LoadDefinition(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// DeployDir deploys every definition of dir as a new version.
func DeployDir(ctx context.Context, repo ports.DefinitionRepository, dir string) ([]*domain.ProcessDefinition, error) {
	defs, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}

	deployed := make([]*domain.ProcessDefinition, 0, len(defs))
	for _, def := range defs {
		pd, err := repo.Deploy(ctx, def.ProcessDefinition(), def.ToGraph())
		if err != nil {
			return nil, fmt.Errorf("failed to deploy %s: %w", def.Key, err)
		}
		deployed = append(deployed, pd)
	}
	return deployed, nil
}
