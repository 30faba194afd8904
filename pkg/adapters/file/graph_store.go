package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// GraphStore implements ports.GraphStore using the local filesystem.
// It stores one JSON file per process instance in a configured directory.
type GraphStore struct {
	BasePath string
}

// NewGraphStore creates a store rooted at basePath.
// If basePath is empty, it defaults to ".flowable/graphs".
func NewGraphStore(basePath string) *GraphStore {
	if basePath == "" {
		basePath = filepath.Join(".flowable", "graphs")
	}
	return &GraphStore{BasePath: basePath}
}

func (s *GraphStore) path(processInstanceID string) (string, error) {
	if processInstanceID == "" {
		return "", fmt.Errorf("processInstanceID cannot be empty")
	}
	if strings.ContainsAny(processInstanceID, `/\`) {
		return "", fmt.Errorf("invalid processInstanceID %q", processInstanceID)
	}
	return filepath.Join(s.BasePath, processInstanceID+".json"), nil
}

// Save persists the graph atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *GraphStore) Save(ctx context.Context, processInstanceID string, graph *domain.Graph) error {
	destPath, err := s.path(processInstanceID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	// Same directory as the destination so that the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+processInstanceID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing graph file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves the graph of a process instance.
func (s *GraphStore) Load(ctx context.Context, processInstanceID string) (*domain.Graph, error) {
	filePath, err := s.path(processInstanceID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var graph domain.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// Delete removes the graph file.
func (s *GraphStore) Delete(ctx context.Context, processInstanceID string) error {
	filePath, err := s.path(processInstanceID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete graph file: %w", err)
	}
	return nil
}

// List returns the instances with a stored graph.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
