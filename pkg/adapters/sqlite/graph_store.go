package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/google/uuid"
)

// GraphStore implements ports.GraphStore on a SQL table holding one row per
// process instance. Every save bumps the row revision.
//
// It expects an *sql.DB that uses a SQLite driver. Open registers
// "modernc.org/sqlite" for callers that do not bring their own.
type GraphStore struct {
	db *sql.DB
}

// NewGraphStore initializes the schema in db and returns the store.
func NewGraphStore(ctx context.Context, db *sql.DB) (*GraphStore, error) {
	s := &GraphStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GraphStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS process_graph (
			id TEXT PRIMARY KEY,
			proc_inst_id TEXT NOT NULL UNIQUE,
			rev INTEGER NOT NULL,
			bytes BLOB NOT NULL
		);`,
	)
	if err != nil {
		return fmt.Errorf("failed to create process_graph table: %w", err)
	}
	return nil
}

// Save creates the row of the instance or replaces its graph.
func (s *GraphStore) Save(ctx context.Context, processInstanceID string, graph *domain.Graph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO process_graph (id, proc_inst_id, rev, bytes)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (proc_inst_id) DO UPDATE SET rev = rev + 1, bytes = excluded.bytes`,
		uuid.NewString(),
		processInstanceID,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to save graph of %s: %w", processInstanceID, err)
	}
	return nil
}

// Load returns the graph of a process instance.
func (s *GraphStore) Load(ctx context.Context, processInstanceID string) (*domain.Graph, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT bytes FROM process_graph WHERE proc_inst_id = ?`,
		processInstanceID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGraphNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load graph of %s: %w", processInstanceID, err)
	}

	var graph domain.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// Revision returns how many times the graph of an instance was saved.
func (s *GraphStore) Revision(ctx context.Context, processInstanceID string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `
		SELECT rev FROM process_graph WHERE proc_inst_id = ?`,
		processInstanceID,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrGraphNotFound
	}
	return rev, err
}

// Delete removes the graph of an instance.
func (s *GraphStore) Delete(ctx context.Context, processInstanceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM process_graph WHERE proc_inst_id = ?`, processInstanceID)
	return err
}

// List returns the instances with a stored graph.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT proc_inst_id FROM process_graph ORDER BY proc_inst_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
