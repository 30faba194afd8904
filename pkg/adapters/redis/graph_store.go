package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fangliji/flowable-engine/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// GraphStore implements ports.GraphStore using Redis.
// Graphs are stored as JSON documents and indexed in a sorted set scored by
// expiry so that List can prune lazily.
type GraphStore struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*GraphStore)

// WithTTL sets the expiration of stored graphs. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *GraphStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for graphs.
func WithPrefix(prefix string) Option {
	return func(s *GraphStore) {
		s.prefix = prefix
	}
}

// New creates a graph store with its own client.
func New(address, password string, db int, opts ...Option) *GraphStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a graph store from an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *GraphStore {
	store := &GraphStore{
		client: client,
		prefix: "flowable:graph:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *GraphStore) key(processInstanceID string) string {
	return s.prefix + processInstanceID
}

func (s *GraphStore) indexKey() string {
	return s.prefix + "index"
}

// Save persists the graph as JSON.
func (s *GraphStore) Save(ctx context.Context, processInstanceID string, graph *domain.Graph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(processInstanceID), data, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: processInstanceID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save graph to redis: %w", err)
	}
	return nil
}

// Load retrieves the graph of a process instance.
func (s *GraphStore) Load(ctx context.Context, processInstanceID string) (*domain.Graph, error) {
	val, err := s.client.Get(ctx, s.key(processInstanceID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to get graph from redis: %w", err)
	}

	var graph domain.Graph
	if err := json.Unmarshal(val, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// Delete removes the graph and its index entry.
func (s *GraphStore) Delete(ctx context.Context, processInstanceID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(processInstanceID))
	pipe.ZRem(ctx, s.indexKey(), processInstanceID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the instances with a stored graph, pruning expired entries.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired graphs: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *GraphStore) Close() error {
	return s.client.Close()
}
