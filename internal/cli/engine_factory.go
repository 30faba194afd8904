package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fangliji/flowable-engine"
	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/fangliji/flowable-engine/pkg/adapters/file"
	httpAdapter "github.com/fangliji/flowable-engine/pkg/adapters/http"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/adapters/redis"
	"github.com/fangliji/flowable-engine/pkg/adapters/sqlite"
	"github.com/fangliji/flowable-engine/pkg/observability"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
)

// Runtime is an engine assembled from a configuration, with the pieces the
// HTTP server needs next to it.
type Runtime struct {
	Engine  *flowable.Engine
	Streams *httpAdapter.StreamManager
	Metrics http.Handler // nil unless metrics are enabled
	Logger  *slog.Logger

	closers []io.Closer
}

// Handler returns the HTTP handler serving the runtime.
func (r *Runtime) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(r.Streams),
		httpAdapter.WithLogger(r.Logger),
	}
	if r.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(r.Metrics))
	}
	return httpAdapter.NewHandler(r.Engine, opts...)
}

// Close releases the store connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// createEngine initializes an engine with the stores, hooks and metrics
// selected by cfg, and deploys cfg.Definitions when set.
func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	graphs, leases, err := rt.createStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt.Streams = httpAdapter.NewStreamManager(logger)
	engineOpts := []flowable.Option{
		flowable.WithLogger(logger),
		flowable.WithGraphStore(graphs),
		flowable.WithLeaseStore(leases),
		flowable.WithLockTTL(cfg.Lock.TTL),
		flowable.WithSkipExpressions(cfg.SkipExpressions),
		flowable.WithDistributedCommands(cfg.Lock.Distributed),
		flowable.WithLifecycleHooks(rt.Streams.Hooks()),
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		engineOpts = append(engineOpts, flowable.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		engineOpts = append(engineOpts, flowable.WithLifecycleHooks(observability.NewMetrics(reg).Hooks()))
		rt.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	rt.Engine, err = flowable.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	if cfg.Definitions != "" {
		if _, err := rt.Engine.DeployDir(ctx, cfg.Definitions); err != nil {
			return nil, err
		}
	}

	ok = true
	return rt, nil
}

// createStores picks the graph store from cfg.Store. Leases live in Redis
// whenever an address is configured, next to the graphs for SQLite, and in
// memory otherwise.
func (rt *Runtime) createStores(ctx context.Context, cfg *config.Config) (ports.GraphStore, ports.LeaseStore, error) {
	var client backend.UniversalClient
	if cfg.Redis.Addr != "" {
		rdb := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, rdb)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		client = rdb
	}

	var graphs ports.GraphStore
	var leases ports.LeaseStore
	switch cfg.Store.Graph {
	case config.StoreRedis:
		graphs = redis.NewFromClient(client, redis.WithPrefix(cfg.Redis.Prefix+"graph:"))
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, db)
		if graphs, err = sqlite.NewGraphStore(ctx, db); err != nil {
			return nil, nil, err
		}
		if client == nil {
			if leases, err = sqlite.NewLeaseStore(ctx, db); err != nil {
				return nil, nil, err
			}
		}
	case config.StoreFile:
		graphs = file.NewGraphStore(cfg.Store.Dir)
	default:
		graphs = memory.NewGraphStore()
	}

	switch {
	case client != nil:
		leases = redis.NewLeaseStore(client, cfg.Redis.Prefix+"lease:")
	case leases == nil:
		leases = memory.NewLeaseStore()
	}
	rt.Logger.Debug("stores selected", "graph", cfg.Store.Graph, "redis", client != nil)
	return graphs, leases, nil
}
