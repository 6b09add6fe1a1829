package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/liveglobe/liveglobe/internal/config"
)

// Opener creates a ready-to-ping handle. The gateway calls it at most once
// per successful connect.
type Opener func(ctx context.Context) (*sql.DB, error)

// Option customises a Gateway.
type Option func(*Gateway)

// WithHooks appends query hooks.
func WithHooks(hooks ...Hook) Option {
	return func(g *Gateway) { g.hooks = append(g.hooks, newHookChain(hooks)...) }
}

// WithSecretFetcher replaces the AWS Secrets Manager lookup used for the
// databricks token.
func WithSecretFetcher(f SecretFetcher) Option {
	return func(g *Gateway) { g.fetch = f }
}

// WithDollarPlaceholders rewrites ? placeholders to $n before execution.
func WithDollarPlaceholders() Option {
	return func(g *Gateway) { g.rebind = rebindDollar }
}

// Gateway owns the single warehouse handle for the process. The handle is
// opened lazily on first use and then reused by every invocation; a failed
// connect is not cached so the next caller tries again.
//
// Gateway is safe for concurrent use: *sql.DB pools its own connections.
type Gateway struct {
	open   Opener
	fetch  SecretFetcher
	hooks  hookChain
	rebind func(string) string

	mu sync.Mutex
	db *sql.DB
}

// New returns a Gateway for cfg. Nothing is dialled until the first
// Connect or Query.
func New(cfg config.WarehouseConfig, opts ...Option) (*Gateway, error) {
	switch cfg.Driver {
	case "databricks", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	g := &Gateway{}
	if cfg.Driver == "postgres" {
		g.rebind = rebindDollar
	}
	for _, o := range opts {
		o(g)
	}
	g.open = func(ctx context.Context) (*sql.DB, error) {
		return openConfigured(ctx, cfg, g.fetch)
	}
	return g, nil
}

// NewWithOpener returns a Gateway that obtains its handle from open.
func NewWithOpener(open Opener, opts ...Option) *Gateway {
	g := &Gateway{open: open}
	for _, o := range opts {
		o(g)
	}
	return g
}

func openConfigured(ctx context.Context, cfg config.WarehouseConfig, fetch SecretFetcher) (*sql.DB, error) {
	db, err := openDriver(ctx, cfg, fetch)
	if err != nil {
		return nil, err
	}
	if cfg.Driver != "sqlite" && cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range cfg.Init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init statement: %w", err)
		}
	}
	return db, nil
}

// Connect returns the process-wide handle, opening it on first call.
func (g *Gateway) Connect(ctx context.Context) (*sql.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return g.db, nil
	}
	if g.open == nil {
		return nil, Wrap("connect", ErrUnsupportedDriver)
	}

	start := time.Now()
	db, err := g.open(ctx)
	if err != nil {
		slog.Error("warehouse: connect failed", "err", err)
		return nil, Wrap("connect", err)
	}
	slog.Info("warehouse: connected", "duration", time.Since(start).Truncate(time.Millisecond))
	g.db = db
	return db, nil
}

// Query runs query with bound args and returns the open result set. The
// caller must close the rows. Failures are never retried here.
func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := g.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if g.rebind != nil {
		query = g.rebind(query)
	}

	g.hooks.before(ctx, query, args)
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	err = Wrap("query", err)
	g.hooks.after(ctx, query, args, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping verifies the warehouse is reachable, connecting first if needed.
func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.Connect(ctx)
	if err != nil {
		return err
	}
	return Wrap("ping", db.PingContext(ctx))
}

// Close releases the handle. A later Connect opens a fresh one.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
