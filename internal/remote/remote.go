// Package remote is the typed client for the authoritative question store,
// a PostgreSQL database shared by every installation. Reads go through an
// anonymous read-only role; mutations require a service-account session
// established with Login. The client never dials eagerly: reachability is
// checked by Probe so callers can fall back to offline operation.
package remote

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vonshlovens/siteqa/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps the connection pools against the remote store
type Client struct {
	cfg    *config.RemoteConfig
	pool   *pgxpool.Pool // anonymous read role
	authed *pgxpool.Pool // service-account session, nil until Login succeeds
}

// New creates a client for the configured remote. No connection is made
// until the pool is first used; use Probe to test reachability.
func New(ctx context.Context, cfg *config.RemoteConfig) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Client{cfg: cfg, pool: pool}, nil
}

// Close closes all connection pools
func (c *Client) Close() {
	if c.authed != nil {
		c.authed.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// Probe checks reachability with a minimal read against the questions
// table. A probe failure means the remote is unreachable or the schema is
// missing; it says nothing about how many records exist.
func (c *Client) Probe(ctx context.Context) error {
	var id string
	err := c.pool.QueryRow(ctx, "SELECT id FROM questions LIMIT 1").Scan(&id)
	if err == pgx.ErrNoRows {
		return nil // reachable, just empty
	}
	if err != nil {
		return fmt.Errorf("remote probe failed: %w", err)
	}
	return nil
}

// Login opens the service-account session used for mutations. It is a
// no-op when already logged in or when no credentials are configured
// (reads stay on the anonymous role either way).
func (c *Client) Login(ctx context.Context) error {
	if c.authed != nil {
		return nil
	}
	if !c.cfg.HasServiceAccount() {
		return nil // nothing to do
	}

	poolConfig, err := pgxpool.ParseConfig(c.cfg.ServiceConnectionString())
	if err != nil {
		return fmt.Errorf("failed to parse service connection string: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create service pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("service login failed: %w", err)
	}

	c.authed = pool
	slog.Info("service session established", "identity", c.cfg.Identity)
	return nil
}

// LoggedIn reports whether a service session is active
func (c *Client) LoggedIn() bool {
	return c.authed != nil
}

// writer returns the pool mutations should use. Without a session the
// anonymous pool is used and the server rejects what it must.
func (c *Client) writer() *pgxpool.Pool {
	if c.authed != nil {
		return c.authed
	}
	return c.pool
}

// RunMigrations applies the embedded schema migrations to the remote.
// Requires a role allowed to run DDL, so callers normally Login first.
func (c *Client) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	stdDB, err := sql.Open("pgx", c.migrationConnString())
	if err != nil {
		return fmt.Errorf("failed to open stdlib connection: %w", err)
	}
	defer stdDB.Close()

	if err := goose.UpContext(ctx, stdDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("remote migrations completed")
	return nil
}

// MigrationStatus prints the migration status of the remote schema
func (c *Client) MigrationStatus(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	stdDB, err := sql.Open("pgx", c.migrationConnString())
	if err != nil {
		return fmt.Errorf("failed to open stdlib connection: %w", err)
	}
	defer stdDB.Close()

	return goose.StatusContext(ctx, stdDB, "migrations")
}

func (c *Client) migrationConnString() string {
	if c.cfg.HasServiceAccount() {
		return c.cfg.ServiceConnectionString()
	}
	return c.cfg.ConnectionString()
}
