package postgres

import (
	"context"
	"fmt"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"rewards-admin/internal/config"
	"rewards-admin/internal/util"
	"rewards-admin/migrations"
)

// Client wraps the shared sqlx connection pool used by all repositories.
type Client struct {
	DB *sqlx.DB
}

func NewClient(cfg *config.Config) (*Client, error) {
	db, err := sqlx.Connect("pgx", cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime)

	return &Client{DB: db}, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// ApplySchema runs the embedded migration files in name order. Statements
// are idempotent (IF NOT EXISTS) so reapplying is safe.
func (c *Client) ApplySchema(ctx context.Context) error {
	files, err := migrations.Files()
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		sqlBytes, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := c.DB.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		util.Info("Applied migration", util.String("file", name))
	}
	return nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
