// Package postgres keeps the onboarding attempt ledger in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"onboarder/internal/store"
)

const (
	applicationName = "onboarder"
	// The batch records one attempt at a time; a small pool is plenty.
	maxLedgerConns = 4
	connectTimeout = 30 * time.Second
)

var _ store.Store = (*Client)(nil)

// Client is a ledger backed by a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// New connects to the database named by a postgres:// or postgresql:// DSN
// and verifies the connection before returning.
func New(ctx context.Context, dsn string) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	poolCfg.MaxConns = maxLedgerConns
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening attempt ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging attempt ledger: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}
