package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// One multi-statement Exec runs in an implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS attempts (
    id            UUID PRIMARY KEY,
    building_code TEXT NOT NULL,
    source_file   TEXT NOT NULL,
    result_file   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT '',
    outcome       TEXT NOT NULL,
    operation     TEXT NOT NULL DEFAULT '',
    poll_attempts INTEGER NOT NULL DEFAULT 0,
    error         TEXT NOT NULL DEFAULT '',
    started_at    TIMESTAMPTZ NOT NULL,
    finished_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_building ON attempts (building_code);
CREATE INDEX IF NOT EXISTS idx_attempts_source_file ON attempts (source_file);
CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts (outcome);
CREATE INDEX IF NOT EXISTS idx_attempts_finished ON attempts (finished_at DESC);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
