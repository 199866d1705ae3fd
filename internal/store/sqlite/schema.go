package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS attempts (
	id            TEXT PRIMARY KEY,
	building_code TEXT NOT NULL,
	source_file   TEXT NOT NULL,
	result_file   TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	operation     TEXT NOT NULL DEFAULT '',
	poll_attempts INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_building ON attempts (building_code);
CREATE INDEX IF NOT EXISTS idx_attempts_source_file ON attempts (source_file);
CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts (outcome);
CREATE INDEX IF NOT EXISTS idx_attempts_finished ON attempts (finished_at);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
