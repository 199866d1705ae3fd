package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"onboarder/internal/store"
)

func (c *Client) RecordAttempt(ctx context.Context, a store.Attempt) error {
	query := `
INSERT INTO attempts (id, building_code, source_file, result_file, category, outcome,
    operation, poll_attempts, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    outcome = EXCLUDED.outcome,
    operation = EXCLUDED.operation,
    poll_attempts = EXCLUDED.poll_attempts,
    error = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at
`
	_, err := c.pool.Exec(ctx, query,
		a.ID,
		a.BuildingCode,
		a.SourceFile,
		a.ResultFile,
		a.Category,
		string(a.Outcome),
		a.Operation,
		a.PollAttempts,
		a.Error,
		a.StartedAt,
		a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

func (c *Client) ListAttempts(ctx context.Context, filter store.AttemptFilter) ([]store.Attempt, error) {
	query := `
SELECT id::text, building_code, source_file, result_file, category, outcome,
    operation, poll_attempts, error, started_at, finished_at
FROM attempts
WHERE ($1 = '' OR building_code = $1)
  AND ($2 = '' OR source_file = $2)
  AND ($3 = '' OR outcome = $3)
ORDER BY finished_at DESC, id
LIMIT NULLIF($4, 0)
`
	rows, err := c.pool.Query(ctx, query, filter.BuildingCode, filter.SourceFile, string(filter.Outcome), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Attempt, error) {
		var a store.Attempt
		var outcome string
		err := row.Scan(&a.ID, &a.BuildingCode, &a.SourceFile, &a.ResultFile, &a.Category, &outcome,
			&a.Operation, &a.PollAttempts, &a.Error, &a.StartedAt, &a.FinishedAt)
		a.Outcome = store.Outcome(outcome)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning attempts: %w", err)
	}
	return attempts, nil
}

func (c *Client) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM attempts WHERE finished_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("pruning attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}
