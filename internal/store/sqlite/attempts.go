package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onboarder/internal/store"
)

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (c *Client) RecordAttempt(ctx context.Context, a store.Attempt) error {
	query := `
	INSERT INTO attempts (id, building_code, source_file, result_file, category, outcome,
		operation, poll_attempts, error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		outcome = excluded.outcome,
		operation = excluded.operation,
		poll_attempts = excluded.poll_attempts,
		error = excluded.error,
		finished_at = excluded.finished_at
	`
	_, err := c.db.ExecContext(ctx, query,
		a.ID,
		a.BuildingCode,
		a.SourceFile,
		a.ResultFile,
		a.Category,
		string(a.Outcome),
		a.Operation,
		a.PollAttempts,
		a.Error,
		a.StartedAt.UTC().Format(timeLayout),
		a.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

func (c *Client) ListAttempts(ctx context.Context, filter store.AttemptFilter) ([]store.Attempt, error) {
	var where []string
	var args []any
	if filter.BuildingCode != "" {
		where = append(where, "building_code = ?")
		args = append(args, filter.BuildingCode)
	}
	if filter.SourceFile != "" {
		where = append(where, "source_file = ?")
		args = append(args, filter.SourceFile)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}

	query := `
	SELECT id, building_code, source_file, result_file, category, outcome,
		operation, poll_attempts, error, started_at, finished_at
	FROM attempts`
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY finished_at DESC, id"
	if filter.Limit > 0 {
		query += "\n\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	var attempts []store.Attempt
	for rows.Next() {
		var a store.Attempt
		var outcome, started, finished string
		if err := rows.Scan(&a.ID, &a.BuildingCode, &a.SourceFile, &a.ResultFile, &a.Category, &outcome,
			&a.Operation, &a.PollAttempts, &a.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		a.Outcome = store.Outcome(outcome)
		if a.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if a.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attempts: %w", err)
	}
	return attempts, nil
}

func (c *Client) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		`DELETE FROM attempts WHERE finished_at < ?`,
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning attempts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}
