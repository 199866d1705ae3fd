package store

import (
	"context"
	"time"
)

// Store is the attempt ledger: one row per onboarding attempt of a unit file.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	RecordAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error)
	PruneAttempts(ctx context.Context, before time.Time) (int64, error)
}
