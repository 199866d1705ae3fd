package main

import (
	"context"
	"fmt"
	"strings"

	"onboarder/internal/config"
	"onboarder/internal/store"
	"onboarder/internal/store/postgres"
	"onboarder/internal/store/sqlite"
)

// openLedger returns nil when no database is configured.
func openLedger(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		return nil, nil
	}

	var db store.Store
	var err error
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
