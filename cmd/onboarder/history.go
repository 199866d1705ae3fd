package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"onboarder/internal/config"
	"onboarder/internal/store"
)

func historyCmd() *cobra.Command {
	var outcome string
	var limit int
	var pruneBefore time.Duration
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded onboarding attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(outcome, limit, pruneBefore)
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (succeeded, failed, skipped)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of attempts to list")
	cmd.Flags().DurationVar(&pruneBefore, "prune-before", 0, "Delete attempts older than this age instead of listing, e.g. 720h")
	return cmd
}

func runHistory(outcome string, limit int, pruneBefore time.Duration) error {
	ctx := context.Background()

	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}
	db, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no attempt ledger configured (database.dsn)")
	}
	defer db.Close(ctx)

	if pruneBefore > 0 {
		deleted, err := db.PruneAttempts(ctx, time.Now().Add(-pruneBefore))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Pruned %d attempts\n", deleted)
		return nil
	}

	filter, err := attemptFilter(cfg, outcome, limit)
	if err != nil {
		return err
	}
	attempts, err := db.ListAttempts(ctx, filter)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintln(os.Stdout, "No attempts recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tBUILDING\tOUTCOME\tPOLLS\tFILE\tERROR")
	for _, a := range attempts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			a.FinishedAt.Local().Format(time.DateTime), a.BuildingCode, a.Outcome, a.PollAttempts, a.SourceFile, a.Error)
	}
	return w.Flush()
}

// attemptFilter matches the building code in the canonical form the
// orchestrator records it in.
func attemptFilter(cfg *config.ProjectConfig, outcome string, limit int) (store.AttemptFilter, error) {
	parsed, err := store.ParseOutcome(outcome)
	if err != nil {
		return store.AttemptFilter{}, err
	}
	filter := store.AttemptFilter{Outcome: parsed, Limit: limit}
	if cfg.Building.Code != "" {
		building, err := config.ParseBuildingCode(cfg.Building.Code)
		if err != nil {
			return store.AttemptFilter{}, err
		}
		filter.BuildingCode = building.String()
	}
	return filter, nil
}
