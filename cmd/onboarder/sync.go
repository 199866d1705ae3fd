package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"onboarder/internal/document"
	"onboarder/internal/etag"
)

func syncCmd() *cobra.Command {
	var masterPath string
	cmd := &cobra.Command{
		Use:   "sync-etags <file>",
		Short: "Copy etags from the master building config into a unit file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(masterPath, args[0])
		},
	}
	cmd.Flags().StringVar(&masterPath, "master", "", "Master building config used as the etag source")
	_ = cmd.MarkFlagRequired("master")
	return cmd
}

func runSync(masterPath, path string) error {
	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	master, err := document.ParseFile(masterPath)
	if err != nil {
		return fmt.Errorf("loading master building config: %w", err)
	}
	result, err := etag.New(&cfg.Document, logger).SyncFile(master, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated etags for %d/%d entities\n", result.Updated, result.Total)
	return nil
}
