package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"onboarder/internal/onboard"
	"onboarder/internal/poller"
	"onboarder/internal/rpc"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the building's full configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Path to write the exported building config")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runExport(out string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}
	building, err := requireBuilding(cfg)
	if err != nil {
		return err
	}

	client := rpc.NewClient(rpc.ExecRunner{}, cfg.RPC, building)
	err = onboard.ExportMaster(ctx, client, out, onboard.ExportOptions{
		Policy:      poller.ExportPolicy(cfg.Poll.InitialDelay, cfg.Poll.ExportInterval, cfg.Poll.ExportAttempts),
		Logger:      logger,
		MetadataKey: cfg.Document.MetadataKey,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Building config written to %s\n", out)
	return nil
}
