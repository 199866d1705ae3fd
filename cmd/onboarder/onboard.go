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

func onboardCmd() *cobra.Command {
	var dir string
	var masterPath string
	var exportMaster bool
	cmd := &cobra.Command{
		Use:   "onboard [files...]",
		Short: "Synchronize etags and onboard unit files one at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard(args, dir, masterPath, exportMaster)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory of .yaml unit files to onboard")
	cmd.Flags().StringVar(&masterPath, "master", "", "Master building config used as the etag source")
	cmd.Flags().BoolVar(&exportMaster, "export-master", false, "Export a fresh master building config before onboarding")
	_ = cmd.MarkFlagRequired("master")
	return cmd
}

func runOnboard(args []string, dir, masterPath string, exportMaster bool) error {
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

	files, err := collectFiles(args, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stdout, "No config files to onboard.")
		return nil
	}

	client := rpc.NewClient(rpc.ExecRunner{}, cfg.RPC, building)

	if exportMaster {
		fmt.Fprintln(os.Stdout, "Exporting new building config...")
		err := onboard.ExportMaster(ctx, client, masterPath, onboard.ExportOptions{
			Policy:      poller.ExportPolicy(cfg.Poll.InitialDelay, cfg.Poll.ExportInterval, cfg.Poll.ExportAttempts),
			Logger:      logger,
			MetadataKey: cfg.Document.MetadataKey,
		})
		if err != nil {
			logger.Warn("failed to update building config, continuing with existing file", "error", err)
		}
	}

	ledger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	options := onboard.Options{
		Building:   building,
		MasterPath: masterPath,
		Schema:     &cfg.Document,
		Policy:     poller.OnboardPolicy(cfg.Poll.InitialDelay),
		Logger:     logger,
	}
	if ledger != nil {
		defer ledger.Close(ctx)
		options.Ledger = ledger
	}

	result, err := onboard.Run(ctx, files, client, options)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout)
	onboard.WriteReport(os.Stdout, result)
	if result.Failed > 0 {
		return fmt.Errorf("onboarding completed with failures")
	}
	return nil
}

func collectFiles(args []string, dir string) ([]string, error) {
	if dir != "" && len(args) > 0 {
		return nil, fmt.Errorf("pass either files or --dir, not both")
	}
	if dir != "" {
		return onboard.ListConfigFiles(dir)
	}
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory, use --dir", path)
		}
	}
	return args, nil
}
