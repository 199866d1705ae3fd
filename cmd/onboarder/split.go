package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"onboarder/internal/document"
	"onboarder/internal/partition"
)

func splitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <file>",
		Short: "Split a building config into one file per entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(args[0])
		},
	}
}

func runSplit(path string) error {
	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	doc, err := document.ParseFile(path)
	if err != nil {
		return err
	}
	units, err := partition.New(&cfg.Document, logger).SplitEntities(doc)
	if err != nil {
		return err
	}
	paths, err := partition.WriteSplit(path, units)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Split %s into %d files\n", path, len(paths))
	return nil
}
