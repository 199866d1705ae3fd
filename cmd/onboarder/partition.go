package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"onboarder/internal/document"
	"onboarder/internal/partition"
)

func partitionCmd() *cobra.Command {
	var outDir string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "partition <file>",
		Short: "Partition a building config into per-category unit files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(args[0], outDir, dryRun)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for the category folders (default: the input file's directory)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned units without writing files")
	return cmd
}

func runPartition(path, outDir string, dryRun bool) error {
	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	doc, err := document.ParseFile(path)
	if err != nil {
		return err
	}
	result, err := partition.New(&cfg.Document, logger).Partition(doc)
	if err != nil {
		return err
	}

	if dryRun {
		for _, unit := range result.Units() {
			fmt.Fprintf(os.Stdout, "%s\t%s", unit.Category, unit.Primary)
			if len(unit.Linked) > 0 {
				fmt.Fprintf(os.Stdout, "\tlinks=%v", unit.Linked)
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	}

	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	paths, err := partition.WriteUnits(outDir, result)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(os.Stdout, p)
	}
	fmt.Fprintf(os.Stdout, "Wrote %d unit files (%d reporting, %d update_virtual, %d add_virtual)\n",
		len(paths), len(result.Reporting), len(result.UpdateVirtual), len(result.AddVirtual))
	if len(result.Unclassified) > 0 {
		fmt.Fprintf(os.Stdout, "Skipped %d unclassified entities\n", len(result.Unclassified))
	}
	return nil
}
