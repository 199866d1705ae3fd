package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "onboarder",
		Short:        "Partition and onboard building configurations",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the project config")
	root.PersistentFlags().StringVar(&buildingOverride, "building", "", "Building code (overrides building.code), e.g. US-MTV-1600")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(onboardCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(partitionCmd())
	root.AddCommand(splitCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
