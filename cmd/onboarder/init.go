package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var buildingCode string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold an onboarder.yaml project config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, buildingCode)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&buildingCode, "code", "", "Building code, e.g. US-MTV-1600")
	return cmd
}

func runInit(projectName, buildingCode string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	contents := fmt.Sprintf(`project: %s
version: 1

building:
  code: %q

rpc:
  binary: stubby
  profile: projects/digitalbuildings/profiles/MaintenanceOps
  export_deadline_ms: 60000

poll:
  initial_delay: 10s
  export_attempts: 3
  export_interval: 10s

document:
  metadata_key: CONFIG_METADATA
  building_type: FACILITIES/BUILDING

# database:
#   dsn: sqlite://./onboarder.db
`, projectName, buildingCode)
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	fmt.Fprintf(os.Stdout, "Created %s\n", configPath)
	return nil
}
