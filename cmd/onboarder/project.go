package main

import (
	"fmt"
	"log/slog"
	"os"

	"onboarder/internal/config"
)

const defaultConfigPath = "onboarder.yaml"

var (
	configPath       string
	buildingOverride string
	verbose          bool
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadProject reads the project config. A missing default config falls back to
// built-in defaults; a missing explicit --config is an error.
func loadProject(logger *slog.Logger) (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		if configPath != defaultConfigPath || !config.IsNotFound(err) {
			return nil, err
		}
		logger.Debug("no project config found, using defaults", "path", configPath)
		cfg = config.Default()
	}
	if buildingOverride != "" {
		cfg.Building.Code = buildingOverride
	}
	return cfg, nil
}

func requireBuilding(cfg *config.ProjectConfig) (config.BuildingCode, error) {
	if cfg.Building.Code == "" {
		return config.BuildingCode{}, fmt.Errorf("building code is required (--building or building.code)")
	}
	return config.ParseBuildingCode(cfg.Building.Code)
}
