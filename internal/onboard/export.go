package onboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"onboarder/internal/config"
	"onboarder/internal/poller"
	"onboarder/internal/rpc"
)

const (
	defaultExportInterval = 10 * time.Second
	defaultExportAttempts = 3
)

// Exporter is the part of the building service a master export needs.
type Exporter interface {
	ExportBuildingConfig(ctx context.Context) (rpc.Result, error)
	GetOperation(ctx context.Context, operation, outfile string) (rpc.Result, error)
}

type ExportOptions struct {
	Policy      poller.Policy
	Sleeper     poller.Sleeper
	Logger      *slog.Logger
	MetadataKey string
}

// ExportMaster exports the building's full configuration to out. The export
// is polled into a sibling file and only replaces out once it completed, so a
// failed export leaves an existing master untouched.
func ExportMaster(ctx context.Context, exporter Exporter, out string, options ExportOptions) error {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MetadataKey == "" {
		options.MetadataKey = config.DefaultMetadataKey
	}
	if options.Policy.Classify == nil {
		options.Policy = poller.ExportPolicy(defaultExportInterval, defaultExportInterval, defaultExportAttempts)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	sink := out + ".export"
	if err := os.Remove(sink); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale export: %w", err)
	}
	defer os.Remove(sink)

	poll := poller.New(exporter, poller.Options{Sleeper: options.Sleeper, Logger: options.Logger})
	if _, err := poll.SubmitAndAwait(ctx, exporter.ExportBuildingConfig, options.Policy, sink); err != nil {
		return fmt.Errorf("exporting building config: %w", err)
	}

	data, err := os.ReadFile(sink)
	if err != nil {
		return fmt.Errorf("reading exported config: %w", err)
	}
	cleaned, ok := CleanExport(data, options.MetadataKey)
	if !ok {
		options.Logger.Warn("metadata marker not found in export, leaving content unchanged",
			"marker", options.MetadataKey+":")
	}
	if err := os.WriteFile(out, cleaned, 0o644); err != nil {
		return fmt.Errorf("writing building config: %w", err)
	}

	options.Logger.Info("building config refreshed", "path", out)
	return nil
}

// CleanExport drops everything before the first "<metadataKey>:". It returns
// data unchanged and false when the marker is absent.
func CleanExport(data []byte, metadataKey string) ([]byte, bool) {
	idx := bytes.Index(data, []byte(metadataKey+":"))
	if idx < 0 {
		return data, false
	}
	return data[idx:], true
}
