package etag

import (
	"fmt"
	"log/slog"

	"onboarder/internal/config"
	"onboarder/internal/document"
)

// Result counts one synchronization pass. Missing lists target entities absent
// from the master document; their etags are left untouched.
type Result struct {
	Updated int
	Total   int
	Missing []string
}

type Synchronizer struct {
	schema *config.Schema
	logger *slog.Logger
}

func New(schema *config.Schema, logger *slog.Logger) *Synchronizer {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{schema: schema, logger: logger}
}

// Sync copies the etag of every master record onto the matching entity of
// target. The master document is only read.
func (s *Synchronizer) Sync(master, target *document.Document) Result {
	var result Result
	for _, entity := range target.Entities() {
		if entity.ID == s.schema.MetadataKey {
			continue
		}
		result.Total++

		source, ok := master.Get(entity.ID)
		if !ok {
			result.Missing = append(result.Missing, entity.ID)
			s.logger.Warn("entity not found in master building config", "guid", entity.ID)
			continue
		}
		if etag, ok := source.Etag(); ok {
			entity.SetEtag(etag)
			result.Updated++
		}
	}
	return result
}

// SyncFile synchronizes the unit file at targetPath against master and
// rewrites it in place.
func (s *Synchronizer) SyncFile(master *document.Document, targetPath string) (Result, error) {
	target, err := document.ParseFile(targetPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading target config: %w", err)
	}

	result := s.Sync(master, target)
	if err := target.WriteFile(targetPath); err != nil {
		return result, fmt.Errorf("rewriting target config: %w", err)
	}

	s.logger.Info("synchronized etags",
		"file", targetPath,
		"entities", result.Total,
		"updated", result.Updated,
	)
	return result, nil
}
