package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"onboarder/internal/config"
	"onboarder/internal/store"
)

// AttemptLister is the read side of the attempt ledger.
type AttemptLister interface {
	ListAttempts(ctx context.Context, filter store.AttemptFilter) ([]store.Attempt, error)
}

type Server struct {
	schema  *config.Schema
	history AttemptLister
	logger  *slog.Logger
	mcp     *sdk.Server
}

// NewServer registers the onboarding tools. history may be nil when no ledger
// is configured; list_attempts then reports an error.
func NewServer(schema *config.Schema, history AttemptLister, logger *slog.Logger, version string) *Server {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		schema:  schema,
		history: history,
		logger:  logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "onboarder",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
