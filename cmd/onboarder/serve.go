package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"onboarder/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	var history mcp.AttemptLister
	db, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close(ctx)
		history = db
	}

	server := mcp.NewServer(&cfg.Document, history, logger, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
