package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/mcpserver"
)

func main() {
	cfg := config.Load()

	// stdout carries the protocol, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := clients.NewResearchAgent(ctx, cfg, logger, nil)
	if err != nil {
		slog.Error("Failed to init research agent", "error", err)
		os.Exit(1)
	}

	server := mcpserver.New(agent, logger)
	slog.Info("MCP server starting on stdio", "name", mcpserver.Name, "version", mcpserver.Version)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		slog.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
