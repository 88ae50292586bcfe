package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "intelstack/internal/adapters/mcp"
	"intelstack/internal/bootstrap"
	"intelstack/internal/config"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to the config file")
	verbose := flag.Bool("verbose", false, "log debug output to stderr")
	flag.Parse()

	// stdout carries the protocol
	logger := bootstrap.NewLogger(os.Stderr, *verbose)
	e, err := bootstrap.New(bootstrap.Options{ConfigPath: *configFlag, Logger: logger})
	if err != nil {
		log.Fatalf("intelstack-mcp: %v", err)
	}
	defer e.Close()

	mcpServer := server.NewMCPServer(
		"intelstack-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	deps := mcpadapter.Deps{
		Catalog:        e.Catalog,
		Storage:        e.Storage,
		Folder:         e.Folder,
		Settings:       e.Settings,
		Installer:      e.Installer,
		Community:      e.Community,
		Updater:        e.Updater,
		Metrics:        e.Metrics,
		Logger:         logger,
		ScriptsEnabled: e.Config.ScriptsEnabled,
	}
	mcpadapter.RegisterReadTools(mcpServer, deps)
	mcpadapter.RegisterWriteTools(mcpServer, deps)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("intelstack-mcp: %v", err)
	}
}
