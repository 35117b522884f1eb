package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/pdfsplice/internal/config"
	"github.com/dgallion1/pdfsplice/internal/mcptools"
	"github.com/dgallion1/pdfsplice/internal/version"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// Stdout carries the protocol; logs go to stderr, warn and above unless
	// LOG_LEVEL says otherwise.
	level := slog.LevelWarn
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		l, err := config.ParseLevel(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL: %v\n", err)
			os.Exit(1)
		}
		level = l
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	mcpServer := server.NewMCPServer(
		"pdfsplice",
		version.Version,
		server.WithToolCapabilities(true),
	)
	mcptools.Register(mcpServer, mcptools.NewHandlers(log))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Error("MCP server failed", "error", err)
		os.Exit(1)
	}
}
