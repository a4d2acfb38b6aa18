// Package main provides the scriptcheck-mcp binary, an MCP server for AI agents.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/scriptcheck/pkg/config"
	smcp "github.com/ormasoftchile/scriptcheck/pkg/mcp"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	base, err := cfg.KnowledgeBase()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	return server.ServeStdio(smcp.NewServer(version, smcp.NewHandlers(base, opts)))
}
