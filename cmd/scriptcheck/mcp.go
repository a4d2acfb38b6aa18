package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	smcp "github.com/ormasoftchile/scriptcheck/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve scriptcheck tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
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
