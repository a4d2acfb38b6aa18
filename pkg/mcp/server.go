// Package mcp exposes scriptcheck as MCP tools for AI agents.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the scriptcheck tools registered.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"scriptcheck",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("scriptcheck/validate",
			mcp.WithDescription("Check a Blood on the Clocktower script for design issues. Returns findings ordered by severity."),
			mcp.WithString("script", mcp.Description("Script JSON text (an array of character IDs, objects and an optional _meta object)")),
			mcp.WithString("path", mcp.Description("Path to a script JSON or markdown file, used when script is not given")),
			mcp.WithBoolean("order", mcp.Description("Also check that the script is in display order")),
			mcp.WithString("min_severity", mcp.Description("Drop findings below this severity: low, medium, or high")),
		),
		h.Validate,
	)

	s.AddTool(
		mcp.NewTool("scriptcheck/sort",
			mcp.WithDescription("Sort a script into display order"),
			mcp.WithString("script", mcp.Description("Script JSON text")),
			mcp.WithString("path", mcp.Description("Path to a script JSON or markdown file, used when script is not given")),
			mcp.WithBoolean("explain", mcp.Description("Include one sentence per adjacent pair explaining the order")),
		),
		h.Sort,
	)

	s.AddTool(
		mcp.NewTool("scriptcheck/rules",
			mcp.WithDescription("List the rules scriptcheck runs, with their labels"),
		),
		h.Rules,
	)

	s.AddTool(
		mcp.NewTool("scriptcheck/schema",
			mcp.WithDescription("Export JSON Schema for scripts or knowledge base files"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'script', 'characters', or 'considerations'")),
		),
		HandleSchema,
	)

	return s
}
