// Package mcp exposes specref over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with specref tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"specref",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("specref/validate",
			mcp.WithDescription("Validate a specref/v0 document (structure, schema and domain rules)"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document YAML file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("specref/check",
			mcp.WithDescription("Resolve every call site of a document and report specification diagnostics"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document YAML file")),
		),
		HandleCheck,
	)

	s.AddTool(
		mcp.NewTool("specref/resolve",
			mcp.WithDescription("Resolve the specification governing a call, refined along its override chain"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document YAML file")),
			mcp.WithString("procedure", mcp.Required(), mcp.Description("Called procedure id")),
			mcp.WithString("substs", mcp.Description("Comma-separated generic substitution, e.g. 'T=i32,U=bool'")),
			mcp.WithString("format", mcp.Description("Output format: json (default), markdown, or mermaid")),
		),
		HandleResolve,
	)

	s.AddTool(
		mcp.NewTool("specref/schema",
			mcp.WithDescription("Export the specref/v0 document JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
