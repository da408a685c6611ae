package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/specref/pkg/diagram"
	"github.com/ormasoftchile/specref/pkg/kernel/check"
	kschema "github.com/ormasoftchile/specref/pkg/kernel/schema"
	kvalidate "github.com/ormasoftchile/specref/pkg/kernel/validate"
	"github.com/ormasoftchile/specref/pkg/render"
)

// HandleValidate implements the specref/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	doc, errs := kvalidate.ValidateFile(path)
	if kvalidate.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d procedures, %d specifications, %d call sites)",
		path, len(doc.Program.Procedures), len(doc.Specs.Procedures), len(doc.Calls))), nil
}

// HandleCheck implements the specref/check MCP tool.
func HandleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	s, err := check.Load(path, check.RunConfig{})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	result := s.Run(ctx)

	out := struct {
		*check.RunResult
		Error string `json:"error,omitempty"`
	}{RunResult: result}
	if result.Error != nil {
		out.Error = result.Error.Error()
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: result.Status != check.StatusPassed,
	}, nil
}

// HandleResolve implements the specref/resolve MCP tool.
func HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	procedure, _ := args["procedure"].(string)
	if path == "" || procedure == "" {
		return errorResult("path and procedure arguments are required"), nil
	}
	substs, _ := args["substs"].(string)
	format, _ := args["format"].(string)

	q, err := check.ParseQuery(procedure, splitSubsts(substs))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	s, err := check.Load(path, check.RunConfig{})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	ex, err := s.Explain(q)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	switch format {
	case "", "json":
		out := map[string]any{
			"query":       ex.Query.String(),
			"spec":        ex.Spec,
			"diagnostics": s.Collector.Diagnostics(),
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return textResult(string(data)), nil
	case "markdown":
		return textResult(render.Markdown(render.ContractFrom(ex))), nil
	case "mermaid":
		out, err := diagram.Generate(diagram.FromExplanation(ex), diagram.FormatMermaid)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(out), nil
	default:
		return errorResult(fmt.Sprintf("unknown format %q: use json, markdown, or mermaid", format)), nil
	}
}

// HandleSchema implements the specref/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := kschema.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func splitSubsts(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatErrors(errs []*kvalidate.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, e.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
