package mcptools

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"manoonchai/internal/corpus"
	"manoonchai/internal/report"
)

// ScoreTool handles the score_text MCP tool.
type ScoreTool struct {
	resolver *Resolver
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(r *Resolver) *ScoreTool {
	return &ScoreTool{resolver: r}
}

// Definition returns the MCP tool definition for score_text.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_text",
		mcp.WithDescription(
			"Score a Thai text typed on a keyboard layout. Returns total and mean triad effort, "+
				"hand/row/finger usage, alternation class counts and the costliest triads.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to score"),
		),
		mcp.WithString("layout",
			mcp.Description("Preset or saved layout name (default: pattachote)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.DefaultString("text"),
			mcp.Enum("text", "json"),
		),
	)
}

// Handle processes the score_text tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	model, err := t.resolver.Model(req.GetString("layout", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := report.Analyze(model, corpus.FromString(text))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if req.GetString("format", "text") == "json" {
		if err := report.WriteJSON(&buf, summary); err != nil {
			return nil, err
		}
	} else {
		report.PrintReport(&buf, summary)
	}
	return mcp.NewToolResultText(buf.String()), nil
}
