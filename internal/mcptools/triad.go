package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"manoonchai/internal/effort"
)

// TriadTool handles the triad_effort MCP tool.
type TriadTool struct {
	resolver *Resolver
}

// NewTriadTool creates a TriadTool.
func NewTriadTool(r *Resolver) *TriadTool {
	return &TriadTool{resolver: r}
}

// Definition returns the MCP tool definition for triad_effort.
func (t *TriadTool) Definition() mcp.Tool {
	return mcp.NewTool("triad_effort",
		mcp.WithDescription(
			"Break down the effort of typing three characters in sequence: "+
				"hand, row and finger alternation classes plus base, penalty, stroke and total effort.",
		),
		mcp.WithString("triad",
			mcp.Required(),
			mcp.Description("Exactly three characters"),
		),
		mcp.WithString("layout",
			mcp.Description("Preset or saved layout name (default: pattachote)"),
		),
	)
}

// FormatBreakdown renders a triad breakdown as markdown.
func FormatBreakdown(triad, layoutName string, b effort.Breakdown) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s on %s\n\n", triad, layoutName)
	fmt.Fprintf(&sb, "- **Hand alternation**: %d (%s)\n", b.Hand, effort.HandAltNames[b.Hand])
	fmt.Fprintf(&sb, "- **Row alternation**: %d (%s)\n", b.Row, effort.RowAltNames[b.Row])
	fmt.Fprintf(&sb, "- **Finger alternation**: %d (%s)\n", b.Finger, effort.FingerAltNames[b.Finger])
	fmt.Fprintf(&sb, "- **Base**: %.4f\n", b.Base)
	fmt.Fprintf(&sb, "- **Penalty**: %.4f\n", b.Penalty)
	fmt.Fprintf(&sb, "- **Stroke**: %.4f\n", b.Stroke)
	fmt.Fprintf(&sb, "- **Total**: %.4f\n", b.Total)
	return sb.String()
}

// Handle processes the triad_effort tool call.
func (t *TriadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	triad := req.GetString("triad", "")
	if triad == "" {
		return mcp.NewToolResultError("'triad' is required"), nil
	}

	model, err := t.resolver.Model(req.GetString("layout", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	b, err := model.TriadEffort(triad)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(FormatBreakdown(triad, model.Layout().Name(), b)), nil
}
