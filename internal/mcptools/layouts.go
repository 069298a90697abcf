package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"manoonchai/internal/layout"
)

// ListLayoutsTool handles the list_layouts MCP tool.
type ListLayoutsTool struct {
	resolver *Resolver
}

// NewListLayoutsTool creates a ListLayoutsTool.
func NewListLayoutsTool(r *Resolver) *ListLayoutsTool {
	return &ListLayoutsTool{resolver: r}
}

// Definition returns the MCP tool definition for list_layouts.
func (t *ListLayoutsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_layouts",
		mcp.WithDescription(
			"List the layout names accepted by the other tools: built-in presets and layouts saved by the optimizer.",
		),
	)
}

// Handle processes the list_layouts tool call.
func (t *ListLayoutsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("## Presets\n\n")
	for _, name := range layout.PresetNames() {
		marker := ""
		if name == layout.DefaultPreset {
			marker = " (default)"
		}
		fmt.Fprintf(&b, "- %s%s\n", name, marker)
	}

	if t.resolver.store == nil {
		return mcp.NewToolResultText(b.String()), nil
	}

	records, err := t.resolver.store.ListLayouts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list saved layouts: %v", err)), nil
	}
	b.WriteString("\n## Saved\n\n")
	if len(records) == 0 {
		b.WriteString("none\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "- %s (#%d, %s)", r.Name, r.ID, r.Fingerprint[:12])
		if r.Description != "" {
			fmt.Fprintf(&b, ": %s", r.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
