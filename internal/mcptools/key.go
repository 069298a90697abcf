package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"manoonchai/internal/effort"
)

// KeyTool handles the key_effort MCP tool.
type KeyTool struct {
	resolver *Resolver
}

// NewKeyTool creates a KeyTool.
func NewKeyTool(r *Resolver) *KeyTool {
	return &KeyTool{resolver: r}
}

// Definition returns the MCP tool definition for key_effort.
func (t *KeyTool) Definition() mcp.Tool {
	return mcp.NewTool("key_effort",
		mcp.WithDescription(
			"Show where a character sits on a layout and its per-key effort: "+
				"base effort and the finger, row and hand penalties.",
		),
		mcp.WithString("char",
			mcp.Required(),
			mcp.Description("A single character"),
		),
		mcp.WithString("layout",
			mcp.Description("Preset or saved layout name (default: pattachote)"),
		),
	)
}

// KeyReport is the per-key effort of one character.
type KeyReport struct {
	Char          string  `json:"char"`
	Position      string  `json:"position"`
	Finger        string  `json:"finger"`
	Hand          string  `json:"hand"`
	Row           int     `json:"row"`
	Shifted       bool    `json:"shifted"`
	Base          float64 `json:"base"`
	PenaltyFinger float64 `json:"penalty_finger"`
	PenaltyRow    float64 `json:"penalty_row"`
	PenaltyHand   float64 `json:"penalty_hand"`
	Penalty       float64 `json:"penalty"`
}

// DescribeKey collects the per-key effort of ch on the model's layout.
func DescribeKey(m *effort.Model, ch string) (*KeyReport, error) {
	base, err := m.BaseEffortKey(ch)
	if err != nil {
		return nil, err
	}
	r := []rune(ch)
	k, err := m.Layout().Key(r[0])
	if err != nil {
		return nil, err
	}

	out := &KeyReport{
		Char:     ch,
		Position: k.Position.String(),
		Finger:   k.Finger.String(),
		Hand:     string(k.Hand),
		Row:      k.Row,
		Shifted:  k.Shifted,
		Base:     base,
	}
	if out.PenaltyFinger, err = m.PenaltyFinger(ch); err != nil {
		return nil, err
	}
	if out.PenaltyRow, err = m.PenaltyRow(ch); err != nil {
		return nil, err
	}
	if out.PenaltyHand, err = m.PenaltyHand(ch); err != nil {
		return nil, err
	}
	if out.Penalty, err = m.PenaltyEffortKey(ch); err != nil {
		return nil, err
	}
	return out, nil
}

// Handle processes the key_effort tool call.
func (t *KeyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch := req.GetString("char", "")
	if ch == "" {
		return mcp.NewToolResultError("'char' is required"), nil
	}

	model, err := t.resolver.Model(req.GetString("layout", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	k, err := DescribeKey(model, ch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s on %s\n\n", k.Char, model.Layout().Name())
	fmt.Fprintf(&b, "- **Position**: %s (row %d, shifted: %t)\n", k.Position, k.Row, k.Shifted)
	fmt.Fprintf(&b, "- **Finger**: %s (%s hand)\n", k.Finger, k.Hand)
	fmt.Fprintf(&b, "- **Base effort**: %.4f\n", k.Base)
	fmt.Fprintf(&b, "- **Penalties**: finger %.2f, row %.2f, hand %.2f\n", k.PenaltyFinger, k.PenaltyRow, k.PenaltyHand)
	fmt.Fprintf(&b, "- **Penalty effort**: %.4f\n", k.Penalty)
	return mcp.NewToolResultText(b.String()), nil
}
