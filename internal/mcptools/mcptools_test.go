package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/report"
	"manoonchai/internal/store"
)

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func presetsOnly() *Resolver {
	return NewResolver(nil, effort.DefaultWeights())
}

func withSaved(t *testing.T) *Resolver {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "manoonchai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m, err := layout.Preset("kedmanee")
	require.NoError(t, err)
	l, err := layout.New("my-kedmanee", m, layout.Mask{})
	require.NoError(t, err)
	_, err = st.SaveLayout(l, "hand tuned")
	require.NoError(t, err)

	return NewResolver(st, effort.DefaultWeights())
}

func TestResolver(t *testing.T) {
	r := presetsOnly()

	l, err := r.Layout("")
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultPreset, l.Name())

	l, err = r.Layout("kedmanee")
	require.NoError(t, err)
	assert.Equal(t, "kedmanee", l.Name())

	_, err = r.Layout("dvorak")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestResolverStoredLayout(t *testing.T) {
	r := withSaved(t)

	l, err := r.Layout("my-kedmanee")
	require.NoError(t, err)
	assert.Equal(t, "my-kedmanee", l.Name())

	want, err := layout.Preset("kedmanee")
	require.NoError(t, err)
	assert.True(t, want.Equal(l.Matrix()))

	_, err = r.Layout("missing")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestDescribeKey(t *testing.T) {
	m, err := presetsOnly().Model("pattachote")
	require.NoError(t, err)

	k, err := DescribeKey(m, "ก")
	require.NoError(t, err)
	assert.Equal(t, "L", k.Hand)
	assert.Equal(t, layout.RowHome, k.Row)
	assert.False(t, k.Shifted)
	assert.Equal(t, 0.0, k.Base)
	assert.Equal(t, 0.0, k.PenaltyFinger)
	assert.Equal(t, 0.0, k.PenaltyRow)
	assert.InDelta(t, 0.2, k.PenaltyHand, 1e-9)
	assert.InDelta(t, 0.2, k.Penalty, 1e-9)

	_, err = DescribeKey(m, "a")
	assert.ErrorIs(t, err, layout.ErrUnknownKey)

	_, err = DescribeKey(m, "กา")
	assert.ErrorIs(t, err, effort.ErrInvalidArgument)
}

func TestKeyTool(t *testing.T) {
	tool := NewKeyTool(presetsOnly())
	def := tool.Definition()
	assert.Equal(t, "key_effort", def.Name)
	assert.Contains(t, def.InputSchema.Required, "char")

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"char": "ก"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	text := resultText(res)
	assert.Contains(t, text, "ก on pattachote")
	assert.Contains(t, text, "**Penalty effort**: 0.2000")

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"char": "a"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "'char' is required")
}

func TestTriadTool(t *testing.T) {
	r := presetsOnly()
	tool := NewTriadTool(r)
	assert.Equal(t, "triad_effort", tool.Definition().Name)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"triad":  "กาน",
		"layout": "kedmanee",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	m, err := r.Model("kedmanee")
	require.NoError(t, err)
	b, err := m.TriadEffort("กาน")
	require.NoError(t, err)
	assert.Equal(t, FormatBreakdown("กาน", "kedmanee", b), resultText(res))

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"triad": "กา"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"triad": "กาน", "layout": "qwerty"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "unknown layout")
}

func TestScoreTool(t *testing.T) {
	tool := NewScoreTool(presetsOnly())
	def := tool.Definition()
	assert.Equal(t, "score_text", def.Name)
	assert.Contains(t, def.InputSchema.Required, "text")

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"text":   "ภาษาไทยเป็นภาษาที่มีวรรณยุกต์",
		"format": "json",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &s))
	assert.Equal(t, layout.DefaultPreset, s.Layout)
	assert.Greater(t, s.Triads, 0)
	assert.Greater(t, s.TotalEffort, 0.0)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{
		"text": "ภาษาไทยเป็นภาษาที่มีวรรณยุกต์",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.NotEmpty(t, resultText(res))

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"text": ""}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListLayoutsTool(t *testing.T) {
	res, err := NewListLayoutsTool(presetsOnly()).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	text := resultText(res)
	for _, name := range layout.PresetNames() {
		assert.Contains(t, text, "- "+name)
	}
	assert.Contains(t, text, layout.DefaultPreset+" (default)")
	assert.NotContains(t, text, "Saved")

	res, err = NewListLayoutsTool(withSaved(t)).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	text = resultText(res)
	assert.Contains(t, text, "## Saved")
	assert.True(t, strings.Contains(text, "- my-kedmanee (#1, "), text)
	assert.Contains(t, text, "hand tuned")
}

func TestNewServer(t *testing.T) {
	s := NewServer("test", WithWeights(effort.DefaultWeights()))
	assert.NotNil(t, s)
}
