package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manoonchai/internal/corpus"
	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

func analyze(t *testing.T, preset, text string) *Summary {
	t.Helper()
	m := effort.NewModel(layout.MustLoad(preset), effort.DefaultWeights())
	s, err := Analyze(m, corpus.FromString(text))
	require.NoError(t, err)
	return s
}

func TestAnalyze_Counts(t *testing.T) {
	s := analyze(t, "pattachote", "งาน ทาน abc")

	assert.Equal(t, "pattachote", s.Layout)
	assert.Equal(t, 11, s.Runes)
	assert.Equal(t, 6, s.Mapped)
	assert.Equal(t, 5, s.Unmapped)
	assert.Equal(t, 2, s.Triads)
	assert.Equal(t, []string{"a", "b", "c"}, s.Missing)

	// Both triads are ideal strokes on the home row.
	assert.Zero(t, s.StrokeEffort)
	assert.Zero(t, s.BaseEffort)
	assert.Equal(t, 2, s.HandAlt[0])
	assert.Equal(t, 2, s.RowAlt[0])
	assert.Equal(t, 2, s.FingerAlt[0])

	assert.Equal(t, 6, s.RowUsage[layout.RowHome])
	assert.Equal(t, [2]int{2, 4}, s.HandUsage)
	assert.Zero(t, s.ShiftedRatio)
	assert.InDelta(t, s.TotalEffort/2, s.MeanPerTriad, 1e-12)
}

func TestAnalyze_MatchesTotalEffort(t *testing.T) {
	m := effort.NewModel(layout.MustLoad("pattachote"), effort.DefaultWeights())
	text := "สวัสดีครับ"
	want, err := m.TotalEffort(text)
	require.NoError(t, err)

	s, err := Analyze(m, corpus.FromString(text))
	require.NoError(t, err)
	assert.InDelta(t, want, s.TotalEffort, 1e-9)

	var sum float64
	for _, tc := range s.Costliest {
		sum += tc.Effort
	}
	assert.InDelta(t, s.TotalEffort, sum, 1e-9)
	for i := 1; i < len(s.Costliest); i++ {
		assert.GreaterOrEqual(t, s.Costliest[i-1].Effort, s.Costliest[i].Effort)
	}
}

func TestAnalyze_Shifted(t *testing.T) {
	s := analyze(t, "pattachote", "ฎฏฐ")
	assert.Equal(t, 1.0, s.ShiftedRatio)
	assert.Equal(t, 3, s.RowUsage[layout.RowLower])
}

func TestRankAndComparison(t *testing.T) {
	text := "ภาษาไทยเป็นภาษาที่มีวรรณยุกต์ การพิมพ์ภาษาไทยต้องใช้แป้นพิมพ์"
	a := analyze(t, "pattachote", text)
	b := analyze(t, "kedmanee", text)

	ranked := Rank([]*Summary{a, b})
	require.Len(t, ranked, 2)
	assert.LessOrEqual(t, ranked[0].MeanPerTriad, ranked[1].MeanPerTriad)

	var buf bytes.Buffer
	PrintComparison(&buf, []*Summary{a, b})
	out := buf.String()
	assert.Contains(t, out, "pattachote")
	assert.Contains(t, out, "kedmanee")
	assert.Contains(t, out, "VS BEST")

	buf.Reset()
	PrintComparison(&buf, nil)
	assert.Contains(t, buf.String(), "No layouts")
}

func TestPrintReport(t *testing.T) {
	s := analyze(t, "pattachote", "สวัสดีครับ ทุกคน hello")

	var buf bytes.Buffer
	PrintReport(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "TYPING EFFORT: PATTACHOTE")
	assert.Contains(t, out, "STROKE PATHS")
	assert.Contains(t, out, "COSTLIEST TRIADS")
	assert.Contains(t, out, "Missing keys:")
	assert.Contains(t, out, "left pinky:")
	assert.NotContains(t, out, "thumb")

	buf.Reset()
	PrintReport(&buf, nil)
	assert.Equal(t, "No summary available\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	s := analyze(t, "pattachote", "งานทาน")

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, s))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "pattachote", got["layout"])
	assert.EqualValues(t, 4, got["triads"])
	assert.NotContains(t, got, "missing")
}

func TestPrintOptimization(t *testing.T) {
	r := &optimizer.Result{
		Initial:    100,
		Final:      80,
		Iterations: 1200,
		Accepted:   1,
		Swaps: []optimizer.Swap{{
			Round: 3, A: layout.Position{Row: 2, Column: 0}, B: layout.Position{Row: 2, Column: 4},
			CharA: "้", CharB: "ั", Effort: 80,
		}},
		Matrix:   layout.MustLoad("pattachote").Matrix(),
		Duration: 1500 * time.Millisecond,
		Stop:     optimizer.StopPatience,
		Strategy: optimizer.StrategySweep,
		Workers:  2,
		Seed:     9,
	}

	var buf bytes.Buffer
	PrintOptimization(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "stopped: patience")
	assert.Contains(t, out, "20.00% lower")
	assert.Contains(t, out, "(2,0)")
	// Combining marks are drawn on a dotted circle.
	assert.Contains(t, out, "◌ั")
	assert.Contains(t, out, "\n   บ ป ล ห ◌ิ ค")
}

func TestFormatMetricBar(t *testing.T) {
	assert.Equal(t, "[##########----------]", FormatMetricBar(0.5, 0, 1, 20))
	assert.Equal(t, "[#####]", FormatMetricBar(2, 0, 1, 5))
	assert.Equal(t, "[-----]", FormatMetricBar(-1, 0, 1, 5))
	assert.Equal(t, "-----", FormatMetricBar(1, 1, 1, 5))
	assert.Empty(t, FormatMetricBar(1, 0, 1, 0))
}
