// Package report scores a corpus on a layout and renders the result.
package report

import (
	"sort"
	"unicode"

	"manoonchai/internal/corpus"
	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
)

// costliestLimit is how many expensive triads a Summary keeps.
const costliestLimit = 10

// TriadCost is the effort one distinct triad contributes to a corpus.
type TriadCost struct {
	Triad  string  `json:"triad"`
	Count  int     `json:"count"`
	Effort float64 `json:"effort"` // Count x per-triad total
}

// Summary is the effort profile of a corpus typed on one layout.
type Summary struct {
	Layout   string  `json:"layout"`
	Runes    int     `json:"runes"`
	Mapped   int     `json:"mapped"`
	Unmapped int     `json:"unmapped"`
	Coverage float64 `json:"coverage"`
	Triads   int     `json:"triads"`

	TotalEffort   float64 `json:"total_effort"`
	BaseEffort    float64 `json:"base_effort"`
	PenaltyEffort float64 `json:"penalty_effort"`
	StrokeEffort  float64 `json:"stroke_effort"`
	MeanPerTriad  float64 `json:"mean_per_triad"`

	HandUsage    [2]int                       `json:"hand_usage"` // left, right
	RowUsage     [layout.PhysicalRows]int     `json:"row_usage"`
	FingerUsage  [layout.Fingers]int          `json:"finger_usage"`
	ShiftedRatio float64                      `json:"shifted_ratio"`
	HandAlt      [effort.HandAltClasses]int   `json:"hand_alt"`
	RowAlt       [effort.RowAltClasses]int    `json:"row_alt"`
	FingerAlt    [effort.FingerAltClasses]int `json:"finger_alt"`

	Costliest []TriadCost `json:"costliest,omitempty"`
	// Missing lists printable characters the layout cannot type, most
	// frequent first.
	Missing []string `json:"missing,omitempty"`
}

// Share returns n as a fraction of the mapped keystrokes.
func (s *Summary) Share(n int) float64 {
	if s.Mapped == 0 {
		return 0
	}
	return float64(n) / float64(s.Mapped)
}

// TriadShare returns n as a fraction of the triads.
func (s *Summary) TriadShare(n int) float64 {
	if s.Triads == 0 {
		return 0
	}
	return float64(n) / float64(s.Triads)
}

// Analyze scores c on the model's layout.
func Analyze(m *effort.Model, c *corpus.Corpus) (*Summary, error) {
	l := m.Layout()
	segs, st := c.Segments(l)

	s := &Summary{
		Layout:   l.Name(),
		Runes:    st.Runes,
		Mapped:   st.Mapped,
		Unmapped: st.Unmapped,
		Coverage: st.Coverage(),
	}

	shifted := 0
	costs := make(map[[3]rune]*TriadCost)
	for _, seg := range segs {
		for _, r := range seg {
			k, err := l.Key(r)
			if err != nil {
				return nil, err
			}
			if k.Hand == layout.Left {
				s.HandUsage[0]++
			} else {
				s.HandUsage[1]++
			}
			s.RowUsage[k.Row]++
			s.FingerUsage[k.Finger]++
			if k.Shifted {
				shifted++
			}
		}

		err := m.Triads(seg, func(t [3]rune, b effort.Breakdown) {
			s.Triads++
			s.TotalEffort += b.Total
			s.BaseEffort += b.Base
			s.PenaltyEffort += b.Penalty
			s.StrokeEffort += b.Stroke
			s.HandAlt[b.Hand]++
			s.RowAlt[b.Row]++
			s.FingerAlt[b.Finger]++

			tc, ok := costs[t]
			if !ok {
				tc = &TriadCost{Triad: string(t[:])}
				costs[t] = tc
			}
			tc.Count++
			tc.Effort += b.Total
		})
		if err != nil {
			return nil, err
		}
	}

	if s.Mapped > 0 {
		s.ShiftedRatio = float64(shifted) / float64(s.Mapped)
	}
	if s.Triads > 0 {
		s.MeanPerTriad = s.TotalEffort / float64(s.Triads)
	}
	s.Costliest = costliest(costs, costliestLimit)

	for _, r := range st.Missing() {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			s.Missing = append(s.Missing, string(r))
		}
	}
	return s, nil
}

func costliest(costs map[[3]rune]*TriadCost, n int) []TriadCost {
	out := make([]TriadCost, 0, len(costs))
	for _, tc := range costs {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Effort != out[j].Effort {
			return out[i].Effort > out[j].Effort
		}
		return out[i].Triad < out[j].Triad
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Rank orders summaries from lowest to highest mean effort per triad.
// Mean effort is comparable across layouts even when their coverage of the
// corpus differs.
func Rank(summaries []*Summary) []*Summary {
	out := append([]*Summary(nil), summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeanPerTriad < out[j].MeanPerTriad
	})
	return out
}
