// Package effort implements a carpalx-style typing effort model over a
// layout: per-key base and penalty effort, and per-triad stroke effort.
package effort

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"manoonchai/internal/layout"
)

// ErrInvalidArgument is returned when a single character is expected but
// the input holds zero or several.
var ErrInvalidArgument = errors.New("effort: invalid argument")

// MaxBaseEffort is the base effort of a key that is not on the layout, or
// sits outside the base effort table.
const MaxBaseEffort = 6.0

// baseEffortTable is indexed by physical row then column.
var baseEffortTable = [layout.PhysicalRows][]float64{
	layout.RowNumber: {4, 4, 4, 4, 5, 6, 4, 4, 4, 4, 5, 6},
	layout.RowUpper:  {2, 2, 2, 2, 2.5, 3, 2, 2, 2, 2, 2.5, 4, 6},
	layout.RowHome:   {0, 0, 0, 0, 2, 2, 0, 0, 0, 0, 2},
	layout.RowLower:  {2, 2, 2, 2, 3.5, 2, 2, 2, 2, 2},
}

var fingerPenalty = [layout.Fingers]float64{1, 0.5, 0, 0, 0, 0, 0, 0, 0.5, 1}

var rowPenalty = [layout.PhysicalRows]float64{
	layout.RowNumber: 1.5,
	layout.RowUpper:  0.5,
	layout.RowHome:   0,
	layout.RowLower:  1,
}

var handPenalty = map[layout.Hand]float64{
	layout.Left:  0.2,
	layout.Right: 0,
}

// Model scores text typed on one layout.
type Model struct {
	layout  *layout.Layout
	weights Weights
}

// NewModel creates a model for l.
func NewModel(l *layout.Layout, w Weights) *Model {
	return &Model{layout: l, weights: w}
}

// Layout returns the layout being scored.
func (m *Model) Layout() *layout.Layout { return m.layout }

// Weights returns the model coefficients.
func (m *Model) Weights() Weights { return m.weights }

func single(ch string) (rune, error) {
	if utf8.RuneCountInString(ch) != 1 {
		return 0, fmt.Errorf("%w: want one character, got %q", ErrInvalidArgument, ch)
	}
	r, _ := utf8.DecodeRuneInString(ch)
	return r, nil
}

func (m *Model) key(ch string) (layout.Key, error) {
	r, err := single(ch)
	if err != nil {
		return layout.Key{}, err
	}
	return m.layout.Key(r)
}

func baseEffort(k layout.Key) float64 {
	row := baseEffortTable[k.Row]
	if k.Column >= len(row) {
		return MaxBaseEffort
	}
	return row[k.Column]
}

func (m *Model) penaltyEffort(k layout.Key) float64 {
	w := m.weights
	return w.Finger*fingerPenalty[k.Finger] + w.Row*rowPenalty[k.Row] + w.Hand*handPenalty[k.Hand]
}

// BaseEffortKey returns the base effort of ch. A character missing from
// the layout costs MaxBaseEffort rather than failing.
func (m *Model) BaseEffortKey(ch string) (float64, error) {
	r, err := single(ch)
	if err != nil {
		return 0, err
	}
	k, err := m.layout.Key(r)
	if err != nil {
		if errors.Is(err, layout.ErrUnknownKey) {
			return MaxBaseEffort, nil
		}
		return 0, err
	}
	return baseEffort(k), nil
}

// PenaltyFinger returns the unweighted finger penalty of ch.
func (m *Model) PenaltyFinger(ch string) (float64, error) {
	k, err := m.key(ch)
	if err != nil {
		return 0, err
	}
	return fingerPenalty[k.Finger], nil
}

// PenaltyRow returns the unweighted row penalty of ch.
func (m *Model) PenaltyRow(ch string) (float64, error) {
	k, err := m.key(ch)
	if err != nil {
		return 0, err
	}
	return rowPenalty[k.Row], nil
}

// PenaltyHand returns the unweighted hand penalty of ch.
func (m *Model) PenaltyHand(ch string) (float64, error) {
	k, err := m.key(ch)
	if err != nil {
		return 0, err
	}
	return handPenalty[k.Hand], nil
}

// PenaltyEffortKey returns wf*finger + wr*row + wh*hand penalty of ch.
func (m *Model) PenaltyEffortKey(ch string) (float64, error) {
	k, err := m.key(ch)
	if err != nil {
		return 0, err
	}
	return m.penaltyEffort(k), nil
}
