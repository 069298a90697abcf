package effort

import (
	"fmt"
	"unicode/utf8"

	"manoonchai/internal/layout"
)

// Breakdown is the effort of one triad.
type Breakdown struct {
	Base    float64 `json:"base"`
	Penalty float64 `json:"penalty"`
	Stroke  float64 `json:"stroke"`
	Total   float64 `json:"total"`

	Hand   int `json:"hand_alt"`
	Row    int `json:"row_alt"`
	Finger int `json:"finger_alt"`
}

func triad(s string) ([3]rune, error) {
	var t [3]rune
	if utf8.RuneCountInString(s) != 3 {
		return t, fmt.Errorf("%w: want three characters, got %q", ErrInvalidArgument, s)
	}
	i := 0
	for _, r := range s {
		t[i] = r
		i++
	}
	return t, nil
}

func (m *Model) triadKeys(t [3]rune) ([3]layout.Key, error) {
	var k [3]layout.Key
	for i, r := range t {
		key, err := m.layout.Key(r)
		if err != nil {
			return k, err
		}
		k[i] = key
	}
	return k, nil
}

func (m *Model) keysOf(s string) ([3]layout.Key, error) {
	t, err := triad(s)
	if err != nil {
		return [3]layout.Key{}, err
	}
	return m.triadKeys(t)
}

// HandAltStrokeEffort classifies hand alternation in a triad (0-2).
func (m *Model) HandAltStrokeEffort(s string) (int, error) {
	k, err := m.keysOf(s)
	if err != nil {
		return 0, err
	}
	return handAlt(k), nil
}

// RowAltStrokeEffort classifies row alternation in a triad (0-7).
func (m *Model) RowAltStrokeEffort(s string) (int, error) {
	k, err := m.keysOf(s)
	if err != nil {
		return 0, err
	}
	return rowAlt(k), nil
}

// FingerAltStrokeEffort classifies finger alternation in a triad (0-7).
func (m *Model) FingerAltStrokeEffort(s string) (int, error) {
	k, err := m.keysOf(s)
	if err != nil {
		return 0, err
	}
	return fingerAlt(k), nil
}

// TriadStrokeEffort is the weighted stroke path effort of one triad:
// PH·hand + PR·row + PF·finger.
func (m *Model) TriadStrokeEffort(s string) (float64, error) {
	k, err := m.keysOf(s)
	if err != nil {
		return 0, err
	}
	return m.breakdown(k).Stroke, nil
}

func (m *Model) breakdown(k [3]layout.Key) Breakdown {
	w := m.weights
	b := Breakdown{
		Hand:   handAlt(k),
		Row:    rowAlt(k),
		Finger: fingerAlt(k),
	}
	b.Stroke = w.PH*float64(b.Hand) + w.PR*float64(b.Row) + w.PF*float64(b.Finger)

	b1, b2, b3 := baseEffort(k[0]), baseEffort(k[1]), baseEffort(k[2])
	b.Base = w.K1 * b1 * (1 + w.K2*b2*(1+w.K3*b3))

	p1, p2, p3 := m.penaltyEffort(k[0]), m.penaltyEffort(k[1]), m.penaltyEffort(k[2])
	b.Penalty = w.K1 * p1 * (1 + w.K2*p2*(1+w.K3*p3))

	b.Total = w.KB*b.Base + w.KP*b.Penalty + w.KS*b.Stroke
	return b
}

// TriadEffort returns the full effort breakdown of a three-character string.
func (m *Model) TriadEffort(s string) (Breakdown, error) {
	k, err := m.keysOf(s)
	if err != nil {
		return Breakdown{}, err
	}
	return m.breakdown(k), nil
}

// TriadRunes is TriadEffort for a triad already split into runes.
func (m *Model) TriadRunes(t [3]rune) (Breakdown, error) {
	k, err := m.triadKeys(t)
	if err != nil {
		return Breakdown{}, err
	}
	return m.breakdown(k), nil
}

// Triads calls fn for every sliding triad of text. Every character must be
// on the layout.
func (m *Model) Triads(text string, fn func(t [3]rune, b Breakdown)) error {
	keys := make([]layout.Key, 0, len(text))
	for _, r := range text {
		k, err := m.layout.Key(r)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}
	for i := 0; i+2 < len(keys); i++ {
		k := [3]layout.Key{keys[i], keys[i+1], keys[i+2]}
		fn([3]rune{k[0].Char, k[1].Char, k[2].Char}, m.breakdown(k))
	}
	return nil
}

// StrokeEffort sums the stroke path effort of every triad in text. Text
// shorter than three characters has no triads and scores 0.
func (m *Model) StrokeEffort(text string) (float64, error) {
	var total float64
	err := m.Triads(text, func(_ [3]rune, b Breakdown) {
		total += b.Stroke
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalEffort sums the combined base, penalty and stroke effort of every
// triad in text.
func (m *Model) TotalEffort(text string) (float64, error) {
	var total float64
	err := m.Triads(text, func(_ [3]rune, b Breakdown) {
		total += b.Total
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
