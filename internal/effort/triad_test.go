package effort

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manoonchai/internal/layout"
)

func TestHandAltStrokeEffort(t *testing.T) {
	m := newPattachote(t)
	cases := map[int][]string{
		0: {"ยาว", "ไทย"},
		1: {"กาง", "จอด"},
		2: {"กลบ", "ดาว"},
	}
	for want, words := range cases {
		for _, w := range words {
			got, err := m.HandAltStrokeEffort(w)
			require.NoError(t, err)
			assert.Equal(t, want, got, "hand alternation of %q", w)
		}
	}
}

func TestRowAltStrokeEffort(t *testing.T) {
	m := newPattachote(t)
	cases := map[int][]string{
		0: {"กาง", "ตอม", "หลบ"},
		1: {"ตอน", "แมง", "เกจ"},
		2: {"ลาน", "งวด", "จอย"},
		3: {"เอก", "มาย", "เบา"},
		4: {"วาบ", "ตาล", "วีล"},
		5: {"เวบ", "กอบ", "ทอส", "อลั"},
		6: {"บ้อ", "พาย", "ลาว"},
		7: {"กลอ", "ทลว", "ไพร", "ครั"},
	}
	for want, words := range cases {
		for _, w := range words {
			got, err := m.RowAltStrokeEffort(w)
			require.NoError(t, err)
			assert.Equal(t, want, got, "row alternation of %q", w)
		}
	}
}

func TestFingerAltStrokeEffort(t *testing.T) {
	m := newPattachote(t)
	cases := map[int][]string{
		0: {"ทอน", "บอด", "ลอา"},
		1: {"แดด", "เกก", "แบบ"},
		2: {"เท่", "ขัน", "เบา", "เอา"},
		3: {"ท้า", "เข้", "อ้น"},
		4: {"สกา", "เลว", "ดอด"},
		5: {"ออก", "ววจ", "ปทท"},
		6: {"แอก", "ไลย", "เบ็"},
		7: {"ริก", "สาด", "หอก"},
	}
	for want, words := range cases {
		for _, w := range words {
			got, err := m.FingerAltStrokeEffort(w)
			require.NoError(t, err)
			assert.Equal(t, want, got, "finger alternation of %q", w)
		}
	}
}

func TestClassifiers_RejectWrongLength(t *testing.T) {
	m := newPattachote(t)
	for _, in := range []string{"", "กา", "กากา"} {
		_, err := m.HandAltStrokeEffort(in)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = m.RowAltStrokeEffort(in)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = m.FingerAltStrokeEffort(in)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestClassifiers_UnknownKey(t *testing.T) {
	m := newPattachote(t)
	_, err := m.RowAltStrokeEffort("กaง")
	assert.ErrorIs(t, err, layout.ErrUnknownKey)
}

func TestRowRules_MutuallyExclusiveCover(t *testing.T) {
	// Every combination of physical rows lands in exactly one class and
	// every class is reachable.
	seen := make(map[int]bool)
	for a := 0; a < layout.PhysicalRows; a++ {
		for b := 0; b < layout.PhysicalRows; b++ {
			for c := 0; c < layout.PhysicalRows; c++ {
				k := [3]layout.Key{{Row: a}, {Row: b}, {Row: c}}
				class := rowAlt(k)
				require.GreaterOrEqual(t, class, 0)
				require.Less(t, class, RowAltClasses)
				seen[class] = true
			}
		}
	}
	assert.Len(t, seen, RowAltClasses)
}

func TestStrokeEffort_IdealTriadsAreFree(t *testing.T) {
	m := newPattachote(t)
	for _, w := range []string{"งาน", "ทาน"} {
		got, err := m.StrokeEffort(w)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got, "stroke effort of %q", w)
	}
}

func TestStrokeEffort_ShortText(t *testing.T) {
	m := newPattachote(t)
	for _, w := range []string{"", "ก", "กา"} {
		got, err := m.StrokeEffort(w)
		require.NoError(t, err)
		assert.Zero(t, got)
	}
}

func TestStrokeEffort_SumsSlidingTriads(t *testing.T) {
	m := newPattachote(t)
	w := m.Weights()

	// กลบ is one hand (2), rows home-lower-lower (1), fingers 3,2,0
	// all distinct and monotonic (0).
	want := w.PH*2 + w.PR*1 + w.PF*0
	got, err := m.StrokeEffort("กลบ")
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	// Two triads: กลบ and ลบา.
	first, err := m.TriadEffort("กลบ")
	require.NoError(t, err)
	second, err := m.TriadEffort("ลบา")
	require.NoError(t, err)
	got, err = m.StrokeEffort("กลบา")
	require.NoError(t, err)
	assert.InDelta(t, first.Stroke+second.Stroke, got, 1e-12)
}

func TestTriadStrokeEffort(t *testing.T) {
	m := newPattachote(t)
	w := m.Weights()

	got, err := m.TriadStrokeEffort("กลบ")
	require.NoError(t, err)
	assert.InDelta(t, w.PH*2+w.PR*1, got, 1e-12)

	got, err = m.TriadStrokeEffort("งาน")
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = m.TriadStrokeEffort("กลบา")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTriadEffort_Combination(t *testing.T) {
	m := newPattachote(t)
	w := m.Weights()

	b, err := m.TriadEffort("งาน")
	require.NoError(t, err)
	// Home row keys on index and middle fingers carry no base effort.
	assert.Zero(t, b.Base)
	assert.Zero(t, b.Stroke)

	// ง is left hand (0.2 penalty); า and น are right-hand home keys
	// with no penalty, so the fold collapses to the first term.
	p1 := w.Hand * 0.2
	assert.InDelta(t, w.K1*p1, b.Penalty, 1e-12)
	assert.InDelta(t, w.KP*b.Penalty, b.Total, 1e-12)
}

func TestTriadEffort_MatchesTriadRunes(t *testing.T) {
	m := newPattachote(t)
	a, err := m.TriadEffort("เวบ")
	require.NoError(t, err)
	b, err := m.TriadRunes([3]rune{'เ', 'ว', 'บ'})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 5, a.Row)
}

func TestTotalEffort_NonNegativeAndFinite(t *testing.T) {
	m := newPattachote(t)
	got, err := m.TotalEffort("สวัสดีครับทุกคน")
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.False(t, math.IsInf(got, 0) || math.IsNaN(got))
}

func TestTotalEffort_UnknownCharacterFails(t *testing.T) {
	m := newPattachote(t)
	_, err := m.TotalEffort("กาa")
	assert.ErrorIs(t, err, layout.ErrUnknownKey)
}
