package effort

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manoonchai/internal/layout"
)

func newPattachote(t *testing.T) *Model {
	t.Helper()
	l, err := layout.Load("pattachote", layout.Mask{})
	require.NoError(t, err)
	return NewModel(l, DefaultWeights())
}

func splitChars(s string) []string {
	var out []string
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// =============================================================================
// Base effort
// =============================================================================

func TestBaseEffortKey_HomeRow(t *testing.T) {
	m := newPattachote(t)
	want := map[string]float64{
		"้": 0, "ท": 0, "ง": 0, "ก": 0, "ั": 2, "ี": 2,
		"า": 0, "น": 0, "เ": 0, "ไ": 0, "ข": 2,
	}
	for ch, w := range want {
		got, err := m.BaseEffortKey(ch)
		require.NoError(t, err)
		assert.Equal(t, w, got, "base effort of %q", ch)
	}
}

func TestBaseEffortKey_Rows(t *testing.T) {
	m := newPattachote(t)
	tests := []struct {
		name  string
		chars string
		want  []float64
	}{
		{"upper", "็ตยอร่ดมวแใฌฃ", []float64{2, 2, 2, 2, 2.5, 3, 2, 2, 2, 2, 2.5, 4, 6}},
		{"lower", "บปลหิคสะจพ", []float64{2, 2, 2, 2, 3.5, 2, 2, 2, 2, 2}},
		{"number", "1๒๓๔๕ู๗๘๙๐๑๖", []float64{4, 4, 4, 4, 5, 6, 4, 4, 4, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []float64
			for _, ch := range splitChars(tt.chars) {
				e, err := m.BaseEffortKey(ch)
				require.NoError(t, err)
				got = append(got, e)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseEffortKey_ShiftedUsesPhysicalKey(t *testing.T) {
	m := newPattachote(t)
	unshifted, err := m.BaseEffortKey("บ")
	require.NoError(t, err)
	shifted, err := m.BaseEffortKey("ฎ")
	require.NoError(t, err)
	assert.Equal(t, unshifted, shifted)
}

func TestBaseEffortKey_UnknownFallsBack(t *testing.T) {
	m := newPattachote(t)
	for _, ch := range []string{"a", "0"} {
		got, err := m.BaseEffortKey(ch)
		require.NoError(t, err)
		assert.Equal(t, MaxBaseEffort, got)
	}
}

func TestBaseEffortKey_InvalidArgument(t *testing.T) {
	m := newPattachote(t)
	for _, in := range []string{"อะ", ""} {
		_, err := m.BaseEffortKey(in)
		assert.ErrorIs(t, err, ErrInvalidArgument, "input %q", in)
	}
}

// =============================================================================
// Penalty effort
// =============================================================================

func TestPenaltyFinger_HomeRow(t *testing.T) {
	m := newPattachote(t)
	chars := splitChars("้ทงกัีานเไข")
	want := []float64{1, 0.5, 0, 0, 0, 0, 0, 0, 0.5, 1, 1}
	for i, ch := range chars {
		got, err := m.PenaltyFinger(ch)
		require.NoError(t, err)
		assert.Equal(t, want[i], got, "finger penalty of %q", ch)
	}
}

func TestPenaltyRowAndHand(t *testing.T) {
	m := newPattachote(t)

	row, err := m.PenaltyRow("ก")
	require.NoError(t, err)
	assert.Equal(t, 0.0, row)
	row, err = m.PenaltyRow("ห")
	require.NoError(t, err)
	assert.Equal(t, 1.0, row)
	row, err = m.PenaltyRow("ว")
	require.NoError(t, err)
	assert.Equal(t, 0.5, row)
	row, err = m.PenaltyRow("๒")
	require.NoError(t, err)
	assert.Equal(t, 1.5, row)

	hand, err := m.PenaltyHand("ก")
	require.NoError(t, err)
	assert.Equal(t, 0.2, hand)
	hand, err = m.PenaltyHand("า")
	require.NoError(t, err)
	assert.Equal(t, 0.0, hand)
}

func TestPenaltyEffortKey_Weighted(t *testing.T) {
	m := newPattachote(t)
	wf, wr, wh := 2.5948, 1.3088, 1.0

	got, err := m.PenaltyEffortKey("บ")
	require.NoError(t, err)
	assert.InDelta(t, wf*1+wr*1+wh*0.2, got, 1e-12)

	got, err = m.PenaltyEffortKey("ว")
	require.NoError(t, err)
	assert.InDelta(t, wf*0.5+wr*0.5+wh*0, got, 1e-12)
}

func TestPenaltyEffortKey_LinearIdentity(t *testing.T) {
	m := newPattachote(t)
	w := m.Weights()
	mat := m.Layout().Matrix()
	for _, row := range mat {
		for _, r := range row {
			ch := string(r)
			pf, err := m.PenaltyFinger(ch)
			require.NoError(t, err)
			pr, err := m.PenaltyRow(ch)
			require.NoError(t, err)
			ph, err := m.PenaltyHand(ch)
			require.NoError(t, err)
			got, err := m.PenaltyEffortKey(ch)
			require.NoError(t, err)
			assert.InDelta(t, w.Finger*pf+w.Row*pr+w.Hand*ph, got, 1e-12, "char %q", ch)
		}
	}
}

func TestPenalty_UnknownKey(t *testing.T) {
	m := newPattachote(t)
	_, err := m.PenaltyEffortKey("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, layout.ErrUnknownKey))

	var uk *layout.UnknownKeyError
	require.ErrorAs(t, err, &uk)
	assert.Equal(t, 'a', uk.Key)

	_, err = m.PenaltyFinger("ab")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
