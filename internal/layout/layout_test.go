package layout

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pattachote(t *testing.T) *Layout {
	t.Helper()
	l, err := Load("pattachote", Mask{})
	require.NoError(t, err)
	return l
}

func TestLocate_FirstOccurrenceWins(t *testing.T) {
	l := pattachote(t)

	// ั appears on the home row and again on the shifted lower row.
	pos, ok := l.Locate('ั')
	require.True(t, ok)
	assert.Equal(t, Position{Row: 2, Column: 4}, pos)
	assert.Equal(t, []rune{'ั'}, l.Matrix().Duplicates())
}

func TestLookups(t *testing.T) {
	l := pattachote(t)

	tests := []struct {
		ch      rune
		row     int
		col     int
		finger  Finger
		hand    Hand
		shifted bool
	}{
		{'ก', RowHome, 3, LeftIndex, Left, false},
		{'า', RowHome, 6, RightIndex, Right, false},
		{'ต', RowUpper, 1, LeftRing, Left, false},
		{'พ', RowLower, 9, RightPinky, Right, false},
		{'ฃ', RowUpper, 12, RightPinky, Right, false},
		{'ฎ', RowLower, 0, LeftPinky, Left, true},
		{'1', RowNumber, 0, LeftPinky, Left, true},
	}
	for _, tt := range tests {
		row, err := l.Row(tt.ch)
		require.NoError(t, err)
		assert.Equal(t, tt.row, row, "row of %q", tt.ch)

		col, err := l.Column(tt.ch)
		require.NoError(t, err)
		assert.Equal(t, tt.col, col, "column of %q", tt.ch)

		f, err := l.Finger(tt.ch)
		require.NoError(t, err)
		assert.Equal(t, tt.finger, f, "finger of %q", tt.ch)

		h, err := l.Hand(tt.ch)
		require.NoError(t, err)
		assert.Equal(t, tt.hand, h, "hand of %q", tt.ch)

		assert.Equal(t, tt.shifted, l.IsShifted(tt.ch), "shift of %q", tt.ch)
	}
}

func TestLookups_UnknownKey(t *testing.T) {
	l := pattachote(t)

	_, err := l.Row('x')
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKey))

	_, err = l.Finger('x')
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = l.Hand('x')
	assert.ErrorIs(t, err, ErrUnknownKey)

	pos, ok := l.Locate('x')
	assert.False(t, ok)
	assert.Equal(t, Position{Row: -1, Column: -1}, pos)
	assert.False(t, l.IsShifted('x'))
}

func TestSwapUnlockedPair_Idempotent(t *testing.T) {
	l := pattachote(t)
	before := l.Matrix()

	a, b := Position{Row: 2, Column: 3}, Position{Row: 1, Column: 7}
	require.True(t, l.SwapUnlockedPair(a, b))
	assert.False(t, l.Matrix().Equal(before))
	require.True(t, l.SwapUnlockedPair(a, b))

	if diff := cmp.Diff(before.Strings(), l.Matrix().Strings()); diff != "" {
		t.Errorf("double swap changed matrix (-want +got):\n%s", diff)
	}
}

func TestSwapUnlockedPair_Rejected(t *testing.T) {
	m, err := Preset("pattachote")
	require.NoError(t, err)
	l, err := New("locked", m, LockRows(m, RowHome))
	require.NoError(t, err)
	gen := l.Generation()

	tests := []struct {
		name string
		a, b Position
	}{
		{"locked first", Position{2, 0}, Position{1, 0}},
		{"locked second", Position{1, 0}, Position{2, 5}},
		{"both locked", Position{2, 0}, Position{2, 1}},
		{"same position", Position{1, 1}, Position{1, 1}},
		{"out of range column", Position{1, 1}, Position{3, 10}},
		{"out of range row", Position{8, 0}, Position{1, 1}},
		{"negative", Position{-1, 0}, Position{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, l.SwapUnlockedPair(tt.a, tt.b))
			assert.True(t, l.Matrix().Equal(m))
			assert.Equal(t, gen, l.Generation())
		})
	}
}

func TestCacheCoherence_AfterSwap(t *testing.T) {
	l := pattachote(t)

	// Warm the cache.
	col, err := l.Column('ก')
	require.NoError(t, err)
	require.Equal(t, 3, col)
	row, err := l.Row('ม')
	require.NoError(t, err)
	require.Equal(t, RowUpper, row)

	require.True(t, l.SwapUnlockedPair(Position{2, 3}, Position{1, 7}))

	col, err = l.Column('ก')
	require.NoError(t, err)
	assert.Equal(t, 7, col)
	row, err = l.Row('ก')
	require.NoError(t, err)
	assert.Equal(t, RowUpper, row)
	row, err = l.Row('ม')
	require.NoError(t, err)
	assert.Equal(t, RowHome, row)
}

func TestCacheCoherence_AfterSetMatrix(t *testing.T) {
	l := pattachote(t)
	_, ok := l.Locate('ฟ')
	require.True(t, ok)
	_, ok = l.Locate('a')
	require.False(t, ok)

	m, err := Preset("ikbaeb")
	require.NoError(t, err)
	// Put an ASCII letter where ห sits on ikbaeb.
	m[2][0] = 'a'
	require.NoError(t, l.SetMatrix(m))

	pos, ok := l.Locate('a')
	require.True(t, ok)
	assert.Equal(t, Position{Row: 2, Column: 0}, pos)

	pos, ok = l.Locate('ฟ')
	require.True(t, ok)
	assert.Equal(t, Position{Row: 6, Column: 0}, pos)
}

func TestSetMatrix_RejectsBadShape(t *testing.T) {
	l := pattachote(t)
	gen := l.Generation()

	m := l.Matrix()
	m[5] = m[5][:3]
	assert.ErrorIs(t, l.SetMatrix(m), ErrShapeMismatch)

	m = l.Matrix()
	for r := range m {
		m[r] = append(m[r], []rune("๑๒๓๔๕๖๗")...)
	}
	assert.ErrorIs(t, l.SetMatrix(m), ErrRowTooWide)
	assert.Equal(t, gen, l.Generation())
}

func TestClone_Independent(t *testing.T) {
	l := pattachote(t)
	c := l.Clone()
	require.True(t, c.SwapUnlockedPair(Position{2, 0}, Position{2, 1}))

	pos, _ := l.Locate('้')
	assert.Equal(t, Position{Row: 2, Column: 0}, pos)
	pos, _ = c.Locate('้')
	assert.Equal(t, Position{Row: 2, Column: 1}, pos)
	assert.Equal(t, l.Name(), c.Name())
}

func TestSwapRandomPair_RespectsLocks(t *testing.T) {
	m, err := Preset("pattachote")
	require.NoError(t, err)
	mask := LockRows(m, RowNumber, RowUpper, RowLower, 4, 5, 6, 7)
	l, err := New("home-only", m, mask)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a, b, ok := l.SwapRandomPair(rng)
		require.True(t, ok)
		assert.NotEqual(t, a, b)
		assert.Equal(t, RowHome, a.Row)
		assert.Equal(t, RowHome, b.Row)
	}

	cur := l.Matrix()
	for r := range cur {
		if r == RowHome {
			continue
		}
		assert.Equal(t, string(m[r]), string(cur[r]), "locked row %d moved", r)
	}
}

func TestSwapRandomPair_TooFewFree(t *testing.T) {
	m, err := Preset("pattachote")
	require.NoError(t, err)
	l, err := New("frozen", m, LockRows(m, 0, 1, 2, 3, 4, 5, 6, 7))
	require.NoError(t, err)

	_, _, ok := l.SwapRandomPair(rand.New(rand.NewSource(1)))
	assert.False(t, ok)
	assert.Empty(t, l.UnlockedPositions())
}

func TestUnlockedPositions(t *testing.T) {
	m, err := Preset("pattachote")
	require.NoError(t, err)
	l, err := New("p", m, LockRows(m, RowNumber, 4))
	require.NoError(t, err)

	total := 0
	for _, row := range m {
		total += len(row)
	}
	free := l.UnlockedPositions()
	assert.Len(t, free, total-2*len(m[RowNumber]))
	for _, p := range free {
		assert.False(t, l.IsLocked(p))
	}
}

func TestNew_CopiesInputs(t *testing.T) {
	m, err := Preset("kedmanee")
	require.NoError(t, err)
	l, err := New("k", m, Mask{})
	require.NoError(t, err)

	m[0][0] = 'z'
	got := l.Matrix()
	assert.NotEqual(t, 'z', got[0][0])
}
