// Package layout maps characters to physical key coordinates on an 8-row
// Thai keyboard matrix and supports lock-aware key swapping.
//
// A Layout is not safe for concurrent mutation. Workers that score
// candidate layouts in parallel must each own a Clone.
package layout

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnknownKey is matched by UnknownKeyError.
var ErrUnknownKey = errors.New("layout: unknown key")

// UnknownKeyError reports a character that the layout does not contain.
type UnknownKeyError struct {
	Key    rune
	Layout string
}

func (e *UnknownKeyError) Error() string {
	if e.Layout == "" {
		return fmt.Sprintf("layout: unknown key %q", e.Key)
	}
	return fmt.Sprintf("layout %s: unknown key %q", e.Layout, e.Key)
}

// Is makes errors.Is(err, ErrUnknownKey) succeed.
func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrUnknownKey
}

// Key is the full description of one character on a layout.
type Key struct {
	Char     rune
	Position Position
	Row      int // physical row, 0-3
	Column   int
	Finger   Finger
	Hand     Hand
	Shifted  bool
}

// SameKey reports whether two keys share a physical key cap.
func (k Key) SameKey(o Key) bool {
	return k.Row == o.Row && k.Column == o.Column
}

type cacheEntry struct {
	pos   Position
	found bool
	gen   uint64
}

// Layout wraps a matrix and its locked-key mask.
type Layout struct {
	name   string
	matrix Matrix
	locked Mask

	// gen is bumped on every matrix change; cache entries from an older
	// generation are recomputed on read.
	gen   uint64
	cache map[rune]cacheEntry
}

// New creates a layout. The matrix and mask are copied.
func New(name string, m Matrix, locked Mask) (*Layout, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Layout{
		name:   name,
		matrix: m.Clone(),
		locked: locked.Clone(),
		gen:    1,
		cache:  make(map[rune]cacheEntry),
	}, nil
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// Generation returns the matrix generation. It changes whenever the matrix does.
func (l *Layout) Generation() uint64 { return l.gen }

// Matrix returns a copy of the current matrix.
func (l *Layout) Matrix() Matrix { return l.matrix.Clone() }

// Locked returns a copy of the locked-key mask.
func (l *Layout) Locked() Mask { return l.locked.Clone() }

// SetMatrix replaces the matrix.
func (l *Layout) SetMatrix(m Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	l.matrix = m.Clone()
	l.gen++
	return nil
}

// Clone returns an independent layout with the same matrix and mask.
func (l *Layout) Clone() *Layout {
	return &Layout{
		name:   l.name,
		matrix: l.matrix.Clone(),
		locked: l.locked.Clone(),
		gen:    1,
		cache:  make(map[rune]cacheEntry),
	}
}

// Locate returns the first position of ch, scanning rows top to bottom.
func (l *Layout) Locate(ch rune) (Position, bool) {
	if e, ok := l.cache[ch]; ok && e.gen == l.gen {
		return e.pos, e.found
	}
	pos, found := l.scan(ch)
	l.cache[ch] = cacheEntry{pos: pos, found: found, gen: l.gen}
	return pos, found
}

func (l *Layout) scan(ch rune) (Position, bool) {
	for r, row := range l.matrix {
		for c, k := range row {
			if k == ch {
				return Position{Row: r, Column: c}, true
			}
		}
	}
	return Position{Row: -1, Column: -1}, false
}

func (l *Layout) unknown(ch rune) error {
	return &UnknownKeyError{Key: ch, Layout: l.name}
}

// Contains reports whether ch is on the layout.
func (l *Layout) Contains(ch rune) bool {
	_, ok := l.Locate(ch)
	return ok
}

// Row returns the physical (unshifted) row of ch.
func (l *Layout) Row(ch rune) (int, error) {
	pos, ok := l.Locate(ch)
	if !ok {
		return -1, l.unknown(ch)
	}
	return pos.Physical(), nil
}

// IsShifted reports whether ch requires shift. Unknown keys are not shifted.
func (l *Layout) IsShifted(ch rune) bool {
	pos, ok := l.Locate(ch)
	return ok && pos.Shifted()
}

// Column returns the column of ch.
func (l *Layout) Column(ch rune) (int, error) {
	pos, ok := l.Locate(ch)
	if !ok {
		return -1, l.unknown(ch)
	}
	return pos.Column, nil
}

// Finger returns the finger that types ch.
func (l *Layout) Finger(ch rune) (Finger, error) {
	col, err := l.Column(ch)
	if err != nil {
		return 0, err
	}
	f, ok := FingerOf(col)
	if !ok {
		return 0, fmt.Errorf("%w: column %d has no finger", ErrRowTooWide, col)
	}
	return f, nil
}

// Hand returns the hand that types ch.
func (l *Layout) Hand(ch rune) (Hand, error) {
	col, err := l.Column(ch)
	if err != nil {
		return "", err
	}
	return HandOf(col), nil
}

// Key returns every coordinate of ch at once.
func (l *Layout) Key(ch rune) (Key, error) {
	pos, ok := l.Locate(ch)
	if !ok {
		return Key{}, l.unknown(ch)
	}
	f, ok := FingerOf(pos.Column)
	if !ok {
		return Key{}, fmt.Errorf("%w: column %d has no finger", ErrRowTooWide, pos.Column)
	}
	return Key{
		Char:     ch,
		Position: pos,
		Row:      pos.Physical(),
		Column:   pos.Column,
		Finger:   f,
		Hand:     HandOf(pos.Column),
		Shifted:  pos.Shifted(),
	}, nil
}

// IsLocked reports whether p is locked.
func (l *Layout) IsLocked(p Position) bool {
	return l.locked.Locked(p)
}

// UnlockedPositions lists every existing position that may be swapped.
func (l *Layout) UnlockedPositions() []Position {
	var out []Position
	for r, row := range l.matrix {
		for c := range row {
			p := Position{Row: r, Column: c}
			if !l.locked.Locked(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// SwapUnlockedPair exchanges the characters at a and b. It is a no-op and
// returns false when either position is locked, missing, or a == b.
func (l *Layout) SwapUnlockedPair(a, b Position) bool {
	if a == b || !l.matrix.Contains(a) || !l.matrix.Contains(b) {
		return false
	}
	if l.locked.Locked(a) || l.locked.Locked(b) {
		return false
	}
	l.matrix[a.Row][a.Column], l.matrix[b.Row][b.Column] = l.matrix[b.Row][b.Column], l.matrix[a.Row][a.Column]
	l.gen++
	return true
}

// SwapRandomPair swaps two distinct unlocked positions chosen with rng.
// ok is false when fewer than two positions are unlocked.
func (l *Layout) SwapRandomPair(rng *rand.Rand) (a, b Position, ok bool) {
	free := l.UnlockedPositions()
	if len(free) < 2 {
		return Position{}, Position{}, false
	}
	i := rng.Intn(len(free))
	j := rng.Intn(len(free) - 1)
	if j >= i {
		j++
	}
	a, b = free[i], free[j]
	return a, b, l.SwapUnlockedPair(a, b)
}
