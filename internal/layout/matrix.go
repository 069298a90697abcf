package layout

import (
	"errors"
	"fmt"
)

// Geometry of every supported layout: 4 unshifted rows followed by their
// 4 shifted counterparts.
const (
	// Rows is the number of rows in a matrix.
	Rows = 8
	// PhysicalRows is the number of physical key rows (unshifted).
	PhysicalRows = 4
)

// Physical row indices.
const (
	RowNumber = 0
	RowUpper  = 1
	RowHome   = 2
	RowLower  = 3
)

// Placeholder occupies positions that carry no assigned symbol.
const Placeholder = '๛'

// Matrix errors.
var (
	ErrRowCount      = errors.New("layout: matrix must have 8 rows")
	ErrShapeMismatch = errors.New("layout: shifted row width differs from unshifted row")
	ErrRowTooWide    = errors.New("layout: row wider than finger table")
	ErrOutOfRange    = errors.New("layout: position out of range")
)

// Matrix is an 8-row grid of characters. Row r and row r+4 describe the
// unshifted and shifted symbol of the same physical keys.
type Matrix [Rows][]rune

// Mask marks locked positions; it is parallel to a Matrix. Entries missing
// from a short or nil row are unlocked.
type Mask [Rows][]bool

// Position is a coordinate in the matrix. Row is the raw row (0-7).
type Position struct {
	Row    int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Column)
}

// Physical returns the unshifted row of the position.
func (p Position) Physical() int {
	return p.Row % PhysicalRows
}

// Shifted reports whether the position lies on a shifted row.
func (p Position) Shifted() bool {
	return p.Row >= PhysicalRows
}

// ParseMatrix builds a matrix from one string per row, one rune per key.
func ParseMatrix(rows [Rows]string) Matrix {
	var m Matrix
	for i, row := range rows {
		m[i] = []rune(row)
	}
	return m
}

// Validate checks the row pairing and width constraints.
func (m Matrix) Validate() error {
	for r := 0; r < PhysicalRows; r++ {
		if len(m[r]) != len(m[r+PhysicalRows]) {
			return fmt.Errorf("%w: row %d has %d keys, row %d has %d",
				ErrShapeMismatch, r, len(m[r]), r+PhysicalRows, len(m[r+PhysicalRows]))
		}
	}
	for r, row := range m {
		if len(row) > len(FingerTable) {
			return fmt.Errorf("%w: row %d has %d keys (max %d)", ErrRowTooWide, r, len(row), len(FingerTable))
		}
	}
	return nil
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	var c Matrix
	for i, row := range m {
		c[i] = append([]rune(nil), row...)
	}
	return c
}

// Equal reports whether two matrices hold the same characters.
func (m Matrix) Equal(o Matrix) bool {
	for i := range m {
		if len(m[i]) != len(o[i]) {
			return false
		}
		for j := range m[i] {
			if m[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}

// Contains reports whether p addresses an existing key.
func (m Matrix) Contains(p Position) bool {
	return p.Row >= 0 && p.Row < Rows && p.Column >= 0 && p.Column < len(m[p.Row])
}

// At returns the character at p.
func (m Matrix) At(p Position) (rune, error) {
	if !m.Contains(p) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, p)
	}
	return m[p.Row][p.Column], nil
}

// Strings returns one string per row.
func (m Matrix) Strings() [Rows]string {
	var out [Rows]string
	for i, row := range m {
		out[i] = string(row)
	}
	return out
}

// Duplicates lists characters that occur more than once, in scan order.
// Placeholders are ignored.
func (m Matrix) Duplicates() []rune {
	seen := make(map[rune]int)
	var dups []rune
	for _, row := range m {
		for _, ch := range row {
			if ch == Placeholder {
				continue
			}
			seen[ch]++
			if seen[ch] == 2 {
				dups = append(dups, ch)
			}
		}
	}
	return dups
}

// Locked reports whether p is locked. Positions outside the mask are unlocked.
func (k Mask) Locked(p Position) bool {
	if p.Row < 0 || p.Row >= Rows {
		return false
	}
	row := k[p.Row]
	if p.Column < 0 || p.Column >= len(row) {
		return false
	}
	return row[p.Column]
}

// Clone returns a deep copy of the mask.
func (k Mask) Clone() Mask {
	var c Mask
	for i, row := range k {
		if row != nil {
			c[i] = append([]bool(nil), row...)
		}
	}
	return c
}

// LockRows returns a mask locking every position of the given rows of m.
func LockRows(m Matrix, rows ...int) Mask {
	var k Mask
	for _, r := range rows {
		if r < 0 || r >= Rows {
			continue
		}
		k[r] = make([]bool, len(m[r]))
		for c := range k[r] {
			k[r][c] = true
		}
	}
	return k
}
