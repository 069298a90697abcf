package store

import (
	"fmt"
)

// VerifyLayoutIntegrity checks that a record's rows still hash to its
// fingerprint and form a valid matrix.
func VerifyLayoutIntegrity(r *LayoutRecord) error {
	m := r.Matrix()
	if got := Fingerprint(m); got != r.Fingerprint {
		return fmt.Errorf("fingerprint mismatch for layout %d (%s): computed %s, stored %s",
			r.ID, r.Name, got, r.Fingerprint)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("layout %d (%s): %w", r.ID, r.Name, err)
	}
	return nil
}

// VerifyAllLayouts checks every stored layout and returns the IDs of those
// that fail VerifyLayoutIntegrity or cannot be decoded.
func (s *Store) VerifyAllLayouts() ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, fingerprint, matrix_rows, locked_mask, created_ns
		FROM layouts
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query all layouts: %w", err)
	}
	defer rows.Close()

	var corrupted []int64
	for rows.Next() {
		var id int64
		r, err := scanLayout(idCapture{rows, &id})
		if err != nil {
			if id == 0 {
				return nil, fmt.Errorf("scan layout: %w", err)
			}
			corrupted = append(corrupted, id)
			continue
		}
		if err := VerifyLayoutIntegrity(r); err != nil {
			corrupted = append(corrupted, r.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layouts: %w", err)
	}
	return corrupted, nil
}

// idCapture records the first scanned column so a row whose payload fails
// to decode can still be reported by ID.
type idCapture struct {
	sc scanner
	id *int64
}

func (c idCapture) Scan(dest ...any) error {
	err := c.sc.Scan(dest...)
	if err == nil && len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*c.id = *p
		}
	}
	return err
}
