// Package store provides SQLite-based storage for layouts and optimizer runs.
package store

import (
	"fmt"

	"manoonchai/internal/layout"
)

// LayoutRecord is a stored layout. Layouts are deduplicated by fingerprint,
// so saving the same matrix twice yields the same record.
type LayoutRecord struct {
	ID          int64
	Name        string
	Description string
	Fingerprint string
	Rows        [layout.Rows]string
	Locked      layout.Mask
	CreatedNs   int64
}

// Matrix returns the stored matrix.
func (r *LayoutRecord) Matrix() layout.Matrix {
	return layout.ParseMatrix(r.Rows)
}

// Layout builds a layout from the record.
func (r *LayoutRecord) Layout() (*layout.Layout, error) {
	l, err := layout.New(r.Name, r.Matrix(), r.Locked)
	if err != nil {
		return nil, fmt.Errorf("stored layout %d: %w", r.ID, err)
	}
	return l, nil
}

// Run is one optimizer run.
type Run struct {
	ID            string // UUID
	LayoutID      *int64 // result layout, if saved
	BaseLayout    string
	CorpusHash    string
	Seed          int64
	Strategy      string
	Workers       int
	Iterations    int
	Accepted      int
	InitialEffort float64
	FinalEffort   float64
	Stop          string
	StartedNs     int64
	FinishedNs    int64

	Swaps []SwapRecord
}

// SwapRecord is one accepted swap of a run.
type SwapRecord struct {
	Ordinal int
	Round   int
	A       layout.Position
	B       layout.Position
	CharA   string
	CharB   string
	Effort  float64
}
