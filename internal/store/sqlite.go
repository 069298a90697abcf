package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

// Store represents the SQLite layout and run store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Fingerprint identifies a matrix by content. Layouts with the same keys in
// the same places share a fingerprint whatever their names.
func Fingerprint(m layout.Matrix) string {
	rows := m.Strings()
	sum := sha256.Sum256([]byte(strings.Join(rows[:], "\n")))
	return hex.EncodeToString(sum[:])
}

// SaveLayout stores a layout and returns its record. If a layout with the
// same matrix is already stored, that record is returned unchanged.
func (s *Store) SaveLayout(l *layout.Layout, description string) (*LayoutRecord, error) {
	m := l.Matrix()
	fp := Fingerprint(m)

	rows := m.Strings()
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	var lockedJSON []byte
	if mask := l.Locked(); hasLocks(mask) {
		if lockedJSON, err = json.Marshal(mask); err != nil {
			return nil, fmt.Errorf("marshal locked mask: %w", err)
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO layouts (name, description, fingerprint, matrix_rows, locked_mask, created_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING`,
		l.Name(), description, fp, string(rowsJSON), nullString(lockedJSON), time.Now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert layout: %w", err)
	}

	return s.getLayoutWhere("fingerprint = ?", fp)
}

// GetLayout retrieves a layout by ID. It returns nil if there is none.
func (s *Store) GetLayout(id int64) (*LayoutRecord, error) {
	return s.getLayoutWhere("id = ?", id)
}

// GetLayoutByName retrieves the most recent layout with the given name.
func (s *Store) GetLayoutByName(name string) (*LayoutRecord, error) {
	return s.getLayoutWhere("name = ? ORDER BY created_ns DESC, id DESC LIMIT 1", name)
}

// GetLayoutByFingerprint retrieves a layout by matrix fingerprint.
func (s *Store) GetLayoutByFingerprint(fp string) (*LayoutRecord, error) {
	return s.getLayoutWhere("fingerprint = ?", fp)
}

func (s *Store) getLayoutWhere(where string, args ...any) (*LayoutRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, fingerprint, matrix_rows, locked_mask, created_ns
		FROM layouts WHERE `+where, args...)
	r, err := scanLayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return r, nil
}

// ListLayouts returns every stored layout, newest first.
func (s *Store) ListLayouts() ([]LayoutRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, fingerprint, matrix_rows, locked_mask, created_ns
		FROM layouts
		ORDER BY created_ns DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	var out []LayoutRecord
	for rows.Next() {
		r, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layouts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLayout(sc scanner) (*LayoutRecord, error) {
	var (
		r          LayoutRecord
		rowsJSON   string
		lockedJSON sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Name, &r.Description, &r.Fingerprint, &rowsJSON, &lockedJSON, &r.CreatedNs); err != nil {
		return nil, err
	}

	var rows []string
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}
	if len(rows) != layout.Rows {
		return nil, fmt.Errorf("layout %d: %w: got %d", r.ID, layout.ErrRowCount, len(rows))
	}
	copy(r.Rows[:], rows)

	if lockedJSON.Valid {
		if err := json.Unmarshal([]byte(lockedJSON.String), &r.Locked); err != nil {
			return nil, fmt.Errorf("unmarshal locked mask: %w", err)
		}
	}
	return &r, nil
}

// InsertRun stores a run and its swaps. A missing ID is filled with a new
// UUID.
func (s *Store) InsertRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, layout_id, base_layout, corpus_hash, seed, strategy, workers, iterations,
		                  accepted, initial_effort, final_effort, stop_reason, started_ns, finished_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LayoutID, r.BaseLayout, r.CorpusHash, r.Seed, r.Strategy, r.Workers, r.Iterations,
		r.Accepted, r.InitialEffort, r.FinalEffort, r.Stop, r.StartedNs, r.FinishedNs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_swaps (run_id, ordinal, round, a_row, a_col, b_row, b_col, char_a, char_b, effort)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, sw := range r.Swaps {
		if _, err := stmt.Exec(r.ID, i, sw.Round, sw.A.Row, sw.A.Column, sw.B.Row, sw.B.Column, sw.CharA, sw.CharB, sw.Effort); err != nil {
			return fmt.Errorf("insert swap: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const runColumns = `id, layout_id, base_layout, corpus_hash, seed, strategy, workers, iterations,
	accepted, initial_effort, final_effort, stop_reason, started_ns, finished_ns`

func scanRun(sc scanner) (*Run, error) {
	var r Run
	err := sc.Scan(&r.ID, &r.LayoutID, &r.BaseLayout, &r.CorpusHash, &r.Seed, &r.Strategy, &r.Workers, &r.Iterations,
		&r.Accepted, &r.InitialEffort, &r.FinalEffort, &r.Stop, &r.StartedNs, &r.FinishedNs)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns the most recent runs without their swaps. limit <= 0
// returns every run.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// GetRun retrieves a run and its swaps by ID or unique ID prefix. It
// returns nil if there is no match.
func (s *Store) GetRun(id string) (*Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' LIMIT 2`, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	var found []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}

	r := found[0]
	swaps, err := s.db.Query(`
		SELECT ordinal, round, a_row, a_col, b_row, b_col, char_a, char_b, effort
		FROM run_swaps WHERE run_id = ? ORDER BY ordinal ASC`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("query swaps: %w", err)
	}
	defer swaps.Close()

	for swaps.Next() {
		var sw SwapRecord
		if err := swaps.Scan(&sw.Ordinal, &sw.Round, &sw.A.Row, &sw.A.Column, &sw.B.Row, &sw.B.Column, &sw.CharA, &sw.CharB, &sw.Effort); err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		r.Swaps = append(r.Swaps, sw)
	}
	if err := swaps.Err(); err != nil {
		return nil, fmt.Errorf("iterate swaps: %w", err)
	}
	return r, nil
}

// RunFromResult converts an optimizer result for storage.
func RunFromResult(res *optimizer.Result, base, corpusHash string, layoutID *int64, started time.Time) *Run {
	r := &Run{
		LayoutID:      layoutID,
		BaseLayout:    base,
		CorpusHash:    corpusHash,
		Seed:          res.Seed,
		Strategy:      string(res.Strategy),
		Workers:       res.Workers,
		Iterations:    res.Iterations,
		Accepted:      res.Accepted,
		InitialEffort: res.Initial,
		FinalEffort:   res.Final,
		Stop:          string(res.Stop),
		StartedNs:     started.UnixNano(),
		FinishedNs:    started.Add(res.Duration).UnixNano(),
	}
	for i, sw := range res.Swaps {
		r.Swaps = append(r.Swaps, SwapRecord{
			Ordinal: i,
			Round:   sw.Round,
			A:       sw.A,
			B:       sw.B,
			CharA:   sw.CharA,
			CharB:   sw.CharB,
			Effort:  sw.Effort,
		})
	}
	return r
}

func hasLocks(k layout.Mask) bool {
	for _, row := range k {
		for _, v := range row {
			if v {
				return true
			}
		}
	}
	return false
}

func nullString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
