package store

import (
	"path/filepath"
	"testing"
	"time"

	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAndClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := ValidateSchema(s.db); err != nil {
		t.Errorf("schema incomplete: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "subdir", "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
}

func TestOpenTwiceKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.SaveLayout(layout.MustLoad("kedmanee"), ""); err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	all, err := s.ListLayouts()
	if err != nil {
		t.Fatalf("ListLayouts failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 layout after reopen, got %d", len(all))
	}
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestMigrationStatus(t *testing.T) {
	s := openTestStore(t)
	status, err := GetMigrationStatus(s.db)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != status.LatestVersion {
		t.Errorf("expected version %d, got %d", status.LatestVersion, status.CurrentVersion)
	}
	if len(status.Pending) != 0 {
		t.Errorf("expected no pending migrations, got %d", len(status.Pending))
	}

	if err := RollbackMigration(s.db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}
	if err := ValidateSchema(s.db); err == nil {
		t.Error("expected run_swaps to be missing after rollback")
	}
	if err := MigrateDB(s.db); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if err := ValidateSchema(s.db); err != nil {
		t.Errorf("schema incomplete after re-migration: %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := layout.MustLoad("pattachote").Matrix()
	b := layout.MustLoad("pattachote").Matrix()
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical matrices should share a fingerprint")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("expected hex SHA-256, got %q", Fingerprint(a))
	}

	b[2][0], b[2][1] = b[2][1], b[2][0]
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("swapped matrix should change the fingerprint")
	}
}

func TestSaveAndGetLayout(t *testing.T) {
	s := openTestStore(t)

	m, err := layout.Preset("pattachote")
	if err != nil {
		t.Fatal(err)
	}
	l, err := layout.New("pattachote-home", m, layout.LockRows(m, layout.RowNumber))
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.SaveLayout(l, "number row pinned")
	if err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}
	if rec.ID <= 0 {
		t.Error("expected positive layout ID")
	}
	if rec.Fingerprint != Fingerprint(m) {
		t.Error("fingerprint mismatch")
	}
	if rec.Description != "number row pinned" {
		t.Errorf("description mismatch: %q", rec.Description)
	}

	got, err := s.GetLayout(rec.ID)
	if err != nil {
		t.Fatalf("GetLayout failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetLayout returned nil")
	}
	if !got.Matrix().Equal(m) {
		t.Error("stored matrix differs")
	}

	back, err := got.Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if !back.IsLocked(layout.Position{Row: 0, Column: 5}) {
		t.Error("locked mask was not stored")
	}
	if back.IsLocked(layout.Position{Row: 1, Column: 5}) {
		t.Error("unexpected lock on upper row")
	}

	byName, err := s.GetLayoutByName("pattachote-home")
	if err != nil {
		t.Fatalf("GetLayoutByName failed: %v", err)
	}
	if byName == nil || byName.ID != rec.ID {
		t.Errorf("GetLayoutByName returned %+v", byName)
	}
}

func TestSaveLayoutDeduplicates(t *testing.T) {
	s := openTestStore(t)

	first, err := s.SaveLayout(layout.MustLoad("ikbaeb"), "")
	if err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}
	m, _ := layout.Preset("ikbaeb")
	renamed, _ := layout.New("ikbaeb-copy", m, layout.Mask{})
	second, err := s.SaveLayout(renamed, "")
	if err != nil {
		t.Fatalf("SaveLayout failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same record, got %d and %d", first.ID, second.ID)
	}
	if second.Name != "ikbaeb" {
		t.Errorf("expected original name to be kept, got %q", second.Name)
	}
}

func TestGetLayoutNotFound(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.GetLayout(99999)
	if err != nil {
		t.Fatalf("GetLayout failed: %v", err)
	}
	if rec != nil {
		t.Error("expected nil for nonexistent layout")
	}
	rec, err = s.GetLayoutByName("nope")
	if err != nil || rec != nil {
		t.Errorf("expected nil, nil; got %v, %v", rec, err)
	}
}

func TestListLayouts(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"kedmanee", "pattachote", "manoonchai_v02"} {
		if _, err := s.SaveLayout(layout.MustLoad(name), ""); err != nil {
			t.Fatalf("SaveLayout %s failed: %v", name, err)
		}
	}
	all, err := s.ListLayouts()
	if err != nil {
		t.Fatalf("ListLayouts failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 layouts, got %d", len(all))
	}
	if all[0].Name != "manoonchai_v02" {
		t.Errorf("expected newest first, got %s", all[0].Name)
	}
}

func sampleResult() *optimizer.Result {
	return &optimizer.Result{
		Initial:    120.5,
		Final:      110.25,
		Iterations: 40,
		Accepted:   2,
		Swaps: []optimizer.Swap{
			{Round: 3, A: layout.Position{Row: 2, Column: 0}, B: layout.Position{Row: 1, Column: 4}, CharA: "้", CharB: "ร", Effort: 115},
			{Round: 17, A: layout.Position{Row: 3, Column: 2}, B: layout.Position{Row: 2, Column: 9}, CharA: "ล", CharB: "ไ", Effort: 110.25},
		},
		Duration: 2 * time.Second,
		Stop:     optimizer.StopPatience,
		Seed:     7,
		Strategy: optimizer.StrategyRandom,
		Workers:  4,
	}
}

func TestInsertAndGetRun(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.SaveLayout(layout.MustLoad("pattachote"), "")
	if err != nil {
		t.Fatal(err)
	}
	started := time.Unix(1700000000, 0)
	run := RunFromResult(sampleResult(), "pattachote", "abc123", &rec.ID, started)

	if err := s.InsertRun(run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if len(run.ID) != 36 {
		t.Errorf("expected UUID run id, got %q", run.ID)
	}

	got, err := s.GetRun(run.ID[:8])
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}
	if got.ID != run.ID || got.Seed != 7 || got.Stop != "patience" {
		t.Errorf("run mismatch: %+v", got)
	}
	if got.LayoutID == nil || *got.LayoutID != rec.ID {
		t.Errorf("layout id mismatch: %v", got.LayoutID)
	}
	if got.FinishedNs-got.StartedNs != int64(2*time.Second) {
		t.Errorf("unexpected duration %d", got.FinishedNs-got.StartedNs)
	}
	if len(got.Swaps) != 2 {
		t.Fatalf("expected 2 swaps, got %d", len(got.Swaps))
	}
	if got.Swaps[1].Round != 17 || got.Swaps[1].CharB != "ไ" || got.Swaps[1].B.Column != 9 {
		t.Errorf("swap mismatch: %+v", got.Swaps[1])
	}
}

func TestRunWithoutLayout(t *testing.T) {
	s := openTestStore(t)
	run := RunFromResult(sampleResult(), "pattachote", "abc", nil, time.Now())
	if err := s.InsertRun(run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	got, err := s.GetRun(run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.LayoutID != nil {
		t.Errorf("expected nil layout id, got %d", *got.LayoutID)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetRun("00000000")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent run")
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		run := RunFromResult(sampleResult(), "pattachote", "abc", nil, base.Add(time.Duration(i)*time.Hour))
		if err := s.InsertRun(run); err != nil {
			t.Fatalf("InsertRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].StartedNs <= runs[1].StartedNs {
		t.Error("expected newest run first")
	}
	if runs[0].Swaps != nil {
		t.Error("ListRuns should not load swaps")
	}

	all, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 runs, got %d", len(all))
	}
}

func TestVerifyAllLayouts(t *testing.T) {
	s := openTestStore(t)
	good, err := s.SaveLayout(layout.MustLoad("pattachote"), "")
	if err != nil {
		t.Fatal(err)
	}
	bad, err := s.SaveLayout(layout.MustLoad("kedmanee"), "")
	if err != nil {
		t.Fatal(err)
	}

	corrupted, err := s.VerifyAllLayouts()
	if err != nil {
		t.Fatalf("VerifyAllLayouts failed: %v", err)
	}
	if len(corrupted) != 0 {
		t.Fatalf("expected no corruption, got %v", corrupted)
	}

	if _, err := s.db.Exec(`UPDATE layouts SET fingerprint = 'tampered' WHERE id = ?`, bad.ID); err != nil {
		t.Fatal(err)
	}
	corrupted, err = s.VerifyAllLayouts()
	if err != nil {
		t.Fatalf("VerifyAllLayouts failed: %v", err)
	}
	if len(corrupted) != 1 || corrupted[0] != bad.ID {
		t.Errorf("expected [%d], got %v (good is %d)", bad.ID, corrupted, good.ID)
	}
}
