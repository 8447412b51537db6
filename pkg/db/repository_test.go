package db

import (
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	database, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return NewRepository(database)
}

func TestSummaries(t *testing.T) {
	repo := setupTestDB(t)

	// Empty at first
	s, err := repo.GetLatestSummary("")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil, got %+v", s)
	}

	if err := repo.LogSummary("weekly", "2026-03-02", "2026-03-08", "gpt-4o-mini", "## Key Work This Week"); err != nil {
		t.Fatalf("log summary: %v", err)
	}
	if err := repo.LogSummary("monthly", "2026-03-01", "2026-03-31", "kimi-k2.5", "March review"); err != nil {
		t.Fatalf("log summary: %v", err)
	}

	s, err = repo.GetLatestSummary("")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if s == nil || s.Kind != "monthly" {
		t.Fatalf("expected latest monthly summary, got %+v", s)
	}

	s, err = repo.GetLatestSummary("weekly")
	if err != nil {
		t.Fatalf("get latest weekly: %v", err)
	}
	if s == nil || s.RangeEnd != "2026-03-08" || s.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected weekly summary %+v", s)
	}

	list, err := repo.ListSummaries(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Kind != "monthly" {
		t.Errorf("expected newest first, got %+v", list)
	}
}

func TestIndexRuns(t *testing.T) {
	repo := setupTestDB(t)

	run, err := repo.GetLatestIndexRun()
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil, got %+v", run)
	}

	if err := repo.LogIndexRun("full_scan", 42, 1500*time.Millisecond); err != nil {
		t.Fatalf("log index run: %v", err)
	}
	if err := repo.LogIndexRun("file", 1, 3*time.Millisecond); err != nil {
		t.Fatalf("log index run: %v", err)
	}

	run, err = repo.GetLatestIndexRun()
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if run == nil || run.Kind != "file" || run.Files != 1 || run.DurationMs != 3 {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestAutomationLifecycle(t *testing.T) {
	repo := setupTestDB(t)

	next := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	id, err := repo.CreateAutomation("weekly-summary", "range_summary", "weekly@mon 08:00", `{"kind":"weekly"}`, next)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := repo.GetAutomation(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a == nil {
		t.Fatal("expected automation, got nil")
	}
	if a.Action != "range_summary" || !a.Enabled {
		t.Errorf("unexpected automation %+v", a)
	}
	if a.NextRun == nil || !a.NextRun.Equal(next) {
		t.Errorf("next run = %v, want %v", a.NextRun, next)
	}

	if err := repo.SetAutomationEnabled(id, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	a, _ = repo.GetAutomation(id)
	if a.Enabled {
		t.Error("expected automation disabled")
	}

	if err := repo.DeleteAutomation(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	a, err = repo.GetAutomation(id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil after delete, got %+v", a)
	}
}

func TestClaimDueAutomations(t *testing.T) {
	repo := setupTestDB(t)

	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	dueID, err := repo.CreateAutomation("rescan", "full_scan", "every 1h", "", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("create due: %v", err)
	}
	if _, err := repo.CreateAutomation("later", "full_scan", "every 1h", "", now.Add(time.Hour)); err != nil {
		t.Fatalf("create later: %v", err)
	}
	disabledID, err := repo.CreateAutomation("off", "full_scan", "every 1h", "", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("create disabled: %v", err)
	}
	if err := repo.SetAutomationEnabled(disabledID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	next := now.Add(time.Hour)
	due, err := repo.ClaimDueAutomations(now, func(Automation) time.Time { return next })
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(due) != 1 || due[0].ID != dueID {
		t.Fatalf("expected only the due automation, got %+v", due)
	}

	// Claimed automation advanced, so a second claim finds nothing
	due, err = repo.ClaimDueAutomations(now, func(Automation) time.Time { return next })
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected nothing due after advance, got %+v", due)
	}

	a, _ := repo.GetAutomation(dueID)
	if a.NextRun == nil || !a.NextRun.Equal(next) {
		t.Errorf("next run = %v, want %v", a.NextRun, next)
	}
}

func TestAutomationRuns(t *testing.T) {
	repo := setupTestDB(t)

	id, err := repo.CreateAutomation("rescan", "full_scan", "every 1h", "", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	runID, err := repo.StartAutomationRun(id)
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := repo.FinishAutomationRun(runID, "ok", "indexed 12 files"); err != nil {
		t.Fatalf("finish run: %v", err)
	}
}

func TestOneshotClearsNextRun(t *testing.T) {
	repo := setupTestDB(t)

	now := time.Now().UTC()
	id, err := repo.CreateAutomation("once", "full_scan", "at 2026-03-09 08:00", "", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A zero advance time clears next_run, retiring the automation
	due, err := repo.ClaimDueAutomations(now, func(Automation) time.Time { return time.Time{} })
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due, got %d", len(due))
	}

	a, _ := repo.GetAutomation(id)
	if a.NextRun != nil {
		t.Errorf("expected cleared next run, got %v", a.NextRun)
	}
}
