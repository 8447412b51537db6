package index

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

const indexPath = "pilot/data-index.json"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func setupVault(t *testing.T) *vault.DirStore {
	t.Helper()
	store := vault.NewDirStore(t.TempDir())
	store.Write("WorkLogs/202603/02.md", "- 09:00 Design\n- 10:30 Coding\n- 12:00 Lunch break\n")
	store.Write("WorkLogs/202603/03.md", "- 09:00 Coding\n- 17:00 Off duty\n")
	store.Write("WorkLogs/202603/10.md", "- 13:00 Review\n- 14:30 Off duty\n")
	store.Write("WorkLogs/202603/notes.txt", "not a log")
	return store
}

func TestFullScanAndRangeSum(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)

	if count := ix.FullScan(); count != 3 {
		t.Fatalf("expected 3 files indexed, got %d", count)
	}

	stats := ix.StatsInRange(day("2026-03-01"), day("2026-03-07"))
	if math.Abs(stats["Design"]-1.5) > 1e-9 {
		t.Errorf("Design: got %f", stats["Design"])
	}
	if math.Abs(stats["Coding"]-9.5) > 1e-9 {
		t.Errorf("Coding across two days: got %f", stats["Coding"])
	}
	if _, ok := stats["Review"]; ok {
		t.Error("2026-03-10 must not be included in the range")
	}
}

func TestRangeSumEqualsPointwiseSum(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	start, end := day("2026-03-01"), day("2026-03-12")
	whole := ix.StatsInRange(start, end)

	pointwise := make(worklog.DailyStats)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for task, hours := range ix.StatsInRange(d, d) {
			pointwise[task] += hours
		}
	}

	if len(whole) != len(pointwise) {
		t.Fatalf("task sets differ: %v vs %v", whole, pointwise)
	}
	for task, hours := range whole {
		if math.Abs(pointwise[task]-hours) > 1e-9 {
			t.Errorf("task %q: %f vs %f", task, hours, pointwise[task])
		}
	}
}

func TestRangeWithSparseDataRaisesNoErrors(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	// 7-day range with indexed data on only 2 of the days.
	stats := ix.StatsInRange(day("2026-03-02"), day("2026-03-08"))
	if len(stats) != 2 {
		t.Errorf("expected Design and Coding only, got %v", stats)
	}
	if empty := ix.StatsInRange(day("2027-01-01"), day("2027-01-07")); len(empty) != 0 {
		t.Errorf("expected empty stats out of range, got %v", empty)
	}
}

func TestIndexFileReplacesWholesale(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	// Rewrite a day and re-index just that file.
	store.Write("WorkLogs/202603/02.md", "- 09:00 Writing\n- 11:00 Off duty\n")
	ix.IndexFile("WorkLogs/202603/02.md")

	stats := ix.StatsInRange(day("2026-03-02"), day("2026-03-02"))
	if _, ok := stats["Design"]; ok {
		t.Error("old entries must be replaced, not merged")
	}
	if math.Abs(stats["Writing"]-2.0) > 1e-9 {
		t.Errorf("Writing: got %f", stats["Writing"])
	}
}

func TestIndexFileGuards(t *testing.T) {
	store := setupVault(t)
	store.Write("Other/202603/02.md", "- 09:00 Elsewhere\n- 10:00 Off duty\n")
	ix := NewIndexer(store, "WorkLogs", indexPath)

	ix.IndexFile("Other/202603/02.md")         // outside root
	ix.IndexFile("WorkLogs/202603/notes.txt")  // wrong extension
	ix.IndexFile("WorkLogs/randomfolder/x.md") // no date convention

	if dates := ix.Dates(); len(dates) != 0 {
		t.Errorf("guarded paths must not be indexed: %v", dates)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	reloaded := NewIndexer(store, "WorkLogs", indexPath)
	reloaded.Load()
	stats := reloaded.StatsInRange(day("2026-03-02"), day("2026-03-02"))
	if math.Abs(stats["Design"]-1.5) > 1e-9 {
		t.Errorf("persisted index did not survive reload: %v", stats)
	}
}

func TestCorruptIndexResetsToEmpty(t *testing.T) {
	store := setupVault(t)
	store.Write(indexPath, "{not json")

	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.Load()
	if dates := ix.Dates(); len(dates) != 0 {
		t.Errorf("corrupt blob must reset to empty, got %v", dates)
	}

	// Self-heals via FullScan.
	if count := ix.FullScan(); count != 3 {
		t.Fatalf("expected rescan of 3 files, got %d", count)
	}
	if dates := ix.Dates(); len(dates) != 3 {
		t.Errorf("expected 3 indexed dates after heal, got %v", dates)
	}
}

func TestIndexConvergesWithDirectAggregation(t *testing.T) {
	store := setupVault(t)
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-10"} {
		d := day(date)
		content, err := store.Read(vault.LogPath("WorkLogs", d))
		if err != nil {
			t.Fatal(err)
		}
		direct := worklog.ParseDailyContent(content)
		indexed := ix.StatsInRange(d, d)
		if len(direct) != len(indexed) {
			t.Fatalf("%s: task sets differ: %v vs %v", date, direct, indexed)
		}
		for task, hours := range direct {
			if math.Abs(indexed[task]-hours) > 1e-9 {
				t.Errorf("%s/%s: %f vs %f", date, task, hours, indexed[task])
			}
		}
	}
}

func TestFindDatesWithTask(t *testing.T) {
	store := setupVault(t)
	store.Write("WorkLogs/202602/20.md", "- 09:00 Coding\n- 10:00 Off duty\n")
	ix := NewIndexer(store, "WorkLogs", indexPath)
	ix.FullScan()

	dates := ix.FindDatesWithTask("Coding")
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %v", dates)
	}
	// Most recent first.
	if dates[0] != "2026-03-03" || dates[2] != "2026-02-20" {
		t.Errorf("unexpected order: %v", dates)
	}
	if got := ix.FindDatesWithTask("Nonexistent"); len(got) != 0 {
		t.Errorf("expected no dates, got %v", got)
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	base := t.TempDir()
	store := vault.NewDirStore(base)
	store.Write("WorkLogs/202603/02.md", "- 09:00 Design\n- 10:00 Off duty\n")

	// Make the index directory unwritable so saves fail.
	blocked := filepath.Join(base, "pilot")
	os.MkdirAll(blocked, 0555)
	defer os.Chmod(blocked, 0755)

	ix := NewIndexer(store, "WorkLogs", "pilot/data-index.json")
	ix.FullScan()

	stats := ix.StatsInRange(day("2026-03-02"), day("2026-03-02"))
	if math.Abs(stats["Design"]-1.0) > 1e-9 {
		t.Errorf("in-memory index must survive save failure: %v", stats)
	}
}
