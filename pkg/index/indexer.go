// Package index maintains the persisted date→stats index that backs range
// queries without re-reading every daily log.
package index

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// DateFormat is the key format of the persisted index.
const DateFormat = "2006-01-02"

// Indexer owns the incremental index: an in-memory map from ISO date to that
// day's aggregated stats, persisted as a single JSON blob after every
// mutation. A mutex serializes mutations and reads so watcher-triggered
// IndexFile calls and an explicit FullScan cannot race on the blob.
type Indexer struct {
	store     vault.Store
	root      string
	indexPath string

	mu    sync.Mutex
	index map[string]worklog.DailyStats
}

// NewIndexer creates an empty indexer. Call Load before first use.
func NewIndexer(store vault.Store, root, indexPath string) *Indexer {
	return &Indexer{
		store:     store,
		root:      root,
		indexPath: indexPath,
		index:     make(map[string]worklog.DailyStats),
	}
}

// Load reads the persisted blob if present. A corrupt blob resets the index
// to empty; statistics stay at zero until the next FullScan. Load never
// fails the caller.
func (ix *Indexer) Load() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.store.Exists(ix.indexPath) {
		return
	}
	data, err := ix.store.Read(ix.indexPath)
	if err != nil {
		log.Printf("worklog-pilot: failed to load index: %v", err)
		return
	}
	parsed := make(map[string]worklog.DailyStats)
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		log.Printf("worklog-pilot: corrupt index, resetting: %v", err)
		ix.index = make(map[string]worklog.DailyStats)
		return
	}
	ix.index = parsed
}

// save persists the blob. Write failures are logged and swallowed: the
// in-memory index stays authoritative and a later save or FullScan heals
// the on-disk state. Callers must hold ix.mu.
func (ix *Indexer) save() {
	data, err := json.Marshal(ix.index)
	if err != nil {
		log.Printf("worklog-pilot: failed to serialize index: %v", err)
		return
	}
	if err := ix.store.Write(ix.indexPath, string(data)); err != nil {
		log.Printf("worklog-pilot: failed to save index: %v", err)
	}
}

// IndexFile re-aggregates one daily log and replaces its date's entry
// wholesale, then persists. Paths outside the log root, without the log
// extension, or not following the date convention are ignored.
func (ix *Indexer) IndexFile(path string) {
	if !vault.UnderRoot(ix.root, path) || !strings.HasSuffix(path, vault.LogExt) {
		return
	}
	dateStr, ok := vault.DateFromPath(path)
	if !ok {
		return
	}
	content, err := ix.store.Read(path)
	if err != nil {
		log.Printf("worklog-pilot: failed to read %s for indexing: %v", path, err)
		return
	}
	stats := worklog.ParseDailyContent(content)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.index[dateStr] = stats
	ix.save()
}

// FullScan rebuilds the whole index from the month folders under the root
// and persists once at the end. It returns the number of files indexed.
func (ix *Indexer) FullScan() int {
	if !ix.store.Exists(ix.root) {
		return 0
	}
	_, folders, err := ix.store.List(ix.root)
	if err != nil {
		log.Printf("worklog-pilot: full scan could not list %s: %v", ix.root, err)
		return 0
	}

	rebuilt := make(map[string]worklog.DailyStats)
	count := 0
	for _, monthFolder := range folders {
		files, _, err := ix.store.List(monthFolder)
		if err != nil {
			log.Printf("worklog-pilot: full scan could not list %s: %v", monthFolder, err)
			continue
		}
		for _, filePath := range files {
			if !strings.HasSuffix(filePath, vault.LogExt) {
				continue
			}
			dateStr, ok := vault.DateFromPath(filePath)
			if !ok {
				continue
			}
			content, err := ix.store.Read(filePath)
			if err != nil {
				log.Printf("worklog-pilot: full scan could not read %s: %v", filePath, err)
				continue
			}
			rebuilt[dateStr] = worklog.ParseDailyContent(content)
			count++
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.index = rebuilt
	ix.save()
	return count
}

// StatsInRange sums per-task hours over the inclusive [start, end] day
// range. Days absent from the index contribute nothing.
func (ix *Indexer) StatsInRange(start, end time.Time) worklog.DailyStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	total := make(worklog.DailyStats)
	for day := startOfDay(start); !day.After(startOfDay(end)); day = day.AddDate(0, 0, 1) {
		dayStats, ok := ix.index[day.Format(DateFormat)]
		if !ok {
			continue
		}
		for task, hours := range dayStats {
			total[task] += hours
		}
	}
	return total
}

// FindDatesWithTask returns the dates where the given task has recorded
// hours, most recent first.
func (ix *Indexer) FindDatesWithTask(title string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var dates []string
	for date, stats := range ix.index {
		if stats[title] > 0 {
			dates = append(dates, date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Dates returns every indexed date, ascending. Mostly useful for
// diagnostics and tests.
func (ix *Indexer) Dates() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dates := make([]string, 0, len(ix.index))
	for date := range ix.index {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
