// Package report assembles range statistics and raw log digests for
// dashboards and AI summarization.
package report

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// CategoryTotal is the per-category rollup of a report.
type CategoryTotal struct {
	Hours float64 `json:"hours"`
	Icon  string  `json:"icon"`
}

// Report is the aggregated view of a date range: indexed per-task hours, a
// category rollup, and the concatenated raw logs used as LLM input.
type Report struct {
	Start      time.Time                `json:"start"`
	End        time.Time                `json:"end"`
	Stats      worklog.DailyStats       `json:"stats"`
	Categories map[string]CategoryTotal `json:"categories"`
	TotalHours float64                  `json:"totalHours"`
	ManDays    float64                  `json:"manDays"`
	RawContent string                   `json:"-"`
}

// Builder builds reports against the index and the vault.
type Builder struct {
	store       vault.Store
	root        string
	indexer     *index.Indexer
	classifier  *worklog.Classifier
	hoursPerDay float64
}

// NewBuilder wires a report builder. hoursPerDay converts hours to man-days
// and defaults to 8 when non-positive.
func NewBuilder(store vault.Store, root string, ix *index.Indexer, classifier *worklog.Classifier, hoursPerDay float64) *Builder {
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}
	if classifier == nil {
		classifier = worklog.NewClassifier(nil)
	}
	return &Builder{store: store, root: root, indexer: ix, classifier: classifier, hoursPerDay: hoursPerDay}
}

// BuildRange assembles the report for the inclusive [start, end] range.
// Stats come from the index; the raw digest is read from the daily files so
// the AI sees summaries and notes the index does not keep. Missing days are
// simply absent from the digest.
func (b *Builder) BuildRange(start, end time.Time) *Report {
	stats := b.indexer.StatsInRange(start, end)

	var digest strings.Builder
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		path := vault.LogPath(b.root, day)
		if !b.store.Exists(path) {
			continue
		}
		content, err := b.store.Read(path)
		if err != nil {
			log.Printf("worklog-pilot: report could not read %s: %v", path, err)
			continue
		}
		fmt.Fprintf(&digest, "\n=== %s ===\n%s\n", day.Format("2006-01-02"), content)
	}

	categories := make(map[string]CategoryTotal)
	var total float64
	for task, hours := range stats {
		total += hours
		cat := b.classifier.Classify(task)
		entry := categories[cat.ID]
		entry.Hours += hours
		entry.Icon = cat.Icon
		categories[cat.ID] = entry
	}

	return &Report{
		Start:      start,
		End:        end,
		Stats:      stats,
		Categories: categories,
		TotalHours: total,
		ManDays:    total / b.hoursPerDay,
		RawContent: digest.String(),
	}
}

// BuildWeek builds the report for the ISO week containing t.
func (b *Builder) BuildWeek(t time.Time) *Report {
	start, end := WeekRange(t)
	return b.BuildRange(start, end)
}

// BuildMonth builds the report for the calendar month containing t.
func (b *Builder) BuildMonth(t time.Time) *Report {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)
	return b.BuildRange(start, end)
}

// RenderTable renders the stats as a tab-separated table with hour and
// man-day columns plus a total row, the layout the desktop plugin copies to
// the clipboard.
func (r *Report) RenderTable(hoursPerDay float64) string {
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}
	tasks := make([]string, 0, len(r.Stats))
	for task := range r.Stats {
		tasks = append(tasks, task)
	}
	// Longest tasks first, matching how people read weekly tables.
	sort.Slice(tasks, func(i, j int) bool {
		if r.Stats[tasks[i]] != r.Stats[tasks[j]] {
			return r.Stats[tasks[i]] > r.Stats[tasks[j]]
		}
		return tasks[i] < tasks[j]
	})

	var sb strings.Builder
	sb.WriteString("Task\tHours\tMan-Days\n")
	for _, task := range tasks {
		hours := r.Stats[task]
		fmt.Fprintf(&sb, "%s\t%.2f\t%.2f\n", task, hours, hours/hoursPerDay)
	}
	fmt.Fprintf(&sb, "Total\t%.2f\t%.2f", r.TotalHours, r.TotalHours/hoursPerDay)
	return sb.String()
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -(wd - 1))
	return monday, monday.AddDate(0, 0, 6)
}
