package worklog

import (
	"strings"
	"time"
)

// EndOfDayMarkers is the set of task titles that close a day without being
// trackable work ("off duty" and friends). Matching is exact after
// case-folding, not a substring test.
type EndOfDayMarkers struct {
	titles map[string]struct{}
}

// NewEndOfDayMarkers builds a marker set from the given titles.
func NewEndOfDayMarkers(titles []string) *EndOfDayMarkers {
	m := &EndOfDayMarkers{titles: make(map[string]struct{}, len(titles))}
	for _, t := range titles {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			m.titles[t] = struct{}{}
		}
	}
	return m
}

// DefaultEndOfDayMarkers covers the stock zh and en marker pairs.
func DefaultEndOfDayMarkers() *EndOfDayMarkers {
	return NewEndOfDayMarkers([]string{"下班", "结束工作", "off duty", "end of work"})
}

// Matches reports whether a task title is an end-of-day marker.
func (m *EndOfDayMarkers) Matches(title string) bool {
	_, ok := m.titles[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

// ActiveTask is the task inferred to be in progress right now.
type ActiveTask struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
}

// DetectActiveTask scans today's raw log content for the entry with the
// latest start time not after now. Entries sharing a timestamp resolve to
// the later one in file order. If the winning entry is an end-of-day marker
// the day is closed and there is no active task. Future-dated entries are
// never considered active.
func DetectActiveTask(content string, now time.Time, markers *EndOfDayMarkers) *ActiveTask {
	if markers == nil {
		markers = DefaultEndOfDayMarkers()
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	var latest *TimeEntry
	for _, e := range ParseEntries(content) {
		if e.Time.Minutes() > nowMinutes {
			continue
		}
		if latest == nil || latest.Time.Minutes() <= e.Time.Minutes() {
			entry := e
			latest = &entry
		}
	}
	if latest == nil || latest.Title == "" || markers.Matches(latest.Title) {
		return nil
	}

	start := time.Date(now.Year(), now.Month(), now.Day(),
		latest.Time.Hour, latest.Time.Minute, 0, 0, now.Location())
	return &ActiveTask{Title: latest.Title, StartTime: start}
}
