package worklog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// entryRegex matches one log line: "- HH:MM <text>". The hour may be one or
// two digits, the minute is exactly two. Values are not range-checked: a line
// like "- 99:99 x" parses and flows through duration arithmetic unchanged.
var entryRegex = regexp.MustCompile(`^-\s*(\d{1,2}:\d{2})\s+(.*)$`)

// TimeEntry is a single parsed log line. Time carries only a wall-clock
// time-of-day; callers anchor it to a calendar day before comparing across
// days.
type TimeEntry struct {
	Time  ClockTime
	Title string
	// RawSuffix is the full text after the timestamp, before any colon split.
	RawSuffix string
}

// ClockTime is a time-of-day with no date component.
type ClockTime struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight in minutes.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Sub returns c minus other in fractional hours.
func (c ClockTime) Sub(other ClockTime) float64 {
	return float64(c.Minutes()-other.Minutes()) / 60.0
}

func (c ClockTime) String() string {
	var b strings.Builder
	if c.Hour < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(c.Hour))
	b.WriteByte(':')
	if c.Minute < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(c.Minute))
	return b.String()
}

// parseClock parses "H:MM" or "HH:MM". The regex guarantees the shape, so
// this cannot fail on matched input.
func parseClock(s string) ClockTime {
	sep := strings.IndexByte(s, ':')
	h, _ := strconv.Atoi(s[:sep])
	m, _ := strconv.Atoi(s[sep+1:])
	return ClockTime{Hour: h, Minute: m}
}

// SplitTitle splits an entry suffix on the first colon (half- or full-width)
// into a title and a description. Text without a colon comes back whole with
// an empty description.
func SplitTitle(s string) (title, description string) {
	idx := strings.IndexAny(s, ":：")
	if idx == -1 {
		return strings.TrimSpace(s), ""
	}
	_, width := utf8.DecodeRuneInString(s[idx:])
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+width:])
}

// ParseEntries extracts the time entries from one day's raw log text,
// preserving source order. Lines that do not match the entry pattern are
// plain document text and are skipped. Titles are the pre-colon part of the
// suffix.
func ParseEntries(content string) []TimeEntry {
	var entries []TimeEntry
	for _, line := range strings.Split(content, "\n") {
		m := entryRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		suffix := strings.TrimSpace(m[2])
		title, _ := SplitTitle(suffix)
		entries = append(entries, TimeEntry{
			Time:      parseClock(m[1]),
			Title:     title,
			RawSuffix: suffix,
		})
	}
	return entries
}
