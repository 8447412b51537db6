package automation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule grammar:
//
//	every <duration>        e.g. "every 1h", "every 30m"
//	daily <HH:MM>           e.g. "daily 08:00"
//	weekly@<dow> <HH:MM>    e.g. "weekly@mon 08:00"
//	at <YYYY-MM-DD HH:MM>   one-shot, e.g. "at 2026-03-09 08:00"
//
// Times are interpreted in the given location.
const oneshotLayout = "2006-01-02 15:04"

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// NextRun computes the next execution time strictly after from. A zero
// result with a nil error means the schedule has no future runs (a
// one-shot whose time has passed).
func NextRun(schedule string, from time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	local := from.In(loc)

	word, rest, ok := strings.Cut(strings.TrimSpace(schedule), " ")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid schedule %q", schedule)
	}
	rest = strings.TrimSpace(rest)

	switch {
	case word == "every":
		d, err := time.ParseDuration(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid interval in %q: %w", schedule, err)
		}
		if d <= 0 {
			return time.Time{}, fmt.Errorf("interval must be positive in %q", schedule)
		}
		return from.Add(d), nil

	case word == "daily":
		hour, minute, err := parseHourMinute(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		if !next.After(local) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case strings.HasPrefix(word, "weekly@"):
		day, ok := weekdays[strings.TrimPrefix(word, "weekly@")]
		if !ok {
			return time.Time{}, fmt.Errorf("invalid weekday in %q", schedule)
		}
		hour, minute, err := parseHourMinute(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
		next = next.AddDate(0, 0, (int(day)-int(local.Weekday())+7)%7)
		if !next.After(local) {
			next = next.AddDate(0, 0, 7)
		}
		return next, nil

	case word == "at":
		t, err := time.ParseInLocation(oneshotLayout, rest, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		if !t.After(local) {
			return time.Time{}, nil
		}
		return t, nil

	default:
		return time.Time{}, fmt.Errorf("unsupported schedule %q", schedule)
	}
}

func parseHourMinute(s string) (int, int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
