package worklog

// DailyStats maps a task title to accumulated hours for one calendar day.
type DailyStats map[string]float64

// ParseDailyContent aggregates one day's raw log text into per-task hours.
// Each entry runs until the next entry's timestamp; the duration is credited
// to the earlier entry's title. The last entry has no successor and is never
// credited; a trailing "off duty" line closes the day rather than naming a
// task. Non-positive durations (out-of-order or duplicate
// timestamps) and entries with empty titles are skipped.
func ParseDailyContent(content string) DailyStats {
	stats := make(DailyStats)
	AccumulateDailyContent(content, stats)
	return stats
}

// AccumulateDailyContent is ParseDailyContent folding into an existing map,
// used when summing several days into one result.
func AccumulateDailyContent(content string, stats DailyStats) {
	entries := ParseEntries(content)
	for i := 0; i < len(entries)-1; i++ {
		current := entries[i]
		next := entries[i+1]
		hours := next.Time.Sub(current.Time)
		if hours > 0 && current.Title != "" {
			stats[current.Title] += hours
		}
	}
}

// TotalHours sums every task's hours.
func (s DailyStats) TotalHours() float64 {
	var total float64
	for _, h := range s {
		total += h
	}
	return total
}
