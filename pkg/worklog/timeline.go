package worklog

import (
	"fmt"
	"strings"
)

// TimelineItem is one display-ready record derived from a time entry:
// classified, with an inferred duration and any trailing free-text
// description folded in.
type TimelineItem struct {
	Time        string `json:"time"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
}

// ParseTimeline builds the timeline for one day's raw text. Duration is
// backfilled onto the previous item once the next timestamp is known, so the
// final item of the day carries none. Lines between two entries that are
// neither entries nor headings are space-joined into the earlier entry's
// description. End-of-day markers never carry a description; whatever
// follows them is treated as a daily summary, not task narrative.
func ParseTimeline(content string, classifier *Classifier, markers *EndOfDayMarkers) []TimelineItem {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if markers == nil {
		markers = DefaultEndOfDayMarkers()
	}

	lines := strings.Split(content, "\n")
	var items []TimelineItem

	for i := 0; i < len(lines); i++ {
		m := entryRegex.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		timeStr := parseClock(m[1])
		itemContent, description := SplitTitle(strings.TrimSpace(m[2]))
		if itemContent == "" {
			continue
		}

		if len(items) > 0 {
			prev := &items[len(items)-1]
			diff := timeStr.Minutes() - parseClock(prev.Time).Minutes()
			if diff > 0 {
				prev.Duration = FormatDuration(diff)
			}
		}

		cat := classifier.Classify(itemContent)
		item := TimelineItem{
			Time:        timeStr.String(),
			Content:     itemContent,
			Description: description,
			Category:    cat.ID,
			Icon:        cat.Icon,
		}

		if markers.Matches(itemContent) {
			item.Description = ""
		} else {
			// Consume following lines as additional description until the
			// next time entry.
			next := i + 1
			for next < len(lines) && !entryRegex.MatchString(strings.TrimSpace(lines[next])) {
				text := strings.TrimSpace(lines[next])
				if text != "" && !strings.HasPrefix(text, "#") {
					if item.Description != "" {
						item.Description += " " + text
					} else {
						item.Description = text
					}
				}
				next++
			}
			i = next - 1
		}

		items = append(items, item)
	}
	return items
}

// FormatDuration renders a duration in minutes as "45m", "1h30m" or "2h".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}
