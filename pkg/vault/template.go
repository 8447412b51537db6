package vault

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultDailyTemplate is the skeleton written when a daily log is created,
// matching the note layout the timeline and todo scanners expect.
const DefaultDailyTemplate = `### Todos
- [ ]

### Work Records
- {{startTime}}

### Daily Summary
`

var datePlaceholder = regexp.MustCompile(`\{\{date:(.*?)\}\}`)

// RenderDailyTemplate fills a daily note template: {{date:FORMAT}}
// placeholders use moment-style formats, {{startTime}} is the configured
// default start-of-day time.
func RenderDailyTemplate(tmpl string, date time.Time, startTime string) string {
	out := strings.ReplaceAll(tmpl, "{{startTime}}", startTime)
	out = strings.ReplaceAll(out, "YYYY-MM-DD", date.Format("2006-01-02"))
	out = datePlaceholder.ReplaceAllStringFunc(out, func(match string) string {
		parts := datePlaceholder.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return formatMoment(date, parts[1])
	})
	return out
}

// EnsureDailyLog creates the daily log for a date if it does not exist yet
// and returns its path.
func EnsureDailyLog(store Store, root string, date time.Time, tmpl, startTime string) (string, error) {
	path := LogPath(root, date)
	if store.Exists(path) {
		return path, nil
	}
	if tmpl == "" {
		tmpl = DefaultDailyTemplate
	}
	if err := store.Write(path, RenderDailyTemplate(tmpl, date, startTime)); err != nil {
		return "", err
	}
	return path, nil
}

// formatMoment formats a time using a moment.js-style format string, the
// convention the host apps use in templates.
func formatMoment(t time.Time, format string) string {
	if format == "YYYY-[W]WW" || format == "2006-[W]WW" {
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	}
	goFormat := format
	goFormat = strings.ReplaceAll(goFormat, "YYYY", "2006")
	goFormat = strings.ReplaceAll(goFormat, "MM", "01")
	goFormat = strings.ReplaceAll(goFormat, "DD", "02")
	goFormat = strings.ReplaceAll(goFormat, "HH", "15")
	goFormat = strings.ReplaceAll(goFormat, "mm", "04")
	goFormat = strings.ReplaceAll(goFormat, "ss", "05")
	return t.Format(goFormat)
}
