// Package commands builds the chat replies shared by the Telegram and
// Discord bots.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/report"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// Commands answers the worklog chat commands.
type Commands struct {
	Store      vault.Store
	Root       string
	Reports    *report.Builder
	Classifier *worklog.Classifier
	Markers    *worklog.EndOfDayMarkers
	StartTime  string
}

// Parse splits a message into command and argument. prefix is "/" for
// Telegram and "!" for Discord.
func Parse(text, prefix string) (command, arg string) {
	for _, cmd := range []string{"active", "today", "week", "log"} {
		full := prefix + cmd
		if text == full {
			return cmd, ""
		}
		if strings.HasPrefix(text, full+" ") {
			return cmd, strings.TrimSpace(strings.TrimPrefix(text, full+" "))
		}
	}
	return "", text
}

// Handle dispatches a parsed command to its reply builder. Unknown
// commands return an empty string so the bots can stay silent.
func (c *Commands) Handle(command, arg string, now time.Time) string {
	switch command {
	case "active":
		return c.Active(now)
	case "today":
		return c.Today(now)
	case "week":
		return c.Week(now)
	case "log":
		return c.LogEntry(now, arg)
	default:
		return ""
	}
}

// Active reports the currently running task.
func (c *Commands) Active(now time.Time) string {
	content, err := c.Store.Read(vault.LogPath(c.Root, now))
	if err != nil {
		return "No log for today yet."
	}
	task := worklog.DetectActiveTask(content, now, c.Markers)
	if task == nil {
		return "No active task."
	}
	elapsed := int(now.Sub(task.StartTime).Minutes())
	cat := c.Classifier.Classify(task.Title)
	return fmt.Sprintf("%s (%s, since %s, %s)",
		task.Title, cat.ID, task.StartTime.Format("15:04"), worklog.FormatDuration(elapsed))
}

// Today summarizes today's timeline.
func (c *Commands) Today(now time.Time) string {
	content, err := c.Store.Read(vault.LogPath(c.Root, now))
	if err != nil {
		return "No log for today yet."
	}
	items := worklog.ParseTimeline(content, c.Classifier, c.Markers)
	if len(items) == 0 {
		return "No entries today."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s):\n", now.Format("2006-01-02"))
	for _, item := range items {
		b.WriteString(item.Time)
		b.WriteString("  ")
		b.WriteString(item.Content)
		if item.Duration != "" {
			fmt.Fprintf(&b, " (%s)", item.Duration)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Week renders this week's category totals.
func (c *Commands) Week(now time.Time) string {
	rep := c.Reports.BuildWeek(now)
	if rep.TotalHours == 0 {
		return "No entries this week."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Week %s to %s:\n",
		rep.Start.Format("2006-01-02"), rep.End.Format("2006-01-02"))
	for name, total := range rep.Categories {
		fmt.Fprintf(&b, "%s: %.1fh\n", name, total.Hours)
	}
	fmt.Fprintf(&b, "Total: %.1fh (%.2f man-days)", rep.TotalHours, rep.ManDays)
	return b.String()
}

// LogEntry appends an entry to today's log. arg is "HH:MM title"; a bare
// title gets the current time.
func (c *Commands) LogEntry(now time.Time, arg string) string {
	if arg == "" {
		return "Usage: log [HH:MM] task title"
	}

	clock := now.Format("15:04")
	title := arg
	if fields := strings.SplitN(arg, " ", 2); len(fields) == 2 && looksLikeClock(fields[0]) {
		clock = fields[0]
		title = strings.TrimSpace(fields[1])
	}
	if title == "" {
		return "Usage: log [HH:MM] task title"
	}

	path, err := vault.EnsureDailyLog(c.Store, c.Root, now, "", c.StartTime)
	if err != nil {
		return fmt.Sprintf("Failed to open today's log: %v", err)
	}
	content, err := c.Store.Read(path)
	if err != nil {
		return fmt.Sprintf("Failed to read today's log: %v", err)
	}
	if !strings.HasSuffix(content, "\n") && content != "" {
		content += "\n"
	}
	content += fmt.Sprintf("- %s %s\n", clock, title)
	if err := c.Store.Write(path, content); err != nil {
		return fmt.Sprintf("Failed to write today's log: %v", err)
	}
	return fmt.Sprintf("Logged %s %s", clock, title)
}

func looksLikeClock(s string) bool {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return false
	}
	for _, r := range hh + mm {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
