package vault

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// todoRegex is deliberately loose to catch the various unchecked-item
// spellings people use in daily notes.
var todoRegex = regexp.MustCompile(`-\s*\[\s\]\s*([^\n\r#]*)`)

// TaskInfo is an unchecked todo found in a daily log.
type TaskInfo struct {
	Task string `json:"task"`
	Path string `json:"path"`
}

// ScanTasksForMonth collects unchecked todo items from every daily log of
// the month containing target. Unreadable files are logged and skipped.
func ScanTasksForMonth(store Store, root string, target time.Time) []TaskInfo {
	var tasks []TaskInfo
	first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, target.Location())
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		path := LogPath(root, day)
		if !store.Exists(path) {
			continue
		}
		content, err := store.Read(path)
		if err != nil {
			log.Printf("worklog-pilot: could not read %s: %v", path, err)
			continue
		}
		for _, m := range todoRegex.FindAllStringSubmatch(content, -1) {
			task := strings.TrimSpace(m[1])
			if task != "" {
				tasks = append(tasks, TaskInfo{Task: task, Path: path})
			}
		}
	}
	return tasks
}

// ExistingLogDates scans the month folders around current (previous, same,
// next) and returns the set of ISO dates that have a daily log. Calendar
// consumers use this to mark days with data without touching every file.
func ExistingLogDates(store Store, root string, current time.Time) map[string]bool {
	existing := make(map[string]bool)
	for i := -1; i <= 1; i++ {
		month := current.AddDate(0, i, 0)
		dir := MonthDir(root, month)
		if !store.Exists(dir) {
			continue
		}
		files, _, err := store.List(dir)
		if err != nil {
			log.Printf("worklog-pilot: could not list %s: %v", dir, err)
			continue
		}
		for _, filePath := range files {
			parts := strings.Split(filePath, "/")
			name := parts[len(parts)-1]
			day := strings.SplitN(name, ".", 2)[0]
			if day == "" {
				continue
			}
			if len(day) == 1 {
				day = "0" + day
			}
			existing[fmt.Sprintf("%s-%s", month.Format("2006-01"), day)] = true
		}
	}
	return existing
}

// SampleTaskTitles walks month folders newest-first collecting distinct task
// titles, up to limit. Used to seed AI category suggestions with what the
// user actually logs.
func SampleTaskTitles(store Store, root string, limit int) []string {
	if limit <= 0 {
		limit = 100
	}
	if !store.Exists(root) {
		return nil
	}
	_, folders, err := store.List(root)
	if err != nil {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(folders)))

	seen := make(map[string]struct{})
	var titles []string
	for _, folder := range folders {
		if len(titles) >= limit {
			break
		}
		files, _, err := store.List(folder)
		if err != nil {
			continue
		}
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
		for _, filePath := range files {
			if len(titles) >= limit {
				break
			}
			if !strings.HasSuffix(filePath, LogExt) {
				continue
			}
			content, err := store.Read(filePath)
			if err != nil {
				continue
			}
			for title := range worklog.ParseDailyContent(content) {
				title = strings.TrimSpace(title)
				if utf8.RuneCountInString(title) <= 1 {
					continue
				}
				if _, dup := seen[title]; dup {
					continue
				}
				seen[title] = struct{}{}
				titles = append(titles, title)
				if len(titles) >= limit {
					break
				}
			}
		}
	}
	return titles
}
