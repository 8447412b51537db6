package vault

import (
	"fmt"
	"strings"
	"time"
)

// LogExt is the daily log file extension.
const LogExt = ".md"

// MonthDir returns the folder holding one month's logs: <root>/<YYYYMM>.
func MonthDir(root string, date time.Time) string {
	return fmt.Sprintf("%s/%s", root, date.Format("200601"))
}

// LogPath returns the daily log path for a date: <root>/<YYYYMM>/<DD>.md.
func LogPath(root string, date time.Time) string {
	return fmt.Sprintf("%s/%s/%s%s", root, date.Format("200601"), date.Format("02"), LogExt)
}

// DateFromPath derives the ISO date from a daily log path following the
// <root>/<YYYYMM>/<DD>.md convention. The day segment may omit a leading
// zero; the result is always zero-padded. Returns false for paths that do
// not fit the convention.
func DateFromPath(path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", false
	}
	fileName := parts[len(parts)-1]
	monthFolder := parts[len(parts)-2]
	if len(monthFolder) != 6 || !allDigits(monthFolder) {
		return "", false
	}
	day := strings.TrimSuffix(fileName, LogExt)
	if day == fileName || day == "" || len(day) > 2 || !allDigits(day) {
		return "", false
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return fmt.Sprintf("%s-%s-%s", monthFolder[:4], monthFolder[4:6], day), true
}

// UnderRoot reports whether a vault path lives below the log root folder.
func UnderRoot(root, path string) bool {
	return path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
