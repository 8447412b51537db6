package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/ai"
	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/report"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// Handler holds dependencies for API handlers
type Handler struct {
	Deps
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStats handles GET /stats?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRangeQuery(w, r)
	if !ok {
		return
	}
	stats := h.Indexer.StatsInRange(start, end)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"start":       start.Format(index.DateFormat),
		"end":         end.Format(index.DateFormat),
		"tasks":       stats,
		"total_hours": stats.TotalHours(),
	})
}

// HandleTimeline handles GET /timeline?date=YYYY-MM-DD (default today)
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse(index.DateFormat, q)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	content, err := h.Store.Read(vault.LogPath(h.Root, date))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":     date.Format(index.DateFormat),
			"timeline": []worklog.TimelineItem{},
		})
		return
	}

	items := worklog.ParseTimeline(content, h.Classifier, h.Markers)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":     date.Format(index.DateFormat),
		"timeline": items,
	})
}

// HandleActiveTask handles GET /active
func (h *Handler) HandleActiveTask(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	content, err := h.Store.Read(vault.LogPath(h.Root, now))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": nil})
		return
	}

	task := worklog.DetectActiveTask(content, now, h.Markers)
	if task == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active": map[string]interface{}{
			"title":      task.Title,
			"start_time": task.StartTime.Format("15:04"),
			"category":   h.Classifier.Classify(task.Title),
		},
	})
}

// HandleFindTask handles GET /tasks?title=...
func (h *Handler) HandleFindTask(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		http.Error(w, "title query parameter is required", http.StatusBadRequest)
		return
	}
	dates := h.Indexer.FindDatesWithTask(title)
	writeJSON(w, http.StatusOK, map[string]interface{}{"title": title, "dates": dates})
}

// HandleReport handles GET /report?start=&end=
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRangeQuery(w, r)
	if !ok {
		return
	}
	rep := h.Reports.BuildRange(start, end)
	writeJSON(w, http.StatusOK, rep)
}

// HandleTodos handles GET /todos?month=YYYY-MM (default current month)
func (h *Handler) HandleTodos(w http.ResponseWriter, r *http.Request) {
	target := time.Now()
	if q := r.URL.Query().Get("month"); q != "" {
		parsed, err := time.Parse("2006-01", q)
		if err != nil {
			http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		target = parsed
	}
	tasks := vault.ScanTasksForMonth(h.Store, h.Root, target)
	if tasks == nil {
		tasks = []vault.TaskInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"month": target.Format("2006-01"),
		"todos": tasks,
	})
}

// HandleCalendar handles GET /calendar?date=YYYY-MM-DD. It returns the
// dates around the given one that have a daily log, for calendar views.
func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	current := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse(index.DateFormat, q)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		current = parsed
	}
	existing := vault.ExistingLogDates(h.Store, h.Root, current)
	dates := make([]string, 0, len(existing))
	for date := range existing {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

// HandleSuggestCategories handles POST /categories/suggest. It samples real
// task titles from the vault and asks the model for categorization rules.
func (h *Handler) HandleSuggestCategories(w http.ResponseWriter, r *http.Request) {
	if h.AI == nil {
		http.Error(w, "no AI provider configured", http.StatusServiceUnavailable)
		return
	}
	titles := vault.SampleTaskTitles(h.Store, h.Root, 100)
	if len(titles) == 0 {
		http.Error(w, "no task titles found", http.StatusNotFound)
		return
	}
	system, user := ai.CategorySuggestionPrompt(titles)
	suggestion, err := h.AI.Generate(r.Context(), system, user)
	if err != nil {
		http.Error(w, fmt.Sprintf("AI generation failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sampled":    len(titles),
		"suggestion": suggestion,
	})
}

// HandleRescan handles POST /index/rescan
func (h *Handler) HandleRescan(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	count := h.Indexer.FullScan()
	if h.Repo != nil {
		if err := h.Repo.LogIndexRun("full_scan", count, time.Since(started)); err != nil {
			log.Printf("api: failed to log index run: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": count})
}

// GenerateSummaryRequest represents the payload for POST /report/summary
type GenerateSummaryRequest struct {
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// HandleGenerateSummary handles POST /report/summary. It builds the raw log
// digest for the range, asks the model for a summary, saves it as a note in
// the vault and records it in the database.
func (h *Handler) HandleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	if h.AI == nil {
		http.Error(w, "no AI provider configured", http.StatusServiceUnavailable)
		return
	}

	// An empty body means "this week".
	var req GenerateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind := ai.SummaryKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	now := time.Now()
	var start, end time.Time
	switch {
	case req.Start != "" && req.End != "":
		var err error
		start, err = time.Parse(index.DateFormat, req.Start)
		if err == nil {
			end, err = time.Parse(index.DateFormat, req.End)
		}
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	case kind == ai.SummaryMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, -1)
	case kind == ai.SummaryYearly:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end = time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location())
	default:
		kind = ai.SummaryWeekly
		start, end = report.WeekRange(now)
	}
	if kind == "" {
		kind = ai.SummaryWeekly
	}

	rep := h.Reports.BuildRange(start, end)
	if rep.RawContent == "" {
		http.Error(w, "no work logs in range", http.StatusNotFound)
		return
	}

	system, user := ai.SummaryPrompts(kind, rep.RawContent)
	summary, err := h.AI.Generate(r.Context(), system, user)
	if err != nil {
		http.Error(w, fmt.Sprintf("AI generation failed: %v", err), http.StatusInternalServerError)
		return
	}

	startStr := start.Format(index.DateFormat)
	endStr := end.Format(index.DateFormat)

	notePath := path.Join(h.Root, "summaries",
		vault.SanitizeFilename(fmt.Sprintf("%s %s", kind, startStr))+vault.LogExt)
	note := &vault.Note{
		Path: notePath,
		Frontmatter: map[string]interface{}{
			"created":     now.Format(index.DateFormat),
			"type":        string(kind) + "-summary",
			"range_start": startStr,
			"range_end":   endStr,
			"model":       h.Model,
		},
		Content: summary,
	}
	if err := vault.WriteNote(h.Store, note); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write summary note: %v", err), http.StatusInternalServerError)
		return
	}

	if h.Repo != nil {
		if err := h.Repo.LogSummary(string(kind), startStr, endStr, h.Model, summary); err != nil {
			log.Printf("api: failed to log summary: %v", err)
		}
	}

	if h.Git != nil {
		go func() {
			if err := h.Git.Sync("Add " + string(kind) + " summary " + startStr); err != nil {
				log.Printf("api: git sync failed: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status":  "created",
		"path":    notePath,
		"summary": summary,
	})
}

func parseRangeQuery(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" || endStr == "" {
		http.Error(w, "start and end query parameters are required", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(index.DateFormat, startStr)
	if err != nil {
		http.Error(w, "invalid start date, expected YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(index.DateFormat, endStr)
	if err != nil {
		http.Error(w, "invalid end date, expected YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		http.Error(w, "end must not be before start", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
