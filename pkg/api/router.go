package api

import (
	"net/http"

	"github.com/mklimuk/worklog-pilot/pkg/ai"
	"github.com/mklimuk/worklog-pilot/pkg/automation"
	"github.com/mklimuk/worklog-pilot/pkg/db"
	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/report"
	"github.com/mklimuk/worklog-pilot/pkg/sync"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// Deps bundles the handler dependencies
type Deps struct {
	Store       vault.Store
	Root        string
	Indexer     *index.Indexer
	Reports     *report.Builder
	Classifier  *worklog.Classifier
	Markers     *worklog.EndOfDayMarkers
	AI          ai.Generator
	Model       string
	Repo        *db.Repository
	Automations *automation.Service
	Git         *sync.GitManager
}

// NewRouter creates a new HTTP router
func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	h := &Handler{Deps: deps}

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /timeline", h.HandleTimeline)
	mux.HandleFunc("GET /active", h.HandleActiveTask)
	mux.HandleFunc("GET /tasks", h.HandleFindTask)
	mux.HandleFunc("GET /report", h.HandleReport)
	mux.HandleFunc("GET /todos", h.HandleTodos)
	mux.HandleFunc("GET /calendar", h.HandleCalendar)
	mux.HandleFunc("POST /categories/suggest", h.HandleSuggestCategories)
	mux.HandleFunc("POST /index/rescan", h.HandleRescan)
	mux.HandleFunc("POST /report/summary", h.HandleGenerateSummary)
	mux.HandleFunc("POST /automations", h.HandleCreateAutomation)
	mux.HandleFunc("GET /automations", h.HandleListAutomations)
	mux.HandleFunc("PATCH /automations/{id}", h.HandleUpdateAutomation)
	mux.HandleFunc("DELETE /automations/{id}", h.HandleDeleteAutomation)

	return mux
}
