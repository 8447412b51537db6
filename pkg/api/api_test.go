package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/automation"
	"github.com/mklimuk/worklog-pilot/pkg/db"
	"github.com/mklimuk/worklog-pilot/pkg/index"
	"github.com/mklimuk/worklog-pilot/pkg/report"
	"github.com/mklimuk/worklog-pilot/pkg/vault"
	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// MockGenerator implements ai.Generator for testing
type MockGenerator struct {
	Response   string
	Err        error
	LastSystem string
	LastUser   string
}

func (m *MockGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	m.LastSystem = system
	m.LastUser = user
	return m.Response, m.Err
}

func (m *MockGenerator) Close() error { return nil }

const testRoot = "Worklogs"

func setupRouter(t *testing.T, gen *MockGenerator) (*http.ServeMux, vault.Store, *db.Repository) {
	t.Helper()

	store := vault.NewDirStore(t.TempDir())
	write := func(date, content string) {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Write(vault.LogPath(testRoot, day), content); err != nil {
			t.Fatal(err)
		}
	}
	// 2026-03-02 is a Monday
	write("2026-03-02", "- 09:00 Fix login bug\n- 12:00 Lunch break\n- 13:00 Weekly sync: roadmap\n- 15:00 Fix login bug\n- 18:00 下班\n")
	write("2026-03-04", "- 10:00 Code review\n- 12:00 End of work\n")

	ix := index.NewIndexer(store, testRoot, "index/data-index.json")
	ix.FullScan()

	classifier := worklog.NewClassifier(worklog.DefaultCategories())

	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatal(err)
	}
	repo := db.NewRepository(database)

	svc := automation.NewService(repo, time.UTC, time.Minute)
	svc.RegisterAction("full_scan", func(ctx context.Context, params string) (string, error) {
		return "", nil
	})

	router := NewRouter(Deps{
		Store:       store,
		Root:        testRoot,
		Indexer:     ix,
		Reports:     report.NewBuilder(store, testRoot, ix, classifier, 8),
		Classifier:  classifier,
		Markers:     worklog.DefaultEndOfDayMarkers(),
		AI:          gen,
		Model:       "test-model",
		Repo:        repo,
		Automations: svc,
	})
	return router, store, repo
}

func doRequest(t *testing.T, router *http.ServeMux, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleStats(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{})

	w := doRequest(t, router, "GET", "/stats?start=2026-03-01&end=2026-03-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Tasks      map[string]float64 `json:"tasks"`
		TotalHours float64            `json:"total_hours"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Tasks["Fix login bug"] != 6 {
		t.Errorf("Fix login bug = %v, want 6", resp.Tasks["Fix login bug"])
	}
	if resp.Tasks["Code review"] != 2 {
		t.Errorf("Code review = %v, want 2", resp.Tasks["Code review"])
	}

	// Missing params
	if w := doRequest(t, router, "GET", "/stats?start=2026-03-01", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing end, got %d", w.Code)
	}
	// Inverted range
	if w := doRequest(t, router, "GET", "/stats?start=2026-03-31&end=2026-03-01", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", w.Code)
	}
}

func TestHandleTimeline(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{})

	w := doRequest(t, router, "GET", "/timeline?date=2026-03-02", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Timeline []worklog.TimelineItem `json:"timeline"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Timeline) != 5 {
		t.Fatalf("expected 5 timeline items, got %d", len(resp.Timeline))
	}
	if resp.Timeline[0].Duration != "3h" {
		t.Errorf("first item duration = %q, want 3h", resp.Timeline[0].Duration)
	}

	// A day with no log yields an empty timeline, not an error
	w = doRequest(t, router, "GET", "/timeline?date=2026-03-03", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Timeline) != 0 {
		t.Errorf("expected empty timeline, got %d items", len(resp.Timeline))
	}

	if w := doRequest(t, router, "GET", "/timeline?date=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w.Code)
	}
}

func TestHandleFindTask(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{})

	w := doRequest(t, router, "GET", "/tasks?title="+strings.ReplaceAll("Fix login bug", " ", "+"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Dates) != 1 || resp.Dates[0] != "2026-03-02" {
		t.Errorf("dates = %v", resp.Dates)
	}

	if w := doRequest(t, router, "GET", "/tasks", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing title, got %d", w.Code)
	}
}

func TestHandleTodos(t *testing.T) {
	router, store, _ := setupRouter(t, &MockGenerator{})

	day, _ := time.Parse("2006-01-02", "2026-03-05")
	content := "### Todos\n- [ ] Ship release notes\n- [x] Old item\n\n### Work Records\n- 09:00 Coding\n"
	if err := store.Write(vault.LogPath(testRoot, day), content); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, router, "GET", "/todos?month=2026-03", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Todos []vault.TaskInfo `json:"todos"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Todos) != 1 || resp.Todos[0].Task != "Ship release notes" {
		t.Errorf("todos = %+v", resp.Todos)
	}

	// A month with no todos returns an empty list
	w = doRequest(t, router, "GET", "/todos?month=2025-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Todos) != 0 {
		t.Errorf("expected no todos, got %+v", resp.Todos)
	}

	if w := doRequest(t, router, "GET", "/todos?month=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad month, got %d", w.Code)
	}
}

func TestHandleCalendar(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{})

	w := doRequest(t, router, "GET", "/calendar?date=2026-03-15", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Dates) != 2 || resp.Dates[0] != "2026-03-02" || resp.Dates[1] != "2026-03-04" {
		t.Errorf("dates = %v", resp.Dates)
	}
}

func TestHandleSuggestCategories(t *testing.T) {
	gen := &MockGenerator{Response: "coding|code|fix|bug"}
	router, _, _ := setupRouter(t, gen)

	w := doRequest(t, router, "POST", "/categories/suggest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(gen.LastUser, "Fix login bug") {
		t.Errorf("sampled titles missing from prompt: %q", gen.LastUser)
	}
	var resp struct {
		Sampled    int    `json:"sampled"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Sampled == 0 || resp.Suggestion != gen.Response {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandleRescan(t *testing.T) {
	router, _, repo := setupRouter(t, &MockGenerator{})

	w := doRequest(t, router, "POST", "/index/rescan", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Files int `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Files != 2 {
		t.Errorf("files = %d, want 2", resp.Files)
	}

	run, err := repo.GetLatestIndexRun()
	if err != nil {
		t.Fatalf("get latest index run: %v", err)
	}
	if run == nil || run.Kind != "full_scan" || run.Files != 2 {
		t.Errorf("unexpected index run %+v", run)
	}
}

func TestHandleGenerateSummary(t *testing.T) {
	gen := &MockGenerator{Response: "## Key Work This Week\n- Fixed the login bug"}
	router, store, repo := setupRouter(t, gen)

	w := doRequest(t, router, "POST", "/report/summary", map[string]string{
		"kind":  "weekly",
		"start": "2026-03-02",
		"end":   "2026-03-08",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(gen.LastUser, "=== 2026-03-02 ===") {
		t.Errorf("digest missing from prompt: %q", gen.LastUser)
	}
	if !strings.Contains(gen.LastUser, "Fix login bug") {
		t.Error("log content missing from prompt")
	}

	var resp struct {
		Path    string `json:"path"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Summary != gen.Response {
		t.Errorf("summary = %q", resp.Summary)
	}

	note, err := vault.ReadNote(store, resp.Path)
	if err != nil {
		t.Fatalf("read summary note: %v", err)
	}
	if note.Frontmatter["type"] != "weekly-summary" {
		t.Errorf("note type = %v", note.Frontmatter["type"])
	}
	if !strings.Contains(note.Content, "Fixed the login bug") {
		t.Errorf("note content = %q", note.Content)
	}

	s, err := repo.GetLatestSummary("weekly")
	if err != nil {
		t.Fatalf("get latest summary: %v", err)
	}
	if s == nil || s.Model != "test-model" || s.RangeStart != "2026-03-02" {
		t.Errorf("unexpected summary row %+v", s)
	}
}

func TestHandleGenerateSummaryEmptyRange(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{Response: "x"})

	w := doRequest(t, router, "POST", "/report/summary", map[string]string{
		"kind":  "weekly",
		"start": "2025-01-01",
		"end":   "2025-01-07",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for empty range, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestAutomationEndpoints(t *testing.T) {
	router, _, _ := setupRouter(t, &MockGenerator{})

	createBody := map[string]interface{}{
		"name":     "Hourly Rescan",
		"action":   "full_scan",
		"schedule": "every 1h",
	}
	w := doRequest(t, router, "POST", "/automations", createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID      int64      `json:"ID"`
		NextRun *time.Time `json:"NextRun"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal create response: %v", err)
	}
	if created.ID <= 0 {
		t.Fatalf("expected id > 0, got %d", created.ID)
	}
	if created.NextRun == nil {
		t.Fatal("expected next run to be set")
	}

	if w := doRequest(t, router, "GET", "/automations", nil); w.Code != http.StatusOK {
		t.Fatalf("list status = %d body=%s", w.Code, w.Body.String())
	}

	idPath := "/automations/" + strconv.FormatInt(created.ID, 10)
	w = doRequest(t, router, "PATCH", idPath, map[string]bool{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "DELETE", idPath, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, "DELETE", idPath, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", w.Code)
	}

	// Unknown action rejected
	w = doRequest(t, router, "POST", "/automations", map[string]interface{}{
		"name": "bad", "action": "nope", "schedule": "every 1h",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", w.Code)
	}
}

func TestAutomationEndpointsUnconfigured(t *testing.T) {
	router := NewRouter(Deps{})

	cases := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"POST", "/automations", map[string]interface{}{"name": "n", "action": "a", "schedule": "every 1h"}},
		{"GET", "/automations", nil},
		{"PATCH", "/automations/1", map[string]bool{"enabled": false}},
		{"DELETE", "/automations/1", nil},
	}
	for _, tc := range cases {
		w := doRequest(t, router, tc.method, tc.path, tc.body)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s = %d, want 503", tc.method, tc.path, w.Code)
		}
	}
}
