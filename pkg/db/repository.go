package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Summary represents a row in the summaries table
type Summary struct {
	ID         int64
	Kind       string
	RangeStart string
	RangeEnd   string
	Model      string
	Content    string
	CreatedAt  time.Time
}

// LogSummary stores a generated summary
func (r *Repository) LogSummary(kind, rangeStart, rangeEnd, model, content string) error {
	query := `INSERT INTO summaries (kind, range_start, range_end, model, content) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, kind, rangeStart, rangeEnd, model, content)
	if err != nil {
		return fmt.Errorf("failed to log summary: %w", err)
	}
	return nil
}

// GetLatestSummary returns the most recent summary of the given kind.
// An empty kind matches any summary.
func (r *Repository) GetLatestSummary(kind string) (*Summary, error) {
	query := `SELECT id, kind, range_start, range_end, COALESCE(model, ''), content, created_at
		FROM summaries WHERE (? = '' OR kind = ?) ORDER BY id DESC LIMIT 1`
	row := r.db.QueryRow(query, kind, kind)

	var s Summary
	err := row.Scan(&s.ID, &s.Kind, &s.RangeStart, &s.RangeEnd, &s.Model, &s.Content, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest summary: %w", err)
	}
	return &s, nil
}

// ListSummaries returns the most recent summaries, newest first
func (r *Repository) ListSummaries(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, kind, range_start, range_end, COALESCE(model, ''), content, created_at
		FROM summaries ORDER BY id DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Kind, &s.RangeStart, &s.RangeEnd, &s.Model, &s.Content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// IndexRun represents a row in the index_runs table
type IndexRun struct {
	ID         int64
	Kind       string
	Files      int
	DurationMs int64
	StartedAt  time.Time
}

// LogIndexRun records an index rebuild or single-file reindex
func (r *Repository) LogIndexRun(kind string, files int, duration time.Duration) error {
	query := `INSERT INTO index_runs (kind, files, duration_ms) VALUES (?, ?, ?)`
	_, err := r.db.Exec(query, kind, files, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to log index run: %w", err)
	}
	return nil
}

// GetLatestIndexRun returns the most recent index run, or nil when none exist
func (r *Repository) GetLatestIndexRun() (*IndexRun, error) {
	query := `SELECT id, kind, files, duration_ms, started_at FROM index_runs ORDER BY id DESC LIMIT 1`
	row := r.db.QueryRow(query)

	var run IndexRun
	err := row.Scan(&run.ID, &run.Kind, &run.Files, &run.DurationMs, &run.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest index run: %w", err)
	}
	return &run, nil
}

// Automation represents a row in the automations table
type Automation struct {
	ID        int64
	Name      string
	Action    string
	Schedule  string
	Params    string
	Enabled   bool
	NextRun   *time.Time
	CreatedAt time.Time
}

// CreateAutomation registers a scheduled action
func (r *Repository) CreateAutomation(name, action, schedule, params string, nextRun time.Time) (int64, error) {
	query := `INSERT INTO automations (name, action, schedule, params, next_run) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.Exec(query, name, action, schedule, params, nextRun.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create automation: %w", err)
	}
	return res.LastInsertId()
}

// ListAutomations returns all automations ordered by name
func (r *Repository) ListAutomations() ([]Automation, error) {
	query := `SELECT id, name, action, schedule, COALESCE(params, ''), enabled, next_run, created_at
		FROM automations ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer rows.Close()

	var out []Automation
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetAutomation returns the automation with the given id, or nil
func (r *Repository) GetAutomation(id int64) (*Automation, error) {
	query := `SELECT id, name, action, schedule, COALESCE(params, ''), enabled, next_run, created_at
		FROM automations WHERE id = ?`
	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanAutomation(rows)
}

// SetAutomationEnabled flips the enabled flag
func (r *Repository) SetAutomationEnabled(id int64, enabled bool) error {
	_, err := r.db.Exec(`UPDATE automations SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update automation: %w", err)
	}
	return nil
}

// DeleteAutomation removes an automation and its run history
func (r *Repository) DeleteAutomation(id int64) error {
	if _, err := r.db.Exec(`DELETE FROM automation_runs WHERE automation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete automation runs: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM automations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	return nil
}

// ClaimDueAutomations returns enabled automations whose next_run is at or
// before now and advances each one's next_run to the provided time, so a
// claimed automation is not picked up again by the next poll.
func (r *Repository) ClaimDueAutomations(now time.Time, advance func(a Automation) time.Time) ([]Automation, error) {
	query := `SELECT id, name, action, schedule, COALESCE(params, ''), enabled, next_run, created_at
		FROM automations WHERE enabled = 1 AND next_run IS NOT NULL AND next_run <= ? ORDER BY next_run`
	rows, err := r.db.Query(query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due automations: %w", err)
	}

	var due []Automation
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		due = append(due, *a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range due {
		next := advance(a)
		var arg interface{}
		if !next.IsZero() {
			arg = next.UTC()
		}
		if _, err := r.db.Exec(`UPDATE automations SET next_run = ? WHERE id = ?`, arg, a.ID); err != nil {
			return nil, fmt.Errorf("failed to advance automation %d: %w", a.ID, err)
		}
	}
	return due, nil
}

// StartAutomationRun records the beginning of an execution
func (r *Repository) StartAutomationRun(automationID int64) (int64, error) {
	res, err := r.db.Exec(`INSERT INTO automation_runs (automation_id, status) VALUES (?, 'running')`, automationID)
	if err != nil {
		return 0, fmt.Errorf("failed to start automation run: %w", err)
	}
	return res.LastInsertId()
}

// FinishAutomationRun records the outcome of an execution
func (r *Repository) FinishAutomationRun(runID int64, status, result string) error {
	query := `UPDATE automation_runs SET status = ?, result = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, status, result, runID); err != nil {
		return fmt.Errorf("failed to finish automation run: %w", err)
	}
	return nil
}

func scanAutomation(rows *sql.Rows) (*Automation, error) {
	var a Automation
	var nextRun sql.NullTime
	if err := rows.Scan(&a.ID, &a.Name, &a.Action, &a.Schedule, &a.Params, &a.Enabled, &nextRun, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}
	if nextRun.Valid {
		t := nextRun.Time
		a.NextRun = &t
	}
	return &a, nil
}
