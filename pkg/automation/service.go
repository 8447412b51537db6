package automation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mklimuk/worklog-pilot/pkg/db"
)

// ActionFunc executes one automation. params carries the automation's
// parameter payload as stored, usually JSON.
type ActionFunc func(ctx context.Context, params string) (string, error)

// Service polls the automations table and executes due actions.
type Service struct {
	repo         *db.Repository
	loc          *time.Location
	pollInterval time.Duration

	mu      sync.RWMutex
	actions map[string]ActionFunc

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewService creates a new automation scheduler service.
func NewService(repo *db.Repository, loc *time.Location, pollInterval time.Duration) *Service {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:         repo,
		loc:          loc,
		pollInterval: pollInterval,
		actions:      make(map[string]ActionFunc),
		stop:         make(chan struct{}),
	}
}

// RegisterAction registers a runnable automation action.
func (s *Service) RegisterAction(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = fn
}

// Create registers a new automation after validating its schedule.
func (s *Service) Create(name, action, schedule, params string) (int64, error) {
	s.mu.RLock()
	_, known := s.actions[action]
	s.mu.RUnlock()
	if !known {
		return 0, fmt.Errorf("unknown action %q", action)
	}

	next, err := NextRun(schedule, time.Now(), s.loc)
	if err != nil {
		return 0, err
	}
	if next.IsZero() {
		return 0, fmt.Errorf("schedule %q has no future runs", schedule)
	}
	return s.repo.CreateAutomation(name, action, schedule, params, next)
}

// Start begins the polling loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop stops the polling loop and waits for shutdown.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Run one immediate tick on startup.
	s.runOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.runOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	now := time.Now()
	due, err := s.repo.ClaimDueAutomations(now, func(a db.Automation) time.Time {
		next, err := NextRun(a.Schedule, now, s.loc)
		if err != nil {
			log.Printf("automation: bad schedule for %q: %v", a.Name, err)
			return time.Time{}
		}
		return next
	})
	if err != nil {
		log.Printf("automation: failed to claim due automations: %v", err)
		return
	}
	for _, a := range due {
		s.execute(ctx, a)
	}
}

func (s *Service) execute(ctx context.Context, a db.Automation) {
	runID, err := s.repo.StartAutomationRun(a.ID)
	if err != nil {
		log.Printf("automation: failed to create run for %q: %v", a.Name, err)
		return
	}

	s.mu.RLock()
	action := s.actions[a.Action]
	s.mu.RUnlock()

	status := "ok"
	result := ""
	if action == nil {
		status = "failed"
		result = fmt.Sprintf("unknown action: %s", a.Action)
	} else if out, execErr := action(ctx, a.Params); execErr != nil {
		status = "failed"
		result = execErr.Error()
	} else {
		result = out
	}

	if err := s.repo.FinishAutomationRun(runID, status, result); err != nil {
		log.Printf("automation: failed to finish run %d for %q: %v", runID, a.Name, err)
	}
}
