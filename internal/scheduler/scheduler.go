package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"homehub/internal/db"
	"homehub/internal/dispatch"
	"homehub/internal/models"
	"homehub/internal/statestore"

	"github.com/robfig/cron/v3"
)

// DefaultTick is the evaluation cadence when no override is configured
const DefaultTick = 20 * time.Second

// WindowStatus reports one timer rule's state for the API surface
type WindowStatus struct {
	RuleID   int64  `json:"rule_id"`
	Title    string `json:"title"`
	InWindow bool   `json:"in_window"`
	Fired    bool   `json:"fired"`
}

// Scheduler evaluates timer rules on a fixed cron tick. Each rule carries an
// armed flag so a multi-minute window fires exactly one dispatch; the flag
// resets when the rule leaves its window. Armed state is in-memory only.
type Scheduler struct {
	cron       *cron.Cron
	db         *db.DB
	store      *statestore.Store
	dispatcher *dispatch.Dispatcher

	mu    sync.Mutex
	armed map[int64]bool
}

// New creates a scheduler
func New(dbConn *db.DB, store *statestore.Store, disp *dispatch.Dispatcher) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		db:         dbConn,
		store:      store,
		dispatcher: disp,
		armed:      make(map[int64]bool),
	}
}

// Start registers the evaluation tick and starts the cron runner
func (s *Scheduler) Start(tick time.Duration) error {
	if tick <= 0 {
		tick = DefaultTick
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", tick), s.tick); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("SCHEDULER: started, evaluating timer rules every %s", tick)
	return nil
}

// Stop stops the cron runner and waits for a running tick to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("SCHEDULER: stopped")
}

// AddJob registers an extra cron job on the scheduler's runner. Used by main
// to drive the periodic rule-engine evaluation off the same clock.
func (s *Scheduler) AddJob(spec string, fn func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, fn)
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.EvaluateTimers(ctx); err != nil {
		log.Printf("SCHEDULER: tick failed: %v", err)
	}
}

// EvaluateTimers loads enabled timer rules and evaluates them against now
func (s *Scheduler) EvaluateTimers(ctx context.Context) ([]WindowStatus, error) {
	rules, err := s.db.GetTimerRules(ctx, 0, true)
	if err != nil {
		return nil, err
	}
	return s.EvaluateAt(rules, time.Now()), nil
}

// EvaluateAt walks the rules against the given wall-clock time. A rule fires
// when it enters its window while unarmed; it stays armed until the window is
// left, so re-evaluation inside the window never re-fires.
func (s *Scheduler) EvaluateAt(rules []models.TimerRule, now time.Time) []WindowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]WindowStatus, 0, len(rules))
	for _, rule := range rules {
		status := WindowStatus{RuleID: rule.ID, Title: rule.Title}
		if !rule.Enabled {
			statuses = append(statuses, status)
			continue
		}

		if inWindow(rule, now) {
			status.InWindow = true
			if !s.armed[rule.ID] {
				s.armed[rule.ID] = true
				status.Fired = true
				if !s.store.Contains(rule.RelayDeviceID) {
					log.Printf("SCHEDULER: timer %d targets relay %s that has never published", rule.ID, rule.RelayDeviceID)
				}
				if err := s.dispatcher.Send("timer", rule.ID, rule.RelayDeviceID, rule.Action); err != nil {
					log.Printf("SCHEDULER: dispatch for timer %d failed: %v", rule.ID, err)
				}
			}
		} else {
			s.armed[rule.ID] = false
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// inWindow checks day membership and inclusive clock containment. Windows are
// same-day only: start > end is an empty window and never matches.
func inWindow(rule models.TimerRule, now time.Time) bool {
	day := now.Weekday().String()[:3]
	if !containsDay(rule.Days, day) {
		return false
	}
	start, err := parseClock(rule.StartTime)
	if err != nil {
		log.Printf("SCHEDULER: timer %d has bad start_time %q: %v", rule.ID, rule.StartTime, err)
		return false
	}
	end, err := parseClock(rule.EndTime)
	if err != nil {
		log.Printf("SCHEDULER: timer %d has bad end_time %q: %v", rule.ID, rule.EndTime, err)
		return false
	}
	current := now.Hour()*60 + now.Minute()
	return start <= current && current <= end
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// parseClock parses "HH:MM" into minutes since midnight
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
