package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"homehub/internal/db"
	"homehub/internal/dispatch"
	"homehub/internal/models"
	"homehub/internal/registry"
	"homehub/internal/statestore"
)

// DefaultDebounce is the minimum re-fire interval per rule
const DefaultDebounce = 60 * time.Second

// RuleStatus reports one rule's outcome for the API surface
type RuleStatus struct {
	RuleID     int64       `json:"rule_id"`
	Title      string      `json:"title"`
	DeviceID   string      `json:"device_id"`
	SensorKey  string      `json:"sensor_key"`
	Value      interface{} `json:"value"`
	Matched    bool        `json:"matched"`
	Dispatched bool        `json:"dispatched"`
}

// Result summarizes one evaluation pass
type Result struct {
	Evaluated  int          `json:"evaluated"`
	Matches    int          `json:"matches"`
	Dispatches int          `json:"dispatches"`
	Rules      []RuleStatus `json:"rules"`
}

// Engine evaluates automation rules against the device state store. Debounce
// state lives in memory only; a restart may re-fire a matching rule once.
type Engine struct {
	db         *db.DB
	store      *statestore.Store
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	maxAge     time.Duration
	debounce   time.Duration

	mu        sync.Mutex
	lastFired map[int64]time.Time
}

// New creates an engine. maxAge bounds reading freshness, debounce the
// per-rule re-fire interval; zero values select the defaults.
func New(dbConn *db.DB, store *statestore.Store, reg *registry.Registry, disp *dispatch.Dispatcher, maxAge, debounce time.Duration) *Engine {
	if maxAge <= 0 {
		maxAge = statestore.DefaultMaxAge
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Engine{
		db:         dbConn,
		store:      store,
		registry:   reg,
		dispatcher: disp,
		maxAge:     maxAge,
		debounce:   debounce,
		lastFired:  make(map[int64]time.Time),
	}
}

// EvaluateRules runs one evaluation pass over the enabled rules of ownerID
// (ownerID <= 0 means all owners) against a fresh state snapshot.
func (e *Engine) EvaluateRules(ctx context.Context, ownerID int64) (Result, error) {
	rules, err := e.db.GetAutomationRules(ctx, ownerID, true)
	if err != nil {
		return Result{}, err
	}
	sensors, err := e.registry.SensorsByID(ctx)
	if err != nil {
		return Result{}, err
	}
	now := time.Now()
	snap := e.store.SnapshotAt(e.maxAge, now)
	return e.evaluate(rules, sensors, snap, now), nil
}

// evaluate applies every rule to the snapshot. Rules are level-triggered: a
// match that is still inside its debounce interval counts as already
// satisfied and is not re-dispatched. The debounce marker is written when the
// rule decides to fire and is not rolled back on publish failure.
func (e *Engine) evaluate(rules []models.AutomationRule, sensors map[int64]models.SensorMeta, snap map[string]statestore.DeviceState, now time.Time) Result {
	result := Result{}
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		result.Evaluated++

		status := RuleStatus{RuleID: rule.ID, Title: rule.Title}
		meta, ok := sensors[rule.SensorID]
		if !ok {
			log.Printf("ENGINE: rule %d references unknown sensor %d, skipping", rule.ID, rule.SensorID)
			result.Rules = append(result.Rules, status)
			continue
		}
		status.DeviceID = meta.DeviceID
		status.SensorKey = meta.SensorKey

		var value interface{}
		if state, ok := snap[meta.DeviceID]; ok {
			value = state.Readings[meta.SensorKey]
		}
		status.Value = value

		matched := false
		if meta.IsDiscrete() && rule.Condition != ConditionEquals {
			// Ordered comparison against a state sensor is a configuration
			// error, even when the state value happens to parse as a number
			log.Printf("ENGINE: rule %d applies %s to discrete sensor %s, treating as non-match", rule.ID, rule.Condition, meta.SensorKey)
		} else {
			matched = matchCondition(value, rule.Condition, rule.Threshold)
		}
		if matched {
			status.Matched = true
			result.Matches++
			if e.due(rule.ID, now) {
				status.Dispatched = true
				result.Dispatches++
				if err := e.dispatcher.Send("rule", rule.ID, rule.RelayDeviceID, rule.Action); err != nil {
					log.Printf("ENGINE: dispatch for rule %d failed: %v", rule.ID, err)
				}
			}
		}
		result.Rules = append(result.Rules, status)
	}
	return result
}

// due marks the rule as fired at now unless it fired within the debounce
// interval already
func (e *Engine) due(ruleID int64, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.lastFired[ruleID]; ok && now.Sub(last) < e.debounce {
		return false
	}
	e.lastFired[ruleID] = now
	return true
}
