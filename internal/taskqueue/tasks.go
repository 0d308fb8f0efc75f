package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"homehub/internal/db"
	"homehub/internal/engine"
	"homehub/internal/models"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TaskEvaluateRules = "rules:evaluate"
	TaskAuditDispatch = "audit:dispatch"
)

// Global instances - these should be initialized by the main application
var (
	eng    *engine.Engine
	dbConn *db.DB
)

// SetGlobalInstances sets the engine and database used by the workers
func SetGlobalInstances(e *engine.Engine, database *db.DB) {
	eng = e
	dbConn = database
}

// EvaluationTaskPayload for rule evaluation tasks
type EvaluationTaskPayload struct {
	OwnerID         int64
	UpdatedDeviceID string
}

// EnqueueEvaluation enqueues a rule evaluation pass. ownerID <= 0 evaluates
// all owners; deviceID records which update triggered the pass, for logging.
func EnqueueEvaluation(ownerID int64, deviceID string) error {
	if asynqClient == nil {
		return fmt.Errorf("task queue not started")
	}
	payload, _ := json.Marshal(EvaluationTaskPayload{OwnerID: ownerID, UpdatedDeviceID: deviceID})
	task := asynq.NewTask(TaskEvaluateRules, payload)
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(10*time.Second))
	if err != nil {
		log.Printf("TASKQUEUE: failed to enqueue evaluation (device %s): %v", deviceID, err)
		return err
	}
	log.Printf("TASKQUEUE: enqueued evaluation task %s (device %s)", info.ID, deviceID)
	return nil
}

// EnqueueDispatchAudit enqueues a write-behind audit log entry for one relay
// command. Audit failures never block or fail a dispatch.
func EnqueueDispatchAudit(rec models.DispatchRecord) error {
	if asynqClient == nil {
		return fmt.Errorf("task queue not started")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = asynqClient.Enqueue(asynq.NewTask(TaskAuditDispatch, payload), asynq.MaxRetry(5))
	if err != nil {
		log.Printf("TASKQUEUE: failed to enqueue dispatch audit: %v", err)
	}
	return err
}

// evaluateRulesTask handles a queued evaluation pass
func evaluateRulesTask(ctx context.Context, t *asynq.Task) error {
	var payload EvaluationTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	if eng == nil {
		return fmt.Errorf("engine not initialized")
	}
	result, err := eng.EvaluateRules(ctx, payload.OwnerID)
	if err != nil {
		log.Printf("TASKQUEUE: evaluation failed (device %s): %v", payload.UpdatedDeviceID, err)
		return err
	}
	log.Printf("TASKQUEUE: evaluated %d rules (device %s): %d matched, %d dispatched",
		result.Evaluated, payload.UpdatedDeviceID, result.Matches, result.Dispatches)
	return nil
}

// auditDispatchTask persists one dispatch audit record
func auditDispatchTask(ctx context.Context, t *asynq.Task) error {
	var rec models.DispatchRecord
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return err
	}
	if dbConn == nil {
		return fmt.Errorf("database connection not initialized")
	}
	return dbConn.InsertDispatchRecord(ctx, rec)
}
