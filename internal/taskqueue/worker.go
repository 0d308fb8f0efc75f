package taskqueue

import (
	"log"

	"github.com/hibiken/asynq"
)

var (
	asynqClient *asynq.Client
	asynqMux    = asynq.NewServeMux()
	asynqSrv    *asynq.Server
)

// Connect initializes the enqueue client. Call it before any producer (MQTT
// ingestion callbacks, cron ticks) can run: producers read the client without
// a lock, so it must never be assigned concurrently with an enqueue.
func Connect(redisAddr string) {
	asynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
}

// StartWorkers starts Asynq workers
func StartWorkers(redisAddr string) {
	log.Printf("TASKQUEUE: starting workers with Redis at %s", redisAddr)
	asynqMux.HandleFunc(TaskEvaluateRules, evaluateRulesTask)
	asynqMux.HandleFunc(TaskAuditDispatch, auditDispatchTask)
	asynqSrv = asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: 10})
	if err := asynqSrv.Run(asynqMux); err != nil {
		log.Fatalf("TASKQUEUE: failed to start workers: %v", err)
	}
}

// StopWorkers stops workers
func StopWorkers() {
	log.Println("TASKQUEUE: stopping workers...")
	if asynqSrv != nil {
		asynqSrv.Stop()
	}
	if asynqClient != nil {
		asynqClient.Close()
	}
	log.Println("TASKQUEUE: workers stopped")
}
