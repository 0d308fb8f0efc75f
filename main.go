package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homehub/internal/config"
	"homehub/internal/db"
	"homehub/internal/dispatch"
	"homehub/internal/engine"
	"homehub/internal/models"
	"homehub/internal/mqtt"
	"homehub/internal/redis"
	"homehub/internal/registry"
	"homehub/internal/scheduler"
	"homehub/internal/statestore"
	"homehub/internal/taskqueue"
	"homehub/internal/utils"
	"homehub/internal/web"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogging(cfg.LogLevel)

	dbConn, err := db.NewDB(cfg.DBURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbConn.Close(context.Background())

	redisClient := redis.NewRedisClient(cfg.RedisAddr)

	// The enqueue client must exist before MQTT ingestion can produce tasks
	taskqueue.Connect(cfg.RedisAddr)

	// State store plus MQTT ingestion: every applied device update enqueues an
	// evaluation pass over all rules
	store := statestore.New()
	ingestor := mqtt.NewIngestor(store, cfg.IngestQueueSize, func(deviceID string) {
		taskqueue.EnqueueEvaluation(0, deviceID)
	})
	mqttClient, err := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientID, ingestor)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT: %v", err)
	}
	go ingestor.Run()

	dispatcher := dispatch.New(mqttClient)
	dispatcher.SetAudit(func(rec models.DispatchRecord) {
		taskqueue.EnqueueDispatchAudit(rec)
	})

	reg := registry.New(dbConn, redisClient)
	eng := engine.New(dbConn, store, reg, dispatcher,
		time.Duration(cfg.FreshnessWindowSecs)*time.Second,
		time.Duration(cfg.DebounceSecs)*time.Second)

	taskqueue.SetGlobalInstances(eng, dbConn)
	go taskqueue.StartWorkers(cfg.RedisAddr)

	sched := scheduler.New(dbConn, store, dispatcher)
	if err := sched.Start(time.Duration(cfg.TimerTickSecs) * time.Second); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Periodic evaluation decoupled from API callers, driven off the
	// scheduler's cron runner
	if _, err := sched.AddJob(fmt.Sprintf("@every %ds", cfg.EngineTickSecs), func() {
		taskqueue.EnqueueEvaluation(0, "")
	}); err != nil {
		log.Fatalf("Failed to schedule engine tick: %v", err)
	}

	webServer := web.NewWebServer(dbConn.Pool(), redisClient, cfg.JWTSecret, store, reg, dbConn, eng, sched, dispatcher)
	go webServer.Start(fmt.Sprintf(":%d", cfg.HTTPPort))

	go startMDNSServer(cfg.MDNSName)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sched.Stop()
	ingestor.Close()
	mqttClient.Disconnect()
	taskqueue.StopWorkers()
	log.Println("Shutdown complete")
}

func startMDNSServer(localName string) {
	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		log.Println("Failed to resolve UDP4 address for mDNS:", err)
		return
	}

	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		log.Println("Failed to resolve UDP6 address for mDNS:", err)
		return
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		log.Println("Failed to listen on UDP4 for mDNS:", err)
		return
	}

	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		log.Println("Failed to listen on UDP6 for mDNS:", err)
		return
	}

	_, err = mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: []string{localName},
	})
	if err != nil {
		log.Println("Failed to start mDNS server:", err)
	}
}
