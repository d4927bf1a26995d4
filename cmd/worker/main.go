// Package main is the entry point for the scout worker.
// The worker pulls assignment jobs from the queue and runs them: claim the
// assignment, execute the research, commit the result, emit the artifacts.
// It owns concurrency, timeouts, retries, and crash recovery.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scout/internal/config"
	"scout/internal/logger"
	"scout/internal/notify"
	"scout/internal/observability"
	"scout/internal/research"
	"scout/internal/store/postgres"
	"scout/internal/worker"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file (default: environment only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogger := logger.New()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "scout-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Storage
	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	// Research function
	researcher, err := research.NewOpenAIResearcher(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("Failed to create researcher: %v", err)
	}

	// Notifications. Push delivery is optional; the persisted record is not.
	var deliverer notify.Deliverer = notify.NoopDeliverer{}
	if cfg.PushWebhookURL != "" {
		deliverer = notify.NewWebhookDeliverer(cfg.PushWebhookURL)
	}
	notifier := notify.New(st, deliverer, slogger)

	processor := worker.NewProcessor(st, st, researcher, st, notifier, worker.ProcessorConfig{
		MaxAttempts:     cfg.MaxAttempts,
		BackoffBase:     cfg.RetryBackoffBase,
		BackoffMax:      cfg.RetryBackoffMax,
		ResearchTimeout: cfg.ResearchTimeout,
	}, slogger)

	hostname, _ := os.Hostname()
	agent := worker.New(st, processor, worker.AgentConfig{
		ID:                 hostname,
		Concurrency:        cfg.WorkerConcurrency,
		PollInterval:       cfg.WorkerPollInterval,
		MaxBackoff:         cfg.WorkerMaxBackoff,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		ClaimExtension:     cfg.ClaimExtension,
		StaleCheckInterval: cfg.StaleCheckInterval,
	}, slogger)

	log.Printf("Worker started with concurrency %d", cfg.WorkerConcurrency)
	go agent.Run(ctx)

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Start a dedicated metrics server on port 6162
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		log.Println("Worker metrics listening on :6162")
		if err := http.ListenAndServe(":6162", mux); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()

	<-agent.Done()
}
