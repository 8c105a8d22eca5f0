// Command server runs the access request pipeline: an HTTP API for reviewing
// and deciding requests, plus a background poller that ingests new emails.
// main wires high-level dependencies and keeps the server lifecycle small;
// business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"accessgate/internal/approval"
	"accessgate/internal/audit"
	"accessgate/internal/detect"
	"accessgate/internal/ingest"
	"accessgate/internal/notify"
	"accessgate/internal/platform/config"
	"accessgate/internal/platform/db"
	"accessgate/internal/platform/httpserver"
	"accessgate/internal/platform/logger"
	"accessgate/internal/platform/metrics"
	platformredis "accessgate/internal/platform/redis"
	"accessgate/internal/platform/tx"
	"accessgate/internal/provision"
	"accessgate/internal/request"
	httptransport "accessgate/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Storage backend.
	var (
		requestStore request.Store
		auditStore   audit.Store
		runner       tx.Runner
	)
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema setup failed", "error", err.Error())
			os.Exit(1)
		}
		requestStore = request.NewPostgresStore(pool)
		auditStore = audit.NewPostgresStore(pool)
		runner = tx.NewDBRunner(pool)
	default:
		requestStore = request.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		runner = tx.NewShardedRunner()
	}

	// Audit trail, optionally mirrored to Kafka.
	auditOpts := []audit.PublisherOption{}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
	}
	auditLog := audit.NewPublisher(auditStore, log, auditOpts...)

	// Human notification fan-out.
	notifiers := []notify.Notifier{notify.NewConsole(os.Stdout)}
	if cfg.SlackWebhookURL != "" {
		slackOpts := []notify.SlackOption{}
		if cfg.SlackChannel != "" {
			slackOpts = append(slackOpts, notify.WithSlackChannel(cfg.SlackChannel))
		}
		notifiers = append(notifiers, notify.NewSlack(cfg.SlackWebhookURL, slackOpts...))
	}
	notifier := notify.NewMulti(log, notifiers...)

	dispatcher := provision.NewDispatcher(provision.NewSimulatedProvisioner(log), log)

	workflow := approval.NewService(
		requestStore,
		auditLog,
		notifier,
		dispatcher,
		runner,
		log,
		approval.WithMetrics(m),
		approval.WithProvisionTimeout(cfg.ProvisionTimeout),
	)

	// Email ingest: dedupe via Redis when configured, in-process otherwise.
	var seen ingest.SeenStore = ingest.NewMemorySeenStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		seen = ingest.NewRedisSeenStore(redisClient.Client)
	}

	var source ingest.Source = ingest.NewStaticSource(nil)
	if cfg.DemoMode {
		source = ingest.NewStaticSource(ingest.DemoMessages())
	}

	pipeline := ingest.NewPipeline(source, detect.NewKeywordDetector(), workflow, seen, log,
		ingest.WithMetrics(m))

	handler := httptransport.New(workflow, pipeline, log)
	router := httptransport.NewRouter(handler, log, m, registry)
	srv := httpserver.New(cfg.Addr, router)

	// Background poller: one ingest pass per interval until shutdown.
	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				summary, err := pipeline.Run(ctx, 0)
				if err != nil {
					log.ErrorContext(ctx, "ingest poll failed", "error", err.Error())
					continue
				}
				if summary.EmailsProcessed > 0 {
					log.InfoContext(ctx, "ingest poll finished",
						"emails_processed", summary.EmailsProcessed,
						"requests_created", summary.RequestsCreated,
						"skipped", summary.Skipped,
					)
				}
			}
		}
	}()

	go func() {
		log.Info("starting accessgate", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
