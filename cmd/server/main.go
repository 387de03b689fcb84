package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reentry/internal/audit"
	ghandler "reentry/internal/guidance/handler"
	gservice "reentry/internal/guidance/service"
	gstore "reentry/internal/guidance/store"
	gmemory "reentry/internal/guidance/store/memory"
	gpostgres "reentry/internal/guidance/store/postgres"
	"reentry/internal/notify"
	phandler "reentry/internal/participant/handler"
	pservice "reentry/internal/participant/service"
	pstore "reentry/internal/participant/store"
	pmemory "reentry/internal/participant/store/memory"
	ppostgres "reentry/internal/participant/store/postgres"
	predis "reentry/internal/participant/store/redis"
	"reentry/internal/platform/config"
	"reentry/internal/platform/httpserver"
	"reentry/internal/platform/logger"
	"reentry/internal/platform/metrics"
	platformredis "reentry/internal/platform/redis"
	"reentry/internal/platform/token"
	"reentry/internal/sweep"
)

var errMissingRedisURL = errors.New("REENTRY_STORE=redis requires REDIS_URL")

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	participants, cleanup, err := buildParticipantStore(ctx, cfg)
	if err != nil {
		log.Error("participant store init failed", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	guidanceStore, gcleanup, err := buildGuidanceStore(ctx, cfg)
	if err != nil {
		log.Error("guidance store init failed", "error", err)
		os.Exit(1)
	}
	defer gcleanup()

	auditStore, acleanup, err := buildAuditStore(ctx, cfg)
	if err != nil {
		log.Error("audit store init failed", "brokers", cfg.Kafka.Brokers, "error", err)
		os.Exit(1)
	}
	defer acleanup()

	auditPublisher := audit.NewPublisher(auditStore)
	guidanceSvc := gservice.New(guidanceStore,
		gservice.WithLogger(log),
		gservice.WithAuditPublisher(auditPublisher),
	)
	notifier := notify.NewLogNotifier(log)
	participantSvc := pservice.New(participants,
		pservice.WithLogger(log),
		pservice.WithGuidance(guidanceSvc),
		pservice.WithAuditPublisher(auditPublisher),
		pservice.WithMetrics(m),
		pservice.WithNotifier(notifier),
	)

	validator := token.NewJWTValidator([]byte(cfg.Server.JWTSigningKey))

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	phandler.New(participantSvc, log, m, validator).Register(router)
	ghandler.New(guidanceSvc, log, validator).Register(router)

	sweeper := sweep.New(participants, notifier,
		sweep.WithLogger(log),
		sweep.WithMetrics(m),
		sweep.WithInterval(cfg.Sweep.Interval),
	)
	go func() {
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			log.Error("sweep loop stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting reentry service", "addr", cfg.Server.Addr, "backend", cfg.Backend)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func buildParticipantStore(ctx context.Context, cfg config.Config) (pstore.Store, func(), error) {
	switch cfg.Backend {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		st := ppostgres.New(db, cfg.Postgres.URL)
		if err := st.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, func() { db.Close() }, nil
	case config.StoreRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errMissingRedisURL
		}
		return predis.New(client.Client), func() { client.Close() }, nil
	default:
		return pmemory.NewInMemory(), func() {}, nil
	}
}

func buildGuidanceStore(ctx context.Context, cfg config.Config) (gstore.Store, func(), error) {
	if cfg.Backend != config.StorePostgres {
		return gmemory.New(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	st := gpostgres.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, func() { pool.Close() }, nil
}

// buildAuditStore returns the audit sink. With brokers configured, events go
// through a buffered channel so Kafka produce latency stays off the request
// path; a worker drains the buffer into the Kafka store.
func buildAuditStore(ctx context.Context, cfg config.Config) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewMemoryStore(), func() {}, nil
	}
	st, err := audit.NewKafkaStore(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	buffer := audit.NewBuffer(st, 256)
	worker := audit.NewWorker(st, buffer.Inbox())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(context.WithoutCancel(ctx))
	}()
	return buffer, func() {
		buffer.Close()
		<-done
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.Close(flushCtx)
	}, nil
}
