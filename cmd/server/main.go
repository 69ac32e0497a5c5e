package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	httpapi "engageflow/internal/http"
	"engageflow/internal/identity"
	jwttoken "engageflow/internal/jwt_token"
	"engageflow/internal/platform/config"
	"engageflow/internal/platform/httpserver"
	"engageflow/internal/platform/kafka"
	"engageflow/internal/platform/logger"
	platformmetrics "engageflow/internal/platform/metrics"
	"engageflow/internal/platform/postgres"
	redisclient "engageflow/internal/platform/redis"
	"engageflow/internal/platform/tracing"
	"engageflow/internal/procedure/feed"
	"engageflow/internal/procedure/handler"
	proceduremetrics "engageflow/internal/procedure/metrics"
	"engageflow/internal/procedure/service"
	"engageflow/internal/procedure/store"
	auditpublisher "engageflow/pkg/platform/audit/publisher"
	auditmemory "engageflow/pkg/platform/audit/store/memory"
	"engageflow/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	db     *sql.DB
	redis  *redisclient.Client
	kafka  *kgo.Client
	health map[string]httpapi.HealthCheck
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	tracing.Init()

	inf, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer inf.close()

	var procedures service.Store = store.NewInMemoryStore()
	var directory identity.Directory = identity.NewInMemoryDirectory()
	if inf.db != nil {
		procedures = store.NewPostgres(inf.db)
		directory = identity.NewPostgresDirectory(inf.db)
	}
	if inf.redis != nil {
		directory = identity.NewRedisCachedDirectory(directory, inf.redis.Client, identity.WithCacheLogger(log))
	}

	publisher, subscriber := buildFeed(cfg, inf, log)

	audit := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(),
		auditpublisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		auditpublisher.WithLogger(log),
	)
	defer audit.Close()

	registry := prometheus.NewRegistry()
	svc := service.New(procedures, identity.NewProvider(directory, identity.WithLogger(log)),
		service.WithLogger(log),
		service.WithAuditPublisher(audit),
		service.WithChangePublisher(publisher),
		service.WithMetrics(proceduremetrics.NewWithRegisterer(registry)),
	)

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)
	router := httpapi.NewRouter(httpapi.Dependencies{
		Procedures: handler.New(svc, subscriber, log),
		Validator:  jwttoken.NewJWTServiceAdapter(jwt),
		Metrics:    platformmetrics.NewWithRegisterer(registry),
		Gatherer:   registry,
		Health:     inf.health,
		Logger:     log,
	})

	srv := httpserver.New(cfg.Server, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting engageflow", "addr", cfg.Server.Addr, "feed_backends", cfg.Feed.Backends)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// connect opens every configured backing service. Unconfigured services stay nil and
// the server falls back to in-process implementations.
func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	inf := &infra{health: map[string]httpapi.HealthCheck{}}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		inf.db = db
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			inf.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database ready", "migrations_applied", applied)
		inf.health["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		inf.close()
		return nil, err
	}
	if rc != nil {
		inf.redis = rc
		inf.health["redis"] = rc.Health
	}

	kc, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		inf.close()
		return nil, err
	}
	if kc != nil {
		inf.kafka = kc
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka); err != nil {
			inf.close()
			return nil, err
		}
		inf.health["kafka"] = kc.Ping
	}
	return inf, nil
}

// buildFeed fans change events out to every configured backend. Server-sent event
// streams read from Redis when it is configured so every instance sees every change;
// otherwise they read from the in-process broker.
func buildFeed(cfg config.Config, inf *infra, log *slog.Logger) (feed.Publisher, feed.Subscriber) {
	var publishers []feed.Publisher
	var subscriber feed.Subscriber

	if cfg.HasFeedBackend(config.FeedRedis) && inf.redis != nil {
		rf := feed.NewRedis(inf.redis.Client, cfg.Redis.Channel, feed.WithRedisLogger(log))
		publishers = append(publishers, feed.NewGuarded(rf, circuit.New("feed:redis"), log))
		subscriber = rf
	}
	if cfg.HasFeedBackend(config.FeedKafka) && inf.kafka != nil {
		publishers = append(publishers, feed.NewGuarded(feed.NewKafka(inf.kafka, cfg.Kafka.Topic), circuit.New("feed:kafka"), log))
	}
	if subscriber == nil {
		broker := feed.NewBroker()
		publishers = append(publishers, broker)
		subscriber = broker
	}
	return feed.NewMulti(publishers...), subscriber
}
