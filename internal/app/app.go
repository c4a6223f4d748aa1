package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/analytics-bridge/config"
	kafkactrl "github.com/andreyxaxa/analytics-bridge/internal/controller/kafka"
	"github.com/andreyxaxa/analytics-bridge/internal/controller/restapi"
	"github.com/andreyxaxa/analytics-bridge/internal/controller/worker/janitor"
	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure/analytics"
	infrakafka "github.com/andreyxaxa/analytics-bridge/internal/infrastructure/kafka"
	"github.com/andreyxaxa/analytics-bridge/internal/repo"
	"github.com/andreyxaxa/analytics-bridge/internal/repo/persistent"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/dedup"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/merge"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/pipeline"
	"github.com/andreyxaxa/analytics-bridge/pkg/httpserver"
	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/consumer"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/postgres"
	"github.com/andreyxaxa/analytics-bridge/pkg/redisclient"
)

// Run starts the bridge and blocks until SIGINT/SIGTERM or an HTTP server failure.
func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)
	defer l.Sync()

	// Repository
	var (
		store         repo.IdempotencyStore
		janitorWorker *janitor.Janitor
	)

	switch cfg.Dedup.Backend {
	case config.DedupBackendPostgres:
		err := postgres.Migrate(cfg.PG.URL, persistent.Migrations, persistent.MigrationsDir)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - postgres.Migrate: %w", err))
		}

		pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
		}
		defer pg.Close()

		pgStore := persistent.NewPostgresIdempotencyStore(pg)
		store = pgStore

		// Redis expires keys natively, rows need sweeping.
		janitorWorker = janitor.New(pgStore, l, cfg.Dedup.CleanupInterval, cfg.KafkaController.ProcessTimeout)
	default:
		rc, err := redisclient.New(ctx, cfg.Redis.Host, cfg.Redis.Port,
			redisclient.Password(cfg.Redis.Password),
			redisclient.DB(cfg.Redis.DB),
		)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - redisclient.New: %w", err))
		}
		defer rc.Close()

		store = persistent.NewRedisIdempotencyStore(rc)
	}

	// Use-Case
	pipelineUseCase := pipeline.New(
		dedup.New(store, cfg.Dedup.TTL),
		merge.New(),
		analytics.New(cfg.Analytics.URL, l,
			analytics.Timeout(cfg.Analytics.Timeout),
			analytics.Attempts(cfg.Analytics.RetryAttempts),
			analytics.Backoff(cfg.Analytics.RetryMultiplier, cfg.Analytics.RetryUnit, cfg.Analytics.RetryMaxDelay),
		),
		l,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID,
		[]string{cfg.Kafka.CustomerTopic, cfg.Kafka.InventoryTopic},
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		pipelineUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.RedeliveryDelay,
		cfg.KafkaController.PartitionBuffer,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port))
	restapi.NewRouter(httpServer.App)

	// Start Components
	if janitorWorker != nil {
		err = janitorWorker.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - janitorWorker.Start: %w", err))
		}
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	l.Info("app - Run - consuming %v as group %s", kafkaConsumer.Topics(), cfg.Kafka.GroupID)

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}

	if janitorWorker != nil {
		jShutdownCtx, jShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
		defer jShutdownCancel()
		err = janitorWorker.Shutdown(jShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - janitorWorker.Shutdown: %w", err))
		}
	}
}
