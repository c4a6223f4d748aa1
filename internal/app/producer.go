package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/analytics-bridge/config"
	"github.com/andreyxaxa/analytics-bridge/internal/controller/worker/publisher"
	infrakafka "github.com/andreyxaxa/analytics-bridge/internal/infrastructure/kafka"
	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure/source"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/ingest"
	"github.com/andreyxaxa/analytics-bridge/pkg/kafka/producer"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
)

// RunProducer publishes CRM customers and inventory products until SIGINT/SIGTERM.
func RunProducer(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)
	defer l.Sync()

	// Sources
	customersURL, err := url.JoinPath(cfg.Producer.CRMBaseURL, "customers")
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProducer - url.JoinPath: %w", err))
	}
	productsURL, err := url.JoinPath(cfg.Producer.InventoryBaseURL, "products")
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProducer - url.JoinPath: %w", err))
	}

	sourceOpts := []source.Option{
		source.Attempts(cfg.Producer.FetchAttempts),
		source.Delay(cfg.Producer.FetchDelay),
		source.Timeout(cfg.Producer.FetchTimeout),
	}

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProducer - producer.New: %w", err))
	}
	eventProducer := infrakafka.NewEventProducer(kafkaProducer)

	// Use-Case
	ingestUseCase := ingest.New(eventProducer, l,
		ingest.Stream{
			Fetcher:      source.New(ingest.SourceSystemCRM, customersURL, l, sourceOpts...),
			Topic:        cfg.Kafka.CustomerTopic,
			EventType:    ingest.EventTypeCustomerUpdate,
			SourceSystem: ingest.SourceSystemCRM,
		},
		ingest.Stream{
			Fetcher:      source.New(ingest.SourceSystemInventory, productsURL, l, sourceOpts...),
			Topic:        cfg.Kafka.InventoryTopic,
			EventType:    ingest.EventTypeInventoryUpdate,
			SourceSystem: ingest.SourceSystemInventory,
		},
	)

	// Publisher Worker
	publisherWorker := publisher.New(ingestUseCase, eventProducer, l, cfg.Producer.Interval, cfg.Producer.Interval)

	err = publisherWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunProducer - publisherWorker.Start: %w", err))
	}

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	s := <-interrupt
	l.Info("app - RunProducer - signal: %s", s.String())

	// Shutdown
	pShutdownCtx, pShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer pShutdownCancel()
	err = publisherWorker.Shutdown(pShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunProducer - publisherWorker.Shutdown: %w", err))
	}
}
