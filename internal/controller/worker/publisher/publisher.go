package publisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
)

// Publisher runs an ingest round right away and then every interval.
type Publisher struct {
	ingest usecase.IngestUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	interval     time.Duration
	roundTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	ingest usecase.IngestUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	interval time.Duration,
	roundTimeout time.Duration,
) *Publisher {
	return &Publisher{
		ingest:       ingest,
		es:           es,
		logger:       l,
		interval:     interval,
		roundTimeout: roundTimeout,
	}
}

func (p *Publisher) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Publisher - Start - worker already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			p.round()

			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

func (p *Publisher) round() {
	ctx, cancel := context.WithTimeout(p.ctx, p.roundTimeout)
	defer cancel()

	err := p.ingest.Produce(ctx)
	if err != nil {
		p.logger.Error(err, "Publisher - round - p.ingest.Produce")
	}
}

func (p *Publisher) Shutdown(ctx context.Context) error {
	if !p.started.Load() {
		return nil
	}

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan error, 1)

	go func() {
		p.wg.Wait()
		done <- p.es.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("Publisher - Shutdown - p.es.Close: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("Publisher - Shutdown: %w", ctx.Err())
	}
}
