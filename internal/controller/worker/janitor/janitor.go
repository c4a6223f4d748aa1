package janitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/repo"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
)

// Janitor periodically removes dedup records whose window has passed.
type Janitor struct {
	cleaner repo.ExpiredRecordsCleaner
	logger  logger.Interface

	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(cleaner repo.ExpiredRecordsCleaner, l logger.Interface, interval, timeout time.Duration) *Janitor {
	return &Janitor{
		cleaner:  cleaner,
		logger:   l,
		interval: interval,
		timeout:  timeout,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	if !j.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Janitor - Start - worker already started")
	}

	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.ctx.Done():
				return
			case <-ticker.C:
				j.cleanup()
			}
		}
	}()

	return nil
}

func (j *Janitor) cleanup() {
	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	deleted, err := j.cleaner.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error(err, "Janitor - cleanup - j.cleaner.DeleteExpired")

		return
	}

	if deleted > 0 {
		j.logger.Info("Janitor - removed %d expired dedup records", deleted)
	}
}

func (j *Janitor) Shutdown(ctx context.Context) error {
	if !j.started.Load() {
		return nil
	}

	if j.cancel != nil {
		j.cancel()
	}

	done := make(chan struct{})

	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Janitor - Shutdown: %w", ctx.Err())
	}
}
