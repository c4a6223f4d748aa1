package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/infrastructure"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const _defaultWorkerIdleTimeout = 5 * time.Minute

type partitionKey struct {
	topic     string
	partition int
}

// partitionWorker is the state of one partition goroutine. sent is owned by the
// fetch goroutine; done, lastDone and committed are written by the worker.
type partitionWorker struct {
	tasks chan kafka.Message
	sent  int64

	done      atomic.Int64
	lastDone  atomic.Int64
	committed atomic.Int64
}

func (w *partitionWorker) finish(now time.Time) {
	w.lastDone.Store(now.UnixNano())
	w.done.Add(1)
}

// idle reports whether the worker has settled everything it was handed and
// has been quiet for at least d.
func (w *partitionWorker) idle(now time.Time, d time.Duration) bool {
	return w.done.Load() == w.sent && now.Sub(time.Unix(0, w.lastDone.Load())) >= d
}

// KafkaController fetches from every assigned partition and hands each message to
// the worker of its topic/partition. A worker commits a message only after the
// pipeline reports a terminal outcome, and retries the same message until it does,
// so a partition's committed offset never skips an unresolved message.
type KafkaController struct {
	pipeline usecase.PipelineUseCase
	er       infrastructure.EventsReceiver
	logger   logger.Interface

	commitTimeout   time.Duration
	processTimeout  time.Duration
	redeliveryDelay time.Duration
	partitionBuffer int
	idleTimeout     time.Duration

	partitions map[partitionKey]*partitionWorker
	committed  map[partitionKey]int64
	lastPrune  time.Time
	workers    atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	p usecase.PipelineUseCase,
	er infrastructure.EventsReceiver,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	redeliveryDelay time.Duration,
	partitionBuffer int,
) *KafkaController {
	if partitionBuffer < 0 {
		partitionBuffer = 0
	}

	return &KafkaController{
		pipeline:        p,
		er:              er,
		logger:          l,
		commitTimeout:   commitTimeout,
		processTimeout:  processTimeout,
		redeliveryDelay: redeliveryDelay,
		partitionBuffer: partitionBuffer,
		idleTimeout:     _defaultWorkerIdleTimeout,
		partitions:      make(map[partitionKey]*partitionWorker),
		committed:       make(map[partitionKey]int64),
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.fetch()

	return nil
}

func (c *KafkaController) fetch() {
	defer c.wg.Done()
	defer func() {
		for _, w := range c.partitions {
			close(w.tasks)
		}
	}()

	for {
		event, err := c.er.ReadEvent(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if !errors.Is(err, context.Canceled) {
				c.logger.Error(err, "KafkaController - fetch - c.er.ReadEvent")
			}

			if !c.wait(c.redeliveryDelay) {
				return
			}

			continue
		}

		consumedTotal.WithLabelValues(event.Topic).Inc()

		c.prune(time.Now())

		w := c.partitionFor(event)

		select {
		case w.tasks <- event:
			w.sent++
		case <-c.ctx.Done():
			return
		}
	}
}

// partitionFor returns the worker of the event's partition, starting it on first
// use. Only the fetch goroutine touches the maps.
func (c *KafkaController) partitionFor(event kafka.Message) *partitionWorker {
	key := partitionKey{topic: event.Topic, partition: event.Partition}

	w, ok := c.partitions[key]
	if !ok {
		w = &partitionWorker{tasks: make(chan kafka.Message, c.partitionBuffer)}
		w.lastDone.Store(time.Now().UnixNano())

		committed, ok := c.committed[key]
		if !ok {
			committed = -1
		}
		w.committed.Store(committed)

		c.partitions[key] = w

		c.logger.Info("KafkaController - partitionFor - worker started for %s/%d", key.topic, key.partition)

		c.workers.Add(1)
		c.wg.Add(1)
		go c.worker(key, w)
	}

	return w
}

// prune stops workers of partitions that went quiet, such as ones revoked by a
// rebalance. A stopped worker had settled every message it was handed, and its
// committed offset carries over to a worker started later for the same partition.
func (c *KafkaController) prune(now time.Time) {
	if now.Sub(c.lastPrune) < c.idleTimeout {
		return
	}
	c.lastPrune = now

	for key, w := range c.partitions {
		if !w.idle(now, c.idleTimeout) {
			continue
		}

		c.committed[key] = w.committed.Load()
		close(w.tasks)
		delete(c.partitions, key)

		c.logger.Info("KafkaController - prune - worker stopped for idle %s/%d", key.topic, key.partition)
	}
}

func (c *KafkaController) worker(key partitionKey, w *partitionWorker) {
	defer c.wg.Done()
	defer c.workers.Add(-1)

	for event := range w.tasks {
		if c.ctx.Err() != nil {
			return
		}

		// After a rebalance the reader may hand out messages this partition already
		// committed. Messages buffered before a partition was revoked are still
		// driven and committed here under the reader's current generation; if
		// another member now owns the partition it may see them again and dedup
		// classifies them as Duplicate.
		if committed := w.committed.Load(); event.Offset <= committed {
			c.logger.Debug("KafkaController - worker - skip %s/%d offset %d, committed %d",
				key.topic, key.partition, event.Offset, committed)

			w.finish(time.Now())

			continue
		}

		for !c.handle(event) {
			redeliveredTotal.WithLabelValues(key.topic).Inc()

			if !c.wait(c.redeliveryDelay) {
				return
			}
		}

		w.committed.Store(event.Offset)
		w.finish(time.Now())
	}
}

// handle runs one message through the pipeline and commits it on a terminal outcome.
// It reports whether the offset was committed.
func (c *KafkaController) handle(event kafka.Message) (committed bool) {
	defer func() {
		if r := recover(); r != nil {
			failedTotal.WithLabelValues(reasonPanic).Inc()
			c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - handle - panic")

			committed = false
		}
	}()

	// In-flight work outlives the controller context so shutdown lets it settle.
	base := context.WithoutCancel(c.ctx)

	started := time.Now()

	processCtx, processCancel := context.WithTimeout(base, c.processTimeout)
	eventID, outcome, err := c.pipeline.Process(processCtx, event.Value)
	processCancel()

	processingDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		failedTotal.WithLabelValues(failureReason(err)).Inc()
		c.logger.Error(err, "KafkaController - handle - c.pipeline.Process - event %q %s/%d offset %d",
			eventID, event.Topic, event.Partition, event.Offset)

		return false
	}

	commitCtx, commitCancel := context.WithTimeout(base, c.commitTimeout)
	err = c.er.CommitEvent(commitCtx, event)
	commitCancel()
	if err != nil {
		failedTotal.WithLabelValues(reasonCommit).Inc()
		c.logger.Error(err, "KafkaController - handle - c.er.CommitEvent - event %q %s/%d offset %d",
			eventID, event.Topic, event.Partition, event.Offset)

		return false
	}

	processedTotal.WithLabelValues(string(outcome)).Inc()
	c.logger.Debug("KafkaController - handle - event %s %s, committed %s/%d offset %d",
		eventID, outcome, event.Topic, event.Partition, event.Offset)

	return true
}

// wait sleeps for d and reports false if the controller stopped meanwhile.
func (c *KafkaController) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan error, 1)

	go func() {
		c.wg.Wait()
		done <- c.er.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("KafkaController - Shutdown - c.er.Close: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
