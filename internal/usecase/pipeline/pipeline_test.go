package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/dedup"
	"github.com/andreyxaxa/analytics-bridge/internal/usecase/merge"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

const scenarioEvent = `{
	"eventId": "e1",
	"eventType": "ORDER_CREATED",
	"sourceSystem": "orders",
	"timestamp": "2024-01-01T00:00:00Z",
	"payload": {"orderId": "o-1"}
}`

type mapStore struct {
	keys   map[string]time.Duration
	exists int
	err    error
}

func (s *mapStore) Exists(_ context.Context, key string) (bool, error) {
	s.exists++
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.keys[key]
	return ok, nil
}

func (s *mapStore) MarkSeen(_ context.Context, key string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.keys[key] = ttl
	return nil
}

type countingMerger struct {
	calls int
	inner *merge.IdentityMerger
}

func (m *countingMerger) Merge(raw entity.RawEvent) (entity.EnrichedEvent, error) {
	m.calls++
	return m.inner.Merge(raw)
}

type fakeForwarder struct {
	calls int
	got   []entity.EnrichedEvent
	err   error
}

func (f *fakeForwarder) Forward(_ context.Context, event entity.EnrichedEvent) error {
	f.calls++
	f.got = append(f.got, event)
	return f.err
}

type fixture struct {
	store     *mapStore
	merger    *countingMerger
	forwarder *fakeForwarder
	uc        *PipelineUseCase
}

func newFixture() *fixture {
	f := &fixture{
		store:     &mapStore{keys: make(map[string]time.Duration)},
		merger:    &countingMerger{inner: merge.New()},
		forwarder: &fakeForwarder{},
	}
	f.uc = New(dedup.New(f.store, 7*24*time.Hour), f.merger, f.forwarder, logger.NewNop())
	return f
}

func TestProcess_ScenarioA_ForwardedOnce(t *testing.T) {
	f := newFixture()

	id, outcome, err := f.uc.Process(context.Background(), []byte(scenarioEvent))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if id != "e1" || outcome != entity.OutcomeForwarded {
		t.Fatalf("got (%s, %s) want (e1, forwarded)", id, outcome)
	}
	if f.forwarder.calls != 1 {
		t.Fatalf("forward calls=%d want=1", f.forwarder.calls)
	}
	if _, ok := f.store.keys["e1"]; !ok {
		t.Fatal("dedup key e1 must be set")
	}
	if got := f.forwarder.got[0]; got.EventType != "ORDER_CREATED" || got.SourceSystem != "orders" {
		t.Fatalf("unexpected forwarded event %+v", got)
	}
}

func TestProcess_ScenarioB_RedeliveryIsDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, _, err := f.uc.Process(ctx, []byte(scenarioEvent)); err != nil {
		t.Fatalf("first Process: %v", err)
	}

	_, outcome, err := f.uc.Process(ctx, []byte(scenarioEvent))
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if outcome != entity.OutcomeDuplicate {
		t.Fatalf("outcome=%s want=duplicate", outcome)
	}
	if f.merger.calls != 1 {
		t.Fatalf("merge calls=%d want=1", f.merger.calls)
	}
	if f.forwarder.calls != 1 {
		t.Fatalf("forward calls=%d want=1", f.forwarder.calls)
	}
}

func TestProcess_ScenarioC_DeliveryErrorLeavesMark(t *testing.T) {
	f := newFixture()
	f.forwarder.err = fmt.Errorf("status 503: %w", errs.ErrDelivery)
	ctx := context.Background()

	id, outcome, err := f.uc.Process(ctx, []byte(scenarioEvent))
	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}
	if id != "e1" || outcome != "" {
		t.Fatalf("got (%s, %q) want (e1, \"\")", id, outcome)
	}

	// The mark survives the failed forward, so a redelivery short-circuits.
	f.forwarder.err = nil
	_, outcome, err = f.uc.Process(ctx, []byte(scenarioEvent))
	if err != nil {
		t.Fatalf("redelivery Process: %v", err)
	}
	if outcome != entity.OutcomeDuplicate {
		t.Fatalf("redelivery outcome=%s want=duplicate", outcome)
	}
	if f.forwarder.calls != 1 {
		t.Fatalf("forward calls=%d want=1", f.forwarder.calls)
	}
}

func TestProcess_ScenarioD_MissingPayload(t *testing.T) {
	f := newFixture()

	value := []byte(`{"eventId":"e2","eventType":"ORDER_CREATED","sourceSystem":"orders","timestamp":"2024-01-01T00:00:00Z"}`)

	id, outcome, err := f.uc.Process(context.Background(), value)
	if !errors.Is(err, errs.ErrMalformedEvent) {
		t.Fatalf("err=%v want ErrMalformedEvent", err)
	}
	if id != "e2" || outcome != "" {
		t.Fatalf("got (%s, %q) want (e2, \"\")", id, outcome)
	}
	if f.forwarder.calls != 0 {
		t.Fatalf("forward calls=%d want=0", f.forwarder.calls)
	}
}

func TestProcess_UndecodableValue(t *testing.T) {
	f := newFixture()

	_, _, err := f.uc.Process(context.Background(), []byte(`{not json`))
	if !errors.Is(err, errs.ErrMalformedEvent) {
		t.Fatalf("err=%v want ErrMalformedEvent", err)
	}
	if f.store.exists != 0 {
		t.Fatalf("store consulted %d times for an undecodable value", f.store.exists)
	}
}

func TestProcess_MissingEventIDSkipsStore(t *testing.T) {
	f := newFixture()

	_, _, err := f.uc.Process(context.Background(), []byte(`{"eventType":"X","sourceSystem":"s","timestamp":"t","payload":{}}`))
	if !errors.Is(err, errs.ErrMalformedEvent) {
		t.Fatalf("err=%v want ErrMalformedEvent", err)
	}
	if f.store.exists != 0 {
		t.Fatalf("store consulted %d times without an event id", f.store.exists)
	}
}

func TestProcess_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.store.err = fmt.Errorf("connection refused: %w", errs.ErrStoreUnavailable)

	_, outcome, err := f.uc.Process(context.Background(), []byte(scenarioEvent))
	if !errors.Is(err, errs.ErrStoreUnavailable) {
		t.Fatalf("err=%v want ErrStoreUnavailable", err)
	}
	if outcome != "" {
		t.Fatalf("outcome=%s want none", outcome)
	}
	if f.merger.calls != 0 || f.forwarder.calls != 0 {
		t.Fatalf("merge=%d forward=%d want 0/0", f.merger.calls, f.forwarder.calls)
	}
}

func TestProcess_NumericTimestampIsForwarded(t *testing.T) {
	f := newFixture()

	value := []byte(`{"eventId":"e9","eventType":"ORDER_CREATED","sourceSystem":"orders","timestamp":1704067200.5,"payload":{"orderId":"o-9"}}`)

	id, outcome, err := f.uc.Process(context.Background(), value)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if id != "e9" || outcome != entity.OutcomeForwarded {
		t.Fatalf("got (%s, %s) want (e9, forwarded)", id, outcome)
	}
	if f.store.exists != 1 {
		t.Fatalf("store consulted %d times, want 1", f.store.exists)
	}
	if got := string(f.forwarder.got[0].Timestamp); got != "1704067200.5" {
		t.Fatalf("forwarded timestamp=%s want 1704067200.5", got)
	}
}

func TestProcess_DecodeErrorKeepsEventID(t *testing.T) {
	f := newFixture()

	value := []byte(`{"eventId":"e10","eventType":42,"sourceSystem":"orders","timestamp":"2024-01-01T00:00:00Z","payload":{}}`)

	id, _, err := f.uc.Process(context.Background(), value)
	if !errors.Is(err, errs.ErrMalformedEvent) {
		t.Fatalf("err=%v want ErrMalformedEvent", err)
	}
	if id != "e10" {
		t.Fatalf("id=%q want e10", id)
	}
}
