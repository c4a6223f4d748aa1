package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

func testEvent() entity.EnrichedEvent {
	return entity.EnrichedEvent{
		EventID:      "e1",
		EventType:    "ORDER_CREATED",
		SourceSystem: "orders",
		Timestamp:    json.RawMessage(`"2024-01-01T00:00:00Z"`),
		Payload:      json.RawMessage(`{"orderId":"o-1"}`),
	}
}

func newTestForwarder(url string, unit time.Duration) *Forwarder {
	return New(url, logger.NewNop(),
		Timeout(time.Second),
		Attempts(5),
		Backoff(2, unit, 0),
	)
}

func TestForward_Success(t *testing.T) {
	var calls int32
	var got entity.EnrichedEvent

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		if r.Method != http.MethodPost {
			t.Errorf("method=%s want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestForwarder(srv.URL, time.Millisecond).Forward(context.Background(), testEvent())
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
	if got.EventID != "e1" || got.EventType != "ORDER_CREATED" || string(got.Payload) != `{"orderId":"o-1"}` {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestForward_RedirectRangeIsSuccess(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	if err := newTestForwarder(srv.URL, time.Millisecond).Forward(context.Background(), testEvent()); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}

func TestForward_ExhaustsAttemptsOn503(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	unit := 2 * time.Millisecond
	started := time.Now()

	err := newTestForwarder(srv.URL, unit).Forward(context.Background(), testEvent())

	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err=%v does not carry the last attempt's StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=503", statusErr.StatusCode)
	}
	if calls != 5 {
		t.Fatalf("calls=%d want=5", calls)
	}

	// 2u + 4u + 8u + 16u between the five attempts
	if elapsed, want := time.Since(started), 30*unit; elapsed < want {
		t.Fatalf("elapsed=%v, backoff should take at least %v", elapsed, want)
	}
}

func TestForward_ClientErrorIsRetried(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestForwarder(srv.URL, time.Microsecond).Forward(context.Background(), testEvent())
	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}
	if calls != 5 {
		t.Fatalf("calls=%d want=5", calls)
	}
}

func TestForward_RecoversAfterFailures(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := newTestForwarder(srv.URL, time.Microsecond).Forward(context.Background(), testEvent()); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want=3", calls)
	}
}

func TestForward_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newTestForwarder(url, time.Microsecond).Forward(context.Background(), testEvent())
	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}
}

func TestForward_AttemptTimeout(t *testing.T) {
	var calls int32
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := New(srv.URL, logger.NewNop(),
		Timeout(20*time.Millisecond),
		Attempts(2),
		Backoff(1, time.Microsecond, 0),
	)

	err := f.Forward(context.Background(), testEvent())
	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want the attempt deadline to surface", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d want=2", calls)
	}
}

func TestForward_DeadlineDuringBackoffKeepsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestForwarder(srv.URL, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.Forward(ctx, testEvent())
	if !errors.Is(err, errs.ErrDelivery) {
		t.Fatalf("err=%v want ErrDelivery", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want the processing deadline", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err=%v want the last 503 to surface", err)
	}
}
