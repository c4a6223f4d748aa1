package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/retry"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

const (
	_defaultTimeout      = 10 * time.Second
	_defaultAttempts     = 5
	_defaultMultiplier   = 2
	_defaultUnit         = time.Second
	_defaultMaxDelay     = time.Minute
	_maxErrorBodyPreview = 512
)

// StatusError is a response outside the 200-399 range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analytics responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("analytics responded with status %d: %s", e.StatusCode, e.Body)
}

// Forwarder posts enriched events to the analytics endpoint.
// Every attempt opens and closes its own connection.
type Forwarder struct {
	url     string
	timeout time.Duration
	policy  retry.Policy

	client *http.Client
	logger logger.Interface
}

func New(url string, l logger.Interface, opts ...Option) *Forwarder {
	f := &Forwarder{
		url:     url,
		timeout: _defaultTimeout,
		policy: retry.Policy{
			Attempts:   _defaultAttempts,
			Multiplier: _defaultMultiplier,
			Unit:       _defaultUnit,
			MaxDelay:   _defaultMaxDelay,
		},
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
		logger: l,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Forwarder) Forward(ctx context.Context, event entity.EnrichedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Forwarder - Forward - json.Marshal: %w", err)
	}

	policy := f.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.logger.Warn("Forwarder - event %s attempt %d/%d failed, retrying in %s: %s",
			event.EventID, attempt, policy.Attempts, delay, err)
	}

	err = policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return f.send(ctx, event.EventID, body, attempt)
	})
	if err != nil {
		forwardsTotal.WithLabelValues(resultFailure).Inc()

		return fmt.Errorf("Forwarder - Forward - event %s: %w: %w", event.EventID, errs.ErrDelivery, err)
	}

	forwardsTotal.WithLabelValues(resultSuccess).Inc()

	return nil
}

func (f *Forwarder) send(ctx context.Context, eventID string, body []byte, attempt int) error {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("Forwarder - send - http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		attemptsTotal.WithLabelValues(resultFailure).Inc()
		f.logger.Error(err, "Forwarder - send - event %s attempt %d", eventID, attempt)

		return fmt.Errorf("Forwarder - send - f.client.Do: %w", err)
	}
	defer resp.Body.Close()

	attemptDuration.Observe(time.Since(started).Seconds())

	if resp.StatusCode >= http.StatusBadRequest {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBodyPreview))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(preview)),
		}

		attemptsTotal.WithLabelValues(resultFailure).Inc()
		f.logger.Error(statusErr, "Forwarder - send - event %s attempt %d", eventID, attempt)

		return statusErr
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	attemptsTotal.WithLabelValues(resultSuccess).Inc()
	f.logger.Info("Sent event %s to analytics (attempt %d, status %d)", eventID, attempt, resp.StatusCode)

	return nil
}
