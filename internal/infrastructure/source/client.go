// Package source reads the current records of an upstream system over HTTP.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andreyxaxa/analytics-bridge/pkg/logger"
	"github.com/andreyxaxa/analytics-bridge/pkg/retry"
)

const (
	_defaultTimeout      = 10 * time.Second
	_defaultAttempts     = 3
	_defaultDelay        = 2 * time.Second
	_maxErrorBodyPreview = 512
)

// Client fetches a JSON array of records from url.
type Client struct {
	name    string
	url     string
	timeout time.Duration
	policy  retry.Policy

	client *http.Client
	logger logger.Interface
}

func New(name, url string, l logger.Interface, opts ...Option) *Client {
	c := &Client{
		name:    name,
		url:     url,
		timeout: _defaultTimeout,
		policy: retry.Policy{
			Attempts:   _defaultAttempts,
			Multiplier: 1,
			Unit:       _defaultDelay,
		},
		client: http.DefaultClient,
		logger: l,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Source %s - fetch attempt %d/%d failed, retrying in %s: %s",
			c.name, attempt, policy.Attempts, delay, err)
	}

	var records []json.RawMessage

	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		var err error
		records, err = c.fetch(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Source %s - Fetch: %w", c.name, err)
	}

	c.logger.Info("Fetched %d records from %s", len(records), c.name)

	return records, nil
}

func (c *Client) fetch(ctx context.Context) ([]json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("Client - fetch - http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Client - fetch - c.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBodyPreview))
		return nil, fmt.Errorf("Client - fetch - %s responded with status %d: %s",
			c.url, resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	var records []json.RawMessage
	err = json.NewDecoder(resp.Body).Decode(&records)
	if err != nil {
		return nil, fmt.Errorf("Client - fetch - json.Decode: %w", err)
	}

	return records, nil
}
