package source

import (
	"net/http"
	"time"
)

type Option func(*Client)

// Timeout bounds a single request.
func Timeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func Attempts(attempts int) Option {
	return func(c *Client) {
		c.policy.Attempts = attempts
	}
}

// Delay sets the wait after the first failed attempt; it doubles after each further one.
func Delay(delay time.Duration) Option {
	return func(c *Client) {
		c.policy.Unit = delay
	}
}

func HTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}
