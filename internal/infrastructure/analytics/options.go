package analytics

import (
	"net/http"
	"time"
)

type Option func(*Forwarder)

// Timeout bounds a single delivery attempt.
func Timeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		f.timeout = timeout
	}
}

func Attempts(attempts int) Option {
	return func(f *Forwarder) {
		f.policy.Attempts = attempts
	}
}

func Backoff(multiplier float64, unit, maxDelay time.Duration) Option {
	return func(f *Forwarder) {
		f.policy.Multiplier = multiplier
		f.policy.Unit = unit
		f.policy.MaxDelay = maxDelay
	}
}

func HTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		f.client = client
	}
}
