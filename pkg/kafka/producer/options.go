package producer

import "time"

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

func WriteTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.writeTimeout = timeout
	}
}

// MaxAttempts is the number of write attempts kafka-go makes per batch.
func MaxAttempts(attempts int) Option {
	return func(p *Producer) {
		p.maxAttempts = attempts
	}
}

// BatchTimeout caps how long the writer waits to fill a batch before flushing it.
func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}
