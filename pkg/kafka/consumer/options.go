package consumer

import (
	"time"

	"github.com/segmentio/kafka-go"
)

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

// MaxWait bounds how long a fetch waits for new data before returning.
func MaxWait(wait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = wait
	}
}

// StartFromLatest makes a group without committed offsets start at the end of each partition.
func StartFromLatest() Option {
	return func(c *Consumer) {
		c.startOffset = kafka.LastOffset
	}
}
