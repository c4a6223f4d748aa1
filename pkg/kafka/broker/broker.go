// Package broker checks that a Kafka cluster is reachable before clients are built.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Await dials the brokers in turn until one answers a metadata request.
// Every failed dial uses up one attempt; name only labels the log lines.
func Await(ctx context.Context, name string, brokers []string, attempts int, interval time.Duration) error {
	if len(brokers) == 0 {
		return fmt.Errorf("Kafka %s - Await: %w", name, errNoBrokers)
	}
	if attempts < 1 {
		attempts = 1
	}

	var err error

	for i := 0; i < attempts; i++ {
		addr := brokers[i%len(brokers)]

		err = Ping(ctx, addr)
		if err == nil {
			return nil
		}

		left := attempts - i - 1
		if left == 0 {
			break
		}

		log.Printf("Kafka %s is trying to connect to %s, attempts left: %d", name, addr, left)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("Kafka %s - Await: %w", name, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("Kafka %s - Await - attempts exhausted: %w", name, err)
}

// Ping opens a connection to addr and asks it for the broker list.
func Ping(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("kafka.DialContext: %w", err)
	}
	defer conn.Close()

	_, err = conn.Brokers()
	if err != nil {
		return fmt.Errorf("conn.Brokers: %w", err)
	}

	return nil
}

var errNoBrokers = errors.New("no brokers")
