package broker

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	return addr
}

func TestAwaitNoBrokers(t *testing.T) {
	err := Await(context.Background(), "Consumer", nil, 3, time.Millisecond)
	if !errors.Is(err, errNoBrokers) {
		t.Fatalf("err = %v, want errNoBrokers", err)
	}
}

func TestAwaitExhaustsAttempts(t *testing.T) {
	started := time.Now()

	err := Await(context.Background(), "Producer", []string{closedAddr(t)}, 3, 10*time.Millisecond)
	if err == nil {
		t.Fatal("Await succeeded against a closed port")
	}

	// two waits between three attempts
	if elapsed := time.Since(started); elapsed < 20*time.Millisecond {
		t.Errorf("elapsed = %s, want at least 20ms", elapsed)
	}
}

func TestAwaitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Await(ctx, "Consumer", []string{closedAddr(t)}, 1000, 5*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
