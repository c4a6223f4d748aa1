package redisclient

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultDialTimeout  = 5 * time.Second
	_defaultOpTimeout    = 3 * time.Second
)

type RedisClient struct {
	connAttempts int
	connTimeout  time.Duration
	password     string
	db           int

	Client *redis.Client
}

func New(ctx context.Context, host, port string, opts ...Option) (*RedisClient, error) {
	rc := &RedisClient{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
	}

	for _, opt := range opts {
		opt(rc)
	}

	rc.Client = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(host, port),
		Password:     rc.password,
		DB:           rc.db,
		DialTimeout:  _defaultDialTimeout,
		ReadTimeout:  _defaultOpTimeout,
		WriteTimeout: _defaultOpTimeout,
	})

	var err error
	for rc.connAttempts > 0 {
		err = rc.Client.Ping(ctx).Err()
		if err == nil {
			break
		}

		log.Printf("Redis is trying to connect, attempts left: %d", rc.connAttempts)

		time.Sleep(rc.connTimeout)

		rc.connAttempts--
	}

	if err != nil {
		_ = rc.Client.Close()
		return nil, fmt.Errorf("RedisClient - New - connAttempts == 0: %w", err)
	}

	return rc, nil
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
