package redisclient

import "time"

type Option func(*RedisClient)

func ConnAttempts(attempts int) Option {
	return func(r *RedisClient) {
		r.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(r *RedisClient) {
		r.connTimeout = timeout
	}
}

func Password(password string) Option {
	return func(r *RedisClient) {
		r.password = password
	}
}

func DB(db int) Option {
	return func(r *RedisClient) {
		r.db = db
	}
}
