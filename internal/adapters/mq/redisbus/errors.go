package redisbus

import "errors"

// Sentinel errors for the Redis transport.
var (
	ErrBreakerOpen    = errors.New("redis publisher circuit open")
	ErrInvalidMessage = errors.New("invalid message payload")
	ErrNoHandler      = errors.New("subscriber has no handler")
)
