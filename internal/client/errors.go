package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for API calls.
var (
	ErrBackpressure = errors.New("server rejected batch with backpressure")
	ErrNotFound     = errors.New("not found")
	ErrUnhealthy    = errors.New("service unhealthy")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
