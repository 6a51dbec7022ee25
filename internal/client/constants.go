package client

import "time"

// Defaults applied by Run to zero Config fields.
const (
	DefaultChunkSize    = 1000
	DefaultWorkers      = 4
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxRetries   = 5
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	retryBackoff            = 200 * time.Millisecond
)
