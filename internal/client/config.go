package client

import "time"

// Config holds configuration for a remote submission run.
type Config struct {
	BaseURL      string        // Base URL of the service
	BatchPrefix  string        // Prefix of generated batch IDs
	ChunkSize    int           // Rows per submitted batch
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between batch status polls
	Wait         bool          // Wait for every batch to complete
	MaxRetries   int           // Retries of a batch rejected with backpressure
}

// Stats holds run statistics.
type Stats struct {
	Batches    int
	Rows       int
	Accepted   int
	Duplicates int
	Rejected   int
	Completed  int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
