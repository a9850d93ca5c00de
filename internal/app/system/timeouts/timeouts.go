// Package timeouts provides centralized timeout values for handler operations.
package timeouts

import "time"

const (
	// Ping is the timeout for health checks.
	Ping = 2 * time.Second
	// Short is the timeout for single-document reads and writes.
	Short = 5 * time.Second
	// Medium is the timeout for list queries and multi-step mutations.
	Medium = 10 * time.Second
	// Long is the timeout for aggregation and report queries.
	Long = 30 * time.Second
	// Batch is the timeout for background sweeps over whole collections.
	Batch = 60 * time.Second
)
