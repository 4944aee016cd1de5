// Package timeout defines centralized timeout and limit constants for the assistant.
package timeout

import "time"

// Assistant timeout and limit constants.
const (
	// EnhancerTimeout bounds a single call to the enhancement collaborator.
	EnhancerTimeout = 8 * time.Second

	// EnhancerAcquireTimeout bounds the wait for a free enhancer slot.
	EnhancerAcquireTimeout = 500 * time.Millisecond

	// ShutdownTimeout bounds graceful shutdown of background jobs.
	ShutdownTimeout = 5 * time.Second

	// MaxEnhancerHistory is how many recent messages are sent to the enhancer.
	MaxEnhancerHistory = 6

	// MaxInputLength caps the user text the engine processes, in runes.
	MaxInputLength = 1000

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
