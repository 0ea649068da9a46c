// Package simulator drives concurrent assessment sessions against a
// running engine and verifies the adaptive invariants hold end to end.
package simulator

import (
	"runtime"
	"time"
)

// Config holds the simulation parameters.
type Config struct {
	// BaseURL of the engine under test.
	BaseURL string

	// SubjectID to run sessions against.
	SubjectID int64

	// Sessions is the number of sessions to simulate.
	Sessions int

	// MaxItems per session.
	MaxItems int

	// Workers is the number of concurrent session runners.
	Workers int

	// Timeout for individual HTTP requests.
	Timeout time.Duration

	// Verbose enables per-step logging.
	Verbose bool
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:9080",
		SubjectID: 1,
		Sessions:  100,
		MaxItems:  10,
		Workers:   runtime.NumCPU() * 2,
		Timeout:   30 * time.Second,
	}
}
