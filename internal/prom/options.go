// internal/prom/options.go
package prom

import (
	"time"

	"go.uber.org/zap"
)

// Config holds the flash programmer configuration.
type Config struct {
	// SectorSize is the erase granularity in bytes.
	SectorSize uint32

	// PollInterval is the delay between busy/WIP polls.
	PollInterval time.Duration

	// BusyTimeout bounds every single wait on the SPI engine or the flash WIP bit.
	BusyTimeout time.Duration

	// ProgressCallback is called between phases and pages (optional).
	ProgressCallback ProgressCallback

	Logger *zap.Logger
}

func defaultConfig() Config {
	return Config{
		SectorSize:   64 * 1024,
		PollInterval: 100 * time.Microsecond,
		BusyTimeout:  10 * time.Second,
		Logger:       zap.NewNop(),
	}
}

// Option is a functional option for configuring the Flash programmer.
type Option func(*Config)

// WithSectorSize overrides the erase sector size (power of two, >= PageSize).
func WithSectorSize(n uint32) Option {
	return func(c *Config) {
		if n >= PageSize && n&(n-1) == 0 {
			c.SectorSize = n
		}
	}
}

// WithPollInterval sets the busy poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.PollInterval = d
		}
	}
}

// WithBusyTimeout sets the per-wait timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.BusyTimeout = d
		}
	}
}

// WithProgressCallback sets a callback to track programming progress.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = cb
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Phase names reported through Progress.
const (
	PhaseErasing     = "erasing"
	PhaseProgramming = "programming"
	PhaseVerifying   = "verifying"
	PhaseComplete    = "complete"
)

// Progress describes programming progress.
type Progress struct {
	Phase      string
	Done       int // units completed in this phase (sectors or pages)
	Total      int
	Percentage float64
	Elapsed    time.Duration
}

// ProgressCallback must return quickly; it runs on the programming goroutine.
type ProgressCallback func(Progress)
