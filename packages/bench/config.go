// Package bench repeats one relay request under controlled concurrency and
// pacing and summarizes latency and outcome distribution.
package bench

import (
	"fmt"
)

// Config holds the settings for one bench run
type Config struct {
	Count       int     // total number of calls
	Concurrency int     // max calls in flight
	Rate        float64 // calls per second, 0 for unpaced
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Count:       10,
		Concurrency: 1,
		Rate:        0,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %g", c.Rate)
	}
	return nil
}
