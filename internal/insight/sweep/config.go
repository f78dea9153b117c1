package sweep

import "time"

// Config controls the scheduled anomaly sweep.
type Config struct {
	Interval    time.Duration
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		Interval:    1 * time.Hour,
		Concurrency: 4,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	return c
}
