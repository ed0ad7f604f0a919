// internal/workers/matching/check-scribe-availability/config.go
package checkscribeavailability

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
