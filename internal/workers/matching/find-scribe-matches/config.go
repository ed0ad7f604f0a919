// internal/workers/matching/find-scribe-matches/config.go
package findscribematches

import "time"

type Config struct {
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxResults: 100,
	}
}
