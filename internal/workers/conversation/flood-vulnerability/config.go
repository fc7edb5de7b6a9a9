// internal/workers/conversation/flood-vulnerability/config.go
package floodvulnerability

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
