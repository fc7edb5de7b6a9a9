// internal/workers/analysis/score-vulnerability/config.go
package scorevulnerability

import "time"

type Config struct {
	Timeout time.Duration
	// MinRadiusMeters and MaxRadiusMeters clamp the analysis radius derived
	// from the region's extent.
	MinRadiusMeters float64
	MaxRadiusMeters float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         120 * time.Second,
		MinRadiusMeters: 1000,
		MaxRadiusMeters: 20000,
	}
}
