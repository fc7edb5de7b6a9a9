// internal/workers/analysis/query-history/config.go
package queryhistory

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
	// ProximityDegrees is the half-width of the coordinate window used by
	// the SQL lookup. 0.5 degrees is roughly 55 km at the equator.
	ProximityDegrees float64
	DefaultLimit     int
	MaxLimit         int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          10 * time.Second,
		Index:            "disaster-eye-assessments",
		ProximityDegrees: 0.5,
		DefaultLimit:     10,
		MaxLimit:         100,
	}
}
