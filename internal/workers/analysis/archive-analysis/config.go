// internal/workers/analysis/archive-analysis/config.go
package archiveanalysis

import "time"

// SearchIndex receives every archived assessment for geo/text search.
const SearchIndex = "disaster-eye-assessments"

type Config struct {
	Timeout  time.Duration
	Index    string
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		Index:    SearchIndex,
		CacheTTL: 30 * time.Minute,
	}
}
