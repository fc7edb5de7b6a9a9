// internal/workers/analysis/notify-high-risk/config.go
package notifyhighrisk

import "time"

type Config struct {
	Enabled      bool
	MinRiskLevel string
	Recipients   []string
	EmailEnabled bool
	FromEmail    string
	TopicEnabled bool
	TopicARN     string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinRiskLevel: "High",
		Timeout:      15 * time.Second,
	}
}
