// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	LLM           LLMConfig               `mapstructure:"llm"`
	Geocoding     GeocodingConfig         `mapstructure:"geocoding"`
	EarthEngine   EarthEngineConfig       `mapstructure:"earth_engine"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Alerts        AlertConfig             `mapstructure:"alerts"`
	Defaults      DefaultsConfig          `mapstructure:"defaults"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	Host             string   `mapstructure:"host"`
	Port             int      `mapstructure:"port"`
	CORSOrigins      []string `mapstructure:"cors_origins"`
	ReadTimeout      int      `mapstructure:"read_timeout"`    // milliseconds
	WriteTimeout     int      `mapstructure:"write_timeout"`   // milliseconds
	RequestTimeout   int      `mapstructure:"request_timeout"` // milliseconds, per-request budget
	ValidatePayloads bool     `mapstructure:"validate_payloads"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
	Index      string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds, default cache entry lifetime
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// LLMConfig holds settings for the conversational completion providers.
// Provider selects the active backend; both blocks can be configured and the
// unused one is ignored.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // "groq" or "anthropic"

	Groq struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		Temperature float64 `mapstructure:"temperature"`
		MaxTokens   int     `mapstructure:"max_tokens"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"groq"`

	Anthropic struct {
		APIKey    string `mapstructure:"api_key"`
		Model     string `mapstructure:"model"`
		MaxTokens int    `mapstructure:"max_tokens"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"anthropic"`
}

// GeocodingConfig holds settings for the forward geocoder.
type GeocodingConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	UserAgent     string `mapstructure:"user_agent"`
	CountrySuffix string `mapstructure:"country_suffix"`
	Timeout       int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL      int    `mapstructure:"cache_ttl"` // seconds
}

// EarthEngineConfig holds settings for the geospatial computation platform.
type EarthEngineConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	BaseURL         string `mapstructure:"base_url"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TileURLTemplate string `mapstructure:"tile_url_template"`
	Timeout         int    `mapstructure:"timeout"`       // milliseconds
	BufferMeters    int    `mapstructure:"buffer_meters"` // point buffer for flood analysis
	ScaleMeters     int    `mapstructure:"scale_meters"`  // reduceRegion sampling scale
}

// IntegrationConfig holds settings for AWS and other external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// AlertConfig holds settings for the notify-high-risk worker.
type AlertConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	MinRiskLevel string   `mapstructure:"min_risk_level"` // alerts fire at this level and above
	Recipients   []string `mapstructure:"recipients"`
}

// DefaultsConfig holds the fallback map view used when a request carries no location.
type DefaultsConfig struct {
	Lat  float64 `mapstructure:"lat"`
	Lng  float64 `mapstructure:"lng"`
	Zoom int     `mapstructure:"zoom"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds settings for metrics and tracing export.
type ObservabilityConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}
