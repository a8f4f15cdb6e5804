package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. CHECKIN_LOG_LEVEL.
const Prefix = "CHECKIN"

// Config holds all application configuration.
type Config struct {
	API         APIConfig
	HTTP        HTTPConfig
	Logging     LogConfig
	Credentials CredentialsConfig
	CheckIn     CheckInConfig
}

// APIConfig holds the base URLs of the external APIs.
type APIConfig struct {
	AttendanceBaseURL string `envconfig:"ATTENDANCE_BASE_URL" default:"https://people.zoho.com/api/forms"`
	ChatBaseURL       string `envconfig:"CHAT_BASE_URL" default:"https://3.basecampapi.com"`
}

// HTTPConfig holds REST client behaviour shared by both APIs.
type HTTPConfig struct {
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"10s"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"0"`
	BreakerEnabled bool          `envconfig:"BREAKER_ENABLED" default:"true"`

	// BreakerFailures opens the circuit after this many consecutive transient
	// failures; 0 means MaxRetries+1
	BreakerFailures int           `envconfig:"BREAKER_FAILURES" default:"0"`
	BreakerTimeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEV" default:"false"`
}

// CredentialsConfig locates the credential file. A bare name is placed in
// the user config directory, see package paths.
type CredentialsConfig struct {
	File string `envconfig:"FILE" default:"checkin-credentials.toml"`
}

// CheckInConfig holds check-in workflow settings.
type CheckInConfig struct {
	Message string `envconfig:"MESSAGE" default:"Good Morning"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			AttendanceBaseURL: "https://people.zoho.com/api/forms",
			ChatBaseURL:       "https://3.basecampapi.com",
		},
		HTTP: HTTPConfig{
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			RetryDelay:      time.Second,
			RateLimitRPS:    0,
			BreakerEnabled:  true,
			BreakerFailures: 0,
			BreakerTimeout:  30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Credentials: CredentialsConfig{
			File: "checkin-credentials.toml",
		},
		CheckIn: CheckInConfig{
			Message: "Good Morning",
		},
	}
}

// Validate rejects values the REST client cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.API.AttendanceBaseURL == "":
		return fmt.Errorf("invalid config: attendance base URL is empty")
	case c.API.ChatBaseURL == "":
		return fmt.Errorf("invalid config: chat base URL is empty")
	case c.HTTP.Timeout <= 0:
		return fmt.Errorf("invalid config: HTTP timeout must be positive, got %s", c.HTTP.Timeout)
	case c.HTTP.MaxRetries < 0:
		return fmt.Errorf("invalid config: max retries must not be negative, got %d", c.HTTP.MaxRetries)
	case c.HTTP.RetryDelay < 0:
		return fmt.Errorf("invalid config: retry delay must not be negative, got %s", c.HTTP.RetryDelay)
	case c.HTTP.BreakerFailures < 0:
		return fmt.Errorf("invalid config: breaker failures must not be negative, got %d", c.HTTP.BreakerFailures)
	case c.HTTP.BreakerEnabled && c.HTTP.BreakerTimeout <= 0:
		return fmt.Errorf("invalid config: breaker timeout must be positive, got %s", c.HTTP.BreakerTimeout)
	}
	return nil
}
