package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings for the service.
// Values are read once at startup; missing credentials are not rejected
// here — the affected endpoints simply fail downstream.
type Config struct {
	// Google OAuth client credentials
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`

	// RedirectURL is the OAuth callback this service registered with Google
	RedirectURL string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/auth/google/callback"`

	// SessionSecret signs the session cookie ID
	SessionSecret string `envconfig:"SESSION_SECRET" default:"dayglance-dev-secret"`

	// SessionTTL is how long an idle session survives before the sweep removes it
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// Gemini generation API settings
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	// CacheDir is where per-event annotation files are persisted
	CacheDir string `envconfig:"ANNOTATION_CACHE_DIR" default:"data/annotations"`

	// Port the HTTP server listens on
	Port int `envconfig:"PORT" default:"8080"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address derived from Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
