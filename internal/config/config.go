package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DefaultHost is the public GitHub API host.
const DefaultHost = "api.github.com"

// DefaultTimeout bounds every single API request.
const DefaultTimeout = 5 * time.Second

// AuthMode is the way requests are authenticated.
type AuthMode string

const (
	AuthToken             AuthMode = "token"
	AuthClientCredentials AuthMode = "client-credentials"
	AuthBasic             AuthMode = "basic"
	AuthNone              AuthMode = "none"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	Host    string
	Timeout time.Duration

	// Authentication, first match wins: token, OAuth app, username/password.
	Token        string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	timeout := DefaultTimeout
	if raw := getEnv("GITHUB_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, &ConfigError{Field: "GITHUB_TIMEOUT", Message: "must be a duration such as 5s"}
		}
		timeout = d
	}

	return &Config{
		Host:         getEnv("GITHUB_HOST", DefaultHost),
		Timeout:      timeout,
		Token:        getEnv("GITHUB_OAUTH_TOKEN", getEnv("GITHUB_TOKEN", "")),
		ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		Username:     getEnv("GITHUB_USERNAME", ""),
		Password:     getEnv("GITHUB_PASSWORD", ""),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// AuthMode picks the authentication to use.
func (c *Config) AuthMode() AuthMode {
	switch {
	case c.Token != "":
		return AuthToken
	case c.ClientID != "" && c.ClientSecret != "":
		return AuthClientCredentials
	case c.Username != "" && c.Password != "":
		return AuthBasic
	}
	return AuthNone
}

// BasicCredentials returns the user and password sent with basic
// authentication, if any.
func (c *Config) BasicCredentials() (user, password string) {
	switch c.AuthMode() {
	case AuthClientCredentials:
		return c.ClientID, c.ClientSecret
	case AuthBasic:
		return c.Username, c.Password
	}
	return "", ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "GITHUB_HOST", Message: "must not be empty"}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "GITHUB_TIMEOUT", Message: "must be positive"}
	}
	if c.Token == "" {
		if (c.ClientID == "") != (c.ClientSecret == "") {
			return &ConfigError{Field: "GITHUB_CLIENT_SECRET", Message: "GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together"}
		}
		if (c.Username == "") != (c.Password == "") {
			return &ConfigError{Field: "GITHUB_PASSWORD", Message: "GITHUB_USERNAME and GITHUB_PASSWORD must be set together"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
