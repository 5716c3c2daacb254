// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/englishassessment/backend/internal/evaluation"
	"github.com/englishassessment/backend/internal/scoring"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Speech   SpeechConfig
	Text     TextConfig
	Scoring  ScoringConfig
	Attempts scoring.AttemptPolicy
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
	File  string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	Domain        string
	Audience      string
	MetadataClaim string
	JWKSURL       string
	Issuer        string
	UserinfoURL   string
}

// SpeechConfig holds pronunciation evaluator settings.
// SubmissionTimeout bounds a whole multi-block speaking submission.
type SpeechConfig struct {
	URL               string
	APIKey            string
	Dialect           string
	Timeout           time.Duration
	SubmissionTimeout time.Duration
}

// TextConfig holds text evaluator settings
type TextConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ScoringConfig holds the overall score policy
type ScoringConfig struct {
	Policy  string
	Weights scoring.Weights
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = required("DB_HOST"); err != nil {
		return nil, err
	}
	port, err := required("DB_PORT")
	if err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.Database.User, err = required("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = required("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = required("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = strconv.Atoi(getEnv("SERVER_PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	// Logging configuration
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = os.Getenv("LOG_FILE")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	// Identity provider configuration
	cfg.Auth = AuthConfig{
		Domain:        os.Getenv("AUTH0_DOMAIN"),
		Audience:      os.Getenv("AUTH0_AUDIENCE"),
		MetadataClaim: os.Getenv("AUTH_METADATA_CLAIM"),
		JWKSURL:       os.Getenv("AUTH_JWKS_URL"),
		Issuer:        os.Getenv("AUTH_ISSUER"),
		UserinfoURL:   os.Getenv("AUTH_USERINFO_URL"),
	}
	if cfg.Auth.Domain == "" && cfg.Auth.Issuer == "" {
		return nil, fmt.Errorf("AUTH0_DOMAIN or AUTH_ISSUER is required")
	}
	if cfg.Auth.Audience == "" {
		return nil, fmt.Errorf("AUTH0_AUDIENCE is required")
	}

	// Evaluator configuration
	cfg.Speech = SpeechConfig{
		URL:     getEnv("SPEECHACE_URL", "https://api.speechace.co/api/scoring/text/v9/json"),
		APIKey:  os.Getenv("SPEECHACE_KEY"),
		Dialect: getEnv("SPEECHACE_DIALECT", "en-us"),
	}
	if cfg.Speech.Timeout, err = duration("SPEECHACE_TIMEOUT", 50*time.Second); err != nil {
		return nil, err
	}
	if cfg.Speech.SubmissionTimeout, err = duration("SPEECHACE_SUBMISSION_TIMEOUT", evaluation.DefaultSpeakingTestDeadline); err != nil {
		return nil, err
	}
	cfg.Text = TextConfig{
		BaseURL: getEnv("COHERE_BASE_URL", "https://api.cohere.com"),
		APIKey:  os.Getenv("COHERE_API_KEY"),
		Model:   getEnv("COHERE_MODEL", "command-a-03-2025"),
	}
	if cfg.Text.Timeout, err = duration("COHERE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	// Scoring configuration
	cfg.Scoring.Policy = getEnv("SCORING_POLICY", scoring.PolicyRequireAll)
	cfg.Scoring.Weights = scoring.CanonicalWeights
	if raw := os.Getenv("SCORING_WEIGHTS"); raw != "" {
		if cfg.Scoring.Weights, err = scoring.ParseWeights(raw); err != nil {
			return nil, fmt.Errorf("invalid SCORING_WEIGHTS: %w", err)
		}
	}
	if _, err := scoring.NewPolicy(cfg.Scoring.Policy, cfg.Scoring.Weights); err != nil {
		return nil, fmt.Errorf("invalid SCORING_POLICY: %w", err)
	}

	// Attempt configuration
	cfg.Attempts = scoring.DefaultAttemptPolicy()
	if raw := os.Getenv("ATTEMPTS_MAX"); raw != "" {
		if cfg.Attempts.MaxAttempts, err = strconv.Atoi(raw); err != nil || cfg.Attempts.MaxAttempts < 1 {
			return nil, fmt.Errorf("invalid ATTEMPTS_MAX: %q", raw)
		}
	}
	if cfg.Attempts.LockCheckDuration, err = duration("LOCK_CHECK_DURATION", scoring.DefaultLockCheckDuration); err != nil {
		return nil, err
	}
	if cfg.Attempts.LockDisplayDuration, err = duration("LOCK_DISPLAY_DURATION", scoring.DefaultLockDisplayDuration); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return c.Database.DSN()
}

// DSN returns the MySQL connection string for these settings
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}

func required(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
