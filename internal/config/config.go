package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// AzureConfig holds connection settings for the Azure AI Content
// Understanding service.
type AzureConfig struct {
	Endpoint     string
	Key          string
	AnalyzerID   string
	APIVersion   string
	PollInterval time.Duration
	Timeout      time.Duration
}

// RenderConfig holds settings for the headless-Chrome PDF converter.
type RenderConfig struct {
	ChromePath   string
	NoSandbox    bool
	AutoDownload bool
	Timeout      time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated once at startup from environment variables and is
// read-only thereafter. Sensitive values are not hardcoded.
type AppConfig struct {
	Port           string
	APIKey         string
	MaxUploadBytes int
	Azure          AzureConfig
	Render         RenderConfig
}

var (
	ErrMissingAzureEndpoint = errors.New("AZURE_AI_ENDPOINT is required")
	ErrMissingAzureKey      = errors.New("AZURE_AI_KEY is required")
	ErrMissingAnalyzerID    = errors.New("ANALYZER_ID is required")
	ErrMissingAPIKey        = errors.New("API_KEY is required")
)

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:           getEnv("PORT", "8000"), // default only for non-sensitive value
		APIKey:         getEnv("API_KEY", ""),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_MB", 10) * 1024 * 1024,
		Azure: AzureConfig{
			Endpoint:     getEnv("AZURE_AI_ENDPOINT", ""),
			Key:          getEnv("AZURE_AI_KEY", ""),
			AnalyzerID:   getEnv("ANALYZER_ID", ""),
			APIVersion:   getEnv("AZURE_AI_API_VERSION", "2024-12-01-preview"),
			PollInterval: time.Duration(getEnvInt("AZURE_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
			Timeout:      time.Duration(getEnvInt("AZURE_TIMEOUT_SEC", 120)) * time.Second,
		},
		Render: RenderConfig{
			ChromePath:   getEnv("CHROME_PATH", ""),
			NoSandbox:    getEnvBool("CHROME_NO_SANDBOX", false),
			AutoDownload: getEnvBool("CHROME_AUTO_DOWNLOAD", false),
			Timeout:      time.Duration(getEnvInt("RENDER_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// Validate checks that all required settings are present.
// The process must not start when any of these are missing.
func (c *AppConfig) Validate() error {
	if c.Azure.Endpoint == "" {
		return ErrMissingAzureEndpoint
	}
	if c.Azure.Key == "" {
		return ErrMissingAzureKey
	}
	if c.Azure.AnalyzerID == "" {
		return ErrMissingAnalyzerID
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
