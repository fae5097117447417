// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	// Twilio credentials for the telephony platform.
	TwilioAccountSID string
	TwilioAuthToken  string

	// Gemini API key for the Bengali voice LLM.
	GeminiAPIKey string

	// N8NWebhookURL is the automation endpoint that receives recognized
	// utterances and may return a reply to splice into the conversation.
	N8NWebhookURL string

	Port        string
	Environment string

	// Railway deployment metadata. PublicDomain is the externally
	// reachable hostname used to build the media stream URL.
	RailwayProjectID string
	RailwayServiceID string
	PublicDomain     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		N8NWebhookURL:    getEnv("N8N_WEBHOOK_URL", ""),
		Port:             getEnv("PORT", "8000"),
		Environment:      getEnv("RAILWAY_ENVIRONMENT", "production"),
		RailwayProjectID: getEnv("RAILWAY_PROJECT_ID", ""),
		RailwayServiceID: getEnv("RAILWAY_SERVICE_ID", ""),
		PublicDomain:     getEnv("RAILWAY_PUBLIC_DOMAIN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set. Missing
// credentials fail startup rather than defaulting to empty strings.
func (c *Config) Validate() error {
	if c.TwilioAccountSID == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID cannot be empty")
	}
	if c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN cannot be empty")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY cannot be empty")
	}
	if c.N8NWebhookURL == "" {
		return fmt.Errorf("N8N_WEBHOOK_URL cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	if c.PublicDomain == "" {
		return fmt.Errorf("RAILWAY_PUBLIC_DOMAIN cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running outside the production environment.
func (c *Config) IsDevelopment() bool {
	return !strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
