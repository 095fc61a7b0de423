// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBPath          string
	PageAccessToken string
	VerifyToken     string
	ResetKey        string
	PublicURL       string
	ManifestPath    string
	MediaDir        string
	AllowedOrigin   string
	PrivilegedIDs   []string

	OnboardingCooldown time.Duration
	FollowupCooldown   time.Duration
	ChunkSize          int
	InterChunkDelay    time.Duration
	InterItemDelay     time.Duration
}

// maxChunkSize is the platform's element limit for one batched send.
const maxChunkSize = 10

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/pagereply.db"),
		PageAccessToken: getEnv("PAGE_ACCESS_TOKEN", ""),
		VerifyToken:     getEnv("VERIFY_TOKEN", ""),
		ResetKey:        getEnv("RESET_KEY", ""),
		PublicURL:       strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		ManifestPath:    getEnv("MEDIA_MANIFEST", "./media_manifest.json"),
		MediaDir:        getEnv("MEDIA_DIR", ""),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", ""),
		PrivilegedIDs:   splitList(getEnv("ADMIN_IDS", "")),

		OnboardingCooldown: getEnvDuration("ONBOARDING_COOLDOWN", 30*24*time.Hour),
		FollowupCooldown:   getEnvDuration("FOLLOWUP_COOLDOWN", 12*time.Hour),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 4),
		InterChunkDelay:    getEnvDuration("INTER_CHUNK_DELAY", 900*time.Millisecond),
		InterItemDelay:     getEnvDuration("INTER_ITEM_DELAY", 700*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.PageAccessToken == "" {
		return fmt.Errorf("PAGE_ACCESS_TOKEN is required")
	}
	if c.VerifyToken == "" {
		return fmt.Errorf("VERIFY_TOKEN is required")
	}
	if c.ResetKey == "" {
		return fmt.Errorf("RESET_KEY is required")
	}
	if c.ChunkSize < 1 || c.ChunkSize > maxChunkSize {
		return fmt.Errorf("CHUNK_SIZE must be between 1 and %d", maxChunkSize)
	}
	if c.OnboardingCooldown <= 0 {
		return fmt.Errorf("ONBOARDING_COOLDOWN must be positive")
	}
	if c.FollowupCooldown <= 0 {
		return fmt.Errorf("FOLLOWUP_COOLDOWN must be positive")
	}
	if c.MediaDir != "" && c.PublicURL == "" {
		return fmt.Errorf("PUBLIC_URL is required when MEDIA_DIR is set")
	}
	return nil
}

// IsPrivileged returns true if the subject is on the cooldown-bypass list.
func (c *Config) IsPrivileged(subjectID string) bool {
	for _, id := range c.PrivilegedIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
