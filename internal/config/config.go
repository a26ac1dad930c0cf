package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings shared by every service. It is
// loaded once at startup and passed to constructors read-only.
type Config struct {
	ProjectID      string
	DocumentBucket string
	PublicBaseURL  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present, so local runs do not need to
// export anything.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ProjectID:      GetEnv("GCP_PROJECT", ""),
		DocumentBucket: GetEnv("DOCUMENT_BUCKET", ""),
		PublicBaseURL:  GetEnv("PUBLIC_BASE_URL", "https://storage.googleapis.com"),
	}
	if cfg.ProjectID == "" {
		return Config{}, fmt.Errorf("GCP_PROJECT environment variable must be set")
	}
	if cfg.DocumentBucket == "" {
		return Config{}, fmt.Errorf("DOCUMENT_BUCKET must be set")
	}
	return cfg, nil
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
