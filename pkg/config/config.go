// Package config provides configuration management for buildingbooks.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	API   APIConfig
	Local LocalConfig
	Debug bool
}

// APIConfig represents backend API configuration.
type APIConfig struct {
	URL        string
	BuildingID int64
}

// LocalConfig represents local storage configuration.
type LocalConfig struct {
	DataDir        string // holds settings.db and history.db
	CompanyProfile string // YAML company profile used by print
}

// Load loads configuration from environment variables.
// It automatically loads .env from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	buildingID, err := parseInt64Env("BBOOKS_BUILDING_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid BBOOKS_BUILDING_ID: %w", err)
	}

	config := &Config{
		API: APIConfig{
			URL:        getEnvOrDefault("BBOOKS_API_URL", "http://localhost:8080"),
			BuildingID: buildingID,
		},
		Local: LocalConfig{
			DataDir:        getEnvOrDefault("BBOOKS_DATA_DIR", "./data"),
			CompanyProfile: os.Getenv("BBOOKS_COMPANY_PROFILE"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that all named configuration keys are set.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, key := range required {
		var value string
		switch key {
		case "api.url":
			value = c.API.URL
		case "api.buildingId":
			if c.API.BuildingID != 0 {
				value = "set"
			}
		case "local.dataDir":
			value = c.Local.DataDir
		case "local.companyProfile":
			value = c.Local.CompanyProfile
		}

		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// SettingsPath returns the settings database path under the data directory.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Local.DataDir, "settings.db")
}

// HistoryPath returns the posting history database path.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Local.DataDir, "history.db")
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseInt64Env parses an int64 from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
