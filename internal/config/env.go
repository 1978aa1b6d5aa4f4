package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile injects key/value pairs from a dotenv file into the process
// environment. Existing variables win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ParseBool reports whether a DEBUG-style environment string is truthy.
// True iff the value is case-insensitively one of "1", "true", "yes";
// everything else (including unset) is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Gemini credential (check in priority order)
	if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
		c.LLM.APIKey = key
	}
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.LLM.Model = model
	}

	// Database settings
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Database.Name = name
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if pass := os.Getenv("DB_PASS"); pass != "" {
		c.Database.Password = pass
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		c.Database.SSLMode = mode
	}

	// Server settings
	if key := os.Getenv("SECRET_KEY"); key != "" {
		c.Server.SecretKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}

	if debug, ok := os.LookupEnv("DEBUG"); ok {
		c.Debug = ParseBool(debug)
	}
}
