package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Security  SecurityConfig
	Inference InferenceConfig
	Email     EmailConfig
	App       AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Address     string
	Port        int
	Environment string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BCryptCost int
}

// InferenceConfig holds the text-generation endpoint configuration.
// Timeout of zero means no client-side timeout: a hung inference call
// hangs the serving request.
type InferenceConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// EmailConfig holds SMTP configuration for password-reset mail
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
}

// AppConfig holds application-level settings
type AppConfig struct {
	BaseURL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:     getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("DATABASE_DSN"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Security: SecurityConfig{
			BCryptCost: getEnvAsInt("BCRYPT_COST", 12),
		},
		Inference: InferenceConfig{
			URL:     getEnv("INFERENCE_URL", "http://localhost:11434/api/generate"),
			Model:   getEnv("INFERENCE_MODEL", "llama3.2"),
			Timeout: time.Duration(getEnvAsInt("INFERENCE_TIMEOUT", 0)) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		App: AppConfig{
			BaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.Username
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
