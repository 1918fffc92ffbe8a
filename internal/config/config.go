// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

type Config struct {
	Port              string
	Environment       string
	InngestEventKey   string
	InngestSigningKey string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	PerplexityAPIKey  string
	GeminiAPIKey      string
	DatabaseURL       string
	Database          DatabaseConfig
	Analysis          AnalysisConfig
}

// AnalysisConfig controls the orchestrator's fan-out behavior.
type AnalysisConfig struct {
	BatchSize       int // concurrent provider calls per batch
	PromptCount     int // prompts generated per analysis run
	OpenAIModel     string
	ClaudeModel     string
	GeminiModel     string
	PerplexityModel string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

func Load() *Config {
	config := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		InngestEventKey:   os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	// Parse database configuration
	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "brandlens"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Analysis = AnalysisConfig{
		BatchSize:       getEnvInt("ANALYSIS_BATCH_SIZE", 3),
		PromptCount:     getEnvInt("ANALYSIS_PROMPT_COUNT", 4),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4.1"),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		PerplexityModel: getEnv("PERPLEXITY_MODEL", "sonar"),
	}

	return config
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:], // remove leading slash
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
