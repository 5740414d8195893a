// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	AnthropicAPIKey string
	AnthropicModel  string // empty = provider default
	DatabaseURL     string
	SessionDBPath   string
	EmbeddingsURL   string
	EmbeddingsModel string
	EmbeddingsKey   string
	EmbeddingsDim   int
	MaxResults      int
	ChunkSize       int
	ChunkOverlap    int
	MaxHistory      int
	DocsDir         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDBPath:   getEnv("SESSION_DB_PATH", "./data/sessions.db"),
		EmbeddingsURL:   getEnv("EMBEDDINGS_URL", ""),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "all-MiniLM-L6-v2"),
		EmbeddingsKey:   getEnv("EMBEDDINGS_API_KEY", ""),
		EmbeddingsDim:   getEnvInt("EMBEDDINGS_DIM", 384),
		MaxResults:      getEnvInt("MAX_RESULTS", 5),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 100),
		MaxHistory:      getEnvInt("MAX_HISTORY", 2),
		DocsDir:         getEnv("DOCS_DIR", "./docs"),
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
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if c.SessionDBPath == "" {
		return fmt.Errorf("SESSION_DB_PATH cannot be empty")
	}
	if c.EmbeddingsURL == "" {
		return fmt.Errorf("EMBEDDINGS_URL cannot be empty")
	}
	if c.EmbeddingsDim <= 0 {
		return fmt.Errorf("EMBEDDINGS_DIM must be > 0")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS must be > 0")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be > 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.MaxHistory < 0 {
		return fmt.Errorf("MAX_HISTORY must be >= 0")
	}
	return nil
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
