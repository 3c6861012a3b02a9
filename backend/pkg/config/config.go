package config

import (
	"fmt"
	"os"

	apperrors "graphpad/backend/pkg/errors"

	"github.com/joho/godotenv"
)

// DefaultSecretKey is the placeholder signing key. It is fine for local
// development and tests and must never reach production.
const DefaultSecretKey = "dev"

// Store backend names accepted by GRAPH_STORE.
const (
	StoreMemory = "memory"
	StoreNeo4j  = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// App
	Port      string
	Env       string
	SecretKey string

	// Graph store
	GraphStore string // "memory" or "neo4j"

	// Neo4j (used when GraphStore is "neo4j")
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// CORS
	CORSOrigin string

	// Extra carries overlay entries that do not map to a known field.
	// They are kept rather than rejected so callers can stash their own
	// settings the way they would on a framework config object.
	Extra map[string]any
}

// Default returns the built-in configuration: development environment,
// in-memory graph store, and the placeholder secret key. No environment
// variables are consulted.
func Default() *Config {
	return &Config{
		Port:          "8080",
		Env:           "development",
		SecretKey:     DefaultSecretKey,
		GraphStore:    StoreMemory,
		Neo4jURI:      "bolt://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jPassword: "",
		CORSOrigin:    "*",
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		SecretKey:     getEnv("SECRET_KEY", DefaultSecretKey),
		GraphStore:    getEnv("GRAPH_STORE", StoreMemory),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Merge applies an overlay mapping on top of the current values. Overlay
// entries win; keys absent from the overlay keep whatever the config
// already holds. Keys that do not name a known setting are kept in Extra.
func (c *Config) Merge(overlay map[string]any) error {
	for key, value := range overlay {
		switch key {
		case "PORT":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.Port = s
		case "ENV":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.Env = s
		case "SECRET_KEY":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.SecretKey = s
		case "GRAPH_STORE":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.GraphStore = s
		case "NEO4J_URI":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.Neo4jURI = s
		case "NEO4J_USER":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.Neo4jUser = s
		case "NEO4J_PASSWORD":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.Neo4jPassword = s
		case "CORS_ORIGIN":
			s, err := stringValue(key, value)
			if err != nil {
				return err
			}
			c.CORSOrigin = s
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[key] = value
		}
	}
	return nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}
	if c.GraphStore != StoreMemory && c.GraphStore != StoreNeo4j {
		return apperrors.NewConfigInvalidValue("GRAPH_STORE", fmt.Sprintf("unknown backend %q", c.GraphStore))
	}
	if c.GraphStore == StoreNeo4j {
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		return apperrors.ErrConfigInsecureSecret
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func stringValue(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", apperrors.NewConfigInvalidValue(key, fmt.Sprintf("expected string, got %T", value))
	}
	return s, nil
}
