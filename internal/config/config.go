package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Graph    GraphConfig
	Logging  LoggingConfig
	Store    StoreConfig
	Analysis AnalysisConfig
	Security SecurityConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the Neo4j database.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	MaxRetryTime   time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// StoreConfig selects where the social graph lives.
type StoreConfig struct {
	Backend string // memory|neo4j
}

// AnalysisConfig tunes the community analyzer.
type AnalysisConfig struct {
	PathMode      string // shared|isolated
	MaxExpansions int
}

// SecurityConfig controls how passwords are stored.
type SecurityConfig struct {
	PasswordHashing string // argon2|none
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendNeo4j  = "neo4j"
)

// Password hashing schemes.
const (
	HashingArgon2 = "argon2"
	HashingNone   = "none"
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultGraphRetryTime   = 15 * time.Second
	defaultMaxExpansions    = 1_000_000
	defaultEnvFile          = ".env"
)

// Load reads configuration from environment variables, applying defaults.
// Variables from a .env file in the working directory are applied first
// without overriding ones already set.
func Load() (Config, error) {
	if err := loadEnvFile(valueOrDefault("CONFIG_ENV_FILE", defaultEnvFile)); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			MaxRetryTime:   defaultGraphRetryTime,
		},
		Store: StoreConfig{
			Backend: strings.ToLower(valueOrDefault("STORE_BACKEND", BackendMemory)),
		},
		Analysis: AnalysisConfig{
			PathMode:      strings.ToLower(valueOrDefault("ANALYSIS_PATH_MODE", "shared")),
			MaxExpansions: parseIntWithDefault("ANALYSIS_MAX_EXPANSIONS", defaultMaxExpansions),
		},
		Security: SecurityConfig{
			PasswordHashing: strings.ToLower(valueOrDefault("PASSWORD_HASHING", HashingArgon2)),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"GRAPH_MAX_RETRY_TIME", &cfg.Graph.MaxRetryTime},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.target); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendNeo4j:
		if c.Graph.URI == "" {
			return errors.New("GRAPH_URI is required when STORE_BACKEND=neo4j")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Analysis.PathMode {
	case "shared", "isolated":
	default:
		return fmt.Errorf("invalid ANALYSIS_PATH_MODE %q", c.Analysis.PathMode)
	}
	if c.Analysis.MaxExpansions < 0 {
		return fmt.Errorf("ANALYSIS_MAX_EXPANSIONS must not be negative, got %d", c.Analysis.MaxExpansions)
	}

	switch c.Security.PasswordHashing {
	case HashingArgon2, HashingNone:
	default:
		return fmt.Errorf("invalid PASSWORD_HASHING %q", c.Security.PasswordHashing)
	}
	return nil
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
