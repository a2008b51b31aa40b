package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Reports     ReportsConfig  `toml:"reports"`
	Gateway     GatewayConfig  `toml:"gateway"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	LLM         LLMConfig      `toml:"llm"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Logging     LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ReportsConfig controls where per-run report directories are created
type ReportsConfig struct {
	Dir string `toml:"dir"` // Base directory for per-run report output (default: ./reports)
}

// GatewayConfig contains configuration for the external data gateway
type GatewayConfig struct {
	UserAgent        string        `toml:"user_agent"`         // User agent for page fetches
	RequestTimeout   time.Duration `toml:"request_timeout"`    // HTTP request timeout
	MaxRetries       int           `toml:"max_retries"`        // Retry attempts for transient failures
	RetryBaseDelay   time.Duration `toml:"retry_base_delay"`   // Initial backoff delay, doubled per attempt
	CacheTTL         time.Duration `toml:"cache_ttl"`          // TTL for cached provider responses
	CacheSweep       string        `toml:"cache_sweep"`        // Cron schedule for expired-entry sweeps
	RequestsPerSec   float64       `toml:"requests_per_sec"`   // Outbound rate limit across providers
	MaxSearchResults int           `toml:"max_search_results"` // Max URLs requested from search providers
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	Model          string  `toml:"model"`           // Chat model (default: "gemini-2.0-flash")
	EmbedModel     string  `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Embedding dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	Temperature    float32 `toml:"temperature"`     // Default completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Default completion temperature
}

// LLMConfig selects the completion provider
type LLMConfig struct {
	Provider string `toml:"provider"` // "gemini" (default) or "claude"
}

// PipelineConfig contains tunables for the analysis pipeline
type PipelineConfig struct {
	SampleLimit  int `toml:"sample_limit"`  // Items per collection included in LLM prompts (default: 5)
	TopK         int `toml:"top_k"`         // Chunks retrieved for question answering (default: 5)
	ChunkSize    int `toml:"chunk_size"`    // Characters per index chunk (default: 1000)
	ChunkOverlap int `toml:"chunk_overlap"` // Overlap between adjacent chunks (default: 200)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// DefaultConfig returns configuration defaults applied before file and
// environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/mercator"},
		},
		Reports: ReportsConfig{Dir: "./reports"},
		Gateway: GatewayConfig{
			UserAgent:        "MercatorAgent/1.0 (+https://github.com/calibrae/mercator)",
			RequestTimeout:   30 * time.Second,
			MaxRetries:       3,
			RetryBaseDelay:   2 * time.Second,
			CacheTTL:         time.Hour,
			CacheSweep:       "@every 10m",
			RequestsPerSec:   4,
			MaxSearchResults: 7,
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Timeout:        "2m",
			Temperature:    0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM:      LLMConfig{Provider: "gemini"},
		Pipeline: PipelineConfig{SampleLimit: 5, TopK: 5, ChunkSize: 1000, ChunkOverlap: 200},
		Logging:  LoggingConfig{Level: "info", Output: []string{"stdout"}},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies MERCATOR_* environment variables over the loaded
// configuration. Environment always wins over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MERCATOR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MERCATOR_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MERCATOR_BADGER_PATH"); v != "" {
		cfg.Storage.Badger.Path = v
	}
	if v := os.Getenv("MERCATOR_REPORTS_DIR"); v != "" {
		cfg.Reports.Dir = v
	}
	if v := os.Getenv("MERCATOR_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("MERCATOR_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("MERCATOR_CLAUDE_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("MERCATOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ApplyFlagOverrides applies command-line flag values over the configuration.
// Flags have the highest priority.
func ApplyFlagOverrides(cfg *Config, port int, host string) {
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
}
