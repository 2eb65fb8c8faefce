// Package config loads the engine configuration from a TOML file and
// the environment. API keys never live in the file; they come from
// environment variables so that config files can be shared safely.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragd/internal/chunker"
	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/services"
	"github.com/custodia-labs/ragd/internal/vectormath"
)

// Environment variables consulted for credentials.
const (
	EnvEmbeddingAPIKey = "RAGD_EMBEDDING_API_KEY"
	EnvRerankAPIKey    = "RAGD_RERANK_API_KEY"
)

// DefaultPrefix namespaces all tenant collections.
const DefaultPrefix = "ragd"

// Config is the full engine configuration.
type Config struct {
	// DataDir holds the index database. Empty means ~/.ragd/data.
	DataDir string `toml:"data_dir"`

	// Prefix namespaces tenant collections (default "ragd").
	Prefix string `toml:"prefix"`

	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Rerank    RerankConfig    `toml:"rerank"`
	Search    SearchConfig    `toml:"search"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig configures the dense embedding provider.
type EmbeddingConfig struct {
	// BaseURL points at an OpenAI-compatible endpoint.
	BaseURL string `toml:"base_url"`

	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// RequestsPerSecond caps outgoing embedding calls.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// RerankConfig configures the optional second-stage reranker.
type RerankConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `toml:"-"`
}

// SearchConfig controls retrieval defaults.
type SearchConfig struct {
	// Mode is the default search mode: dense, sparse or hybrid.
	Mode string `toml:"mode"`

	// Alpha weights dense vs sparse scores in hybrid fusion.
	Alpha float64 `toml:"alpha"`

	// MaxTopK caps the per-query result count.
	MaxTopK int `toml:"max_top_k"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path. An empty path means
// ~/.ragd/config.toml; a missing file yields defaults. Credentials are
// read from the environment afterwards.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".ragd", "config.toml")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file yet - run on defaults
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfiguration, path, err)
		}
	}

	cfg.applyDefaults()
	cfg.Embedding.APIKey = os.Getenv(EnvEmbeddingAPIKey)
	cfg.Rerank.APIKey = os.Getenv(EnvRerankAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = chunker.DefaultChunkSize
	}
	if c.Chunking.Overlap == 0 && c.Chunking.Size == chunker.DefaultChunkSize {
		c.Chunking.Overlap = chunker.DefaultOverlap
	}
	if c.Search.Mode == "" {
		c.Search.Mode = string(domain.SearchModeHybrid)
	}
	if c.Search.Alpha == 0 {
		c.Search.Alpha = vectormath.DefaultAlpha
	}
	if c.Search.MaxTopK == 0 {
		c.Search.MaxTopK = services.DefaultMaxTopK
	}
}

// Validate checks cross-field constraints that TOML parsing cannot.
func (c *Config) Validate() error {
	if !domain.SearchMode(c.Search.Mode).Valid() {
		return fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidConfiguration, c.Search.Mode)
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0, 1], got %v", domain.ErrInvalidConfiguration, c.Search.Alpha)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidConfiguration)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, size)", domain.ErrInvalidConfiguration)
	}
	if c.Search.MaxTopK < 1 {
		return fmt.Errorf("%w: max_top_k must be at least 1", domain.ErrInvalidConfiguration)
	}
	return nil
}

// ResolveDataDir returns the configured data directory, defaulting to
// ~/.ragd/data.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragd", "data"), nil
}
