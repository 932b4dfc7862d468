// Package config loads tool configuration from an optional .semdex.toml
// file at the project root, with environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// FileName is the optional per-project configuration file.
	FileName = ".semdex.toml"

	// DefaultCacheDir holds the index database and state file, relative to
	// the project root.
	DefaultCacheDir = ".semdex"

	// DBFileName is the SQLite index database inside the cache directory.
	DBFileName = "index.db"

	// StateFileName is the JSON bookkeeping document inside the cache
	// directory.
	StateFileName = "state.json"
)

// Environment overrides. Each one, when set, wins over the TOML file.
const (
	EnvCacheDir          = "SEMDEX_CACHE_DIR"
	EnvEmbeddingProvider = "SEMDEX_EMBEDDING_PROVIDER"
	EnvEmbeddingAPIKey   = "SEMDEX_EMBEDDING_API_KEY"
	EnvRerankAPIKey      = "SEMDEX_RERANK_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvJinaAPIKey        = "JINA_API_KEY"
)

// EmbeddingConfig selects and authenticates the embedding provider.
type EmbeddingConfig struct {
	Provider  string `toml:"provider"`
	APIKey    string `toml:"api_key"`
	CacheSize int    `toml:"cache_size"`
}

// RerankConfig authenticates the remote reranker. An empty APIKey keeps
// reranking fully local.
type RerankConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ChunkerConfig tunes how files are split.
type ChunkerConfig struct {
	ClassSplitLines int `toml:"class_split_lines"`
}

// IndexConfig tunes the indexing pipeline.
type IndexConfig struct {
	BatchSize int `toml:"batch_size"`
	Workers   int `toml:"workers"`
}

// Config is the full tool configuration. Zero values defer to the defaults
// of the package that consumes them.
type Config struct {
	Root     string `toml:"-"`
	CacheDir string `toml:"cache_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	Rerank    RerankConfig    `toml:"rerank"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Index     IndexConfig     `toml:"index"`
}

// Load builds the configuration for a project root: defaults, then the TOML
// file if present, then environment overrides.
func Load(root string) (*Config, error) {
	cfg := &Config{
		Root:     root,
		CacheDir: DefaultCacheDir,
	}

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvRerankAPIKey); v != "" {
		c.Rerank.APIKey = v
	}

	// Provider-specific keys fill in when no explicit key is configured.
	if c.Embedding.APIKey == "" {
		switch strings.ToLower(c.Embedding.Provider) {
		case "jina":
			c.Embedding.APIKey = os.Getenv(EnvJinaAPIKey)
		default:
			c.Embedding.APIKey = os.Getenv(EnvOpenAIAPIKey)
		}
	}
	if c.Rerank.APIKey == "" {
		c.Rerank.APIKey = os.Getenv(EnvJinaAPIKey)
	}
}

// DBPath returns the absolute path of the index database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Root, c.CacheDir, DBFileName)
}

// StatePath returns the absolute path of the bookkeeping document.
func (c *Config) StatePath() string {
	return filepath.Join(c.Root, c.CacheDir, StateFileName)
}
