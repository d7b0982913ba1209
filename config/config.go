package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds all configuration for docrag.
type Config struct {
	Chunk     ChunkConfig     `yaml:"chunk"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Store     StoreConfig     `yaml:"store"`
	Train     TrainConfig     `yaml:"train"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkConfig holds chunking configuration.
type ChunkConfig struct {
	TargetWords int `yaml:"target_words"`
	OverlapHint int `yaml:"overlap_hint"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Dimension int `yaml:"dimension"`
	Workers   int `yaml:"workers"` // 0 = number of CPUs
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k"`
	MinScore     float64 `yaml:"min_score"`     // results at or below this score are dropped by the caller
	PreviewChars int     `yaml:"preview_chars"` // source preview length in context output
}

// StoreConfig selects where trained collections are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "bolt", "sqlite", "file"
	Path    string `yaml:"path"`    // relative to the root directory unless absolute
}

// TrainConfig holds configuration for reading training input.
type TrainConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	MinTextLength int      `yaml:"min_text_length"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			TargetWords: 300,
			OverlapHint: 50,
		},
		Embedding: EmbeddingConfig{
			Dimension: 768,
			Workers:   0,
		},
		Retrieve: RetrieveConfig{
			TopK:         5,
			MinScore:     0.05,
			PreviewChars: 250,
		},
		Store: StoreConfig{
			Backend: BackendBolt,
		},
		Train: TrainConfig{
			Includes:      []string{"**/*.txt", "**/*.md", "**/*.csv", "**/*.sql"},
			Excludes:      []string{"**/.git/**", "**/.docrag/**", "**/node_modules/**"},
			MinTextLength: 50,
		},
		Cache: CacheConfig{
			Size: 100,
			TTL:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnvFile loads dir/.env into the process environment if it exists.
// Variables already set in the environment win.
func LoadEnvFile(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides config values from DOCRAG_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DOCRAG_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DOCRAG_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DOCRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCRAG_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DOCRAG_DIMENSION %q: %w", v, err)
		}
		c.Embedding.Dimension = n
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Chunk.TargetWords <= 0 {
		return fmt.Errorf("chunk.target_words must be positive, got %d", c.Chunk.TargetWords)
	}
	switch c.Store.Backend {
	case BackendBolt, BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	return nil
}

// EmbeddingWorkers returns the worker pool size for embedding.
func (c *Config) EmbeddingWorkers() int {
	if c.Embedding.Workers > 0 {
		return c.Embedding.Workers
	}
	return runtime.NumCPU()
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns where the configured backend keeps its data.
func (c *Config) StorePath(dir string) string {
	if c.Store.Path != "" {
		if filepath.IsAbs(c.Store.Path) {
			return c.Store.Path
		}
		return filepath.Join(dir, c.Store.Path)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		return filepath.Join(dir, ".docrag", "index.sqlite")
	case BackendFile:
		return filepath.Join(dir, ".docrag", "collections")
	default:
		return filepath.Join(dir, ".docrag", "index.db")
	}
}

// EnsureDataDir ensures the .docrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docrag"), 0755)
}
