package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override file settings.
const EnvPrefix = "RESUMERAG"

// Config holds all configuration for resumerag.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Generation GenerationConfig `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig identifies the persistent collection.
type StoreConfig struct {
	PersistDir string `yaml:"persist_dir"`
	Collection string `yaml:"collection"`
}

// IngestConfig selects files when ingesting directories.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ChunkingConfig holds segmenter limits, in characters.
type ChunkingConfig struct {
	MaxChars     int `yaml:"max_chars"`
	OverlapChars int `yaml:"overlap_chars"`
}

// EmbeddingConfig holds encoder configuration.
type EmbeddingConfig struct {
	Dimension int `yaml:"dimension"`
}

// RetrieveConfig holds retrieval and guardrail configuration.
type RetrieveConfig struct {
	TopK              int           `yaml:"top_k"`
	MinRelevanceScore float64       `yaml:"min_relevance_score"`
	CacheSize         int           `yaml:"cache_size"` // 0 disables the retrieval cache
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// GenerationConfig selects and configures the generation backend.
type GenerationConfig struct {
	Provider  string        `yaml:"provider"` // "ollama", "openai", "none"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`    // empty selects the provider default
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	Timeout   time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			PersistDir: filepath.Join(".resumerag", "vectors"),
			Collection: "resumes",
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md", "**/*.markdown"},
			Excludes: []string{"**/.git/**", "**/.resumerag/**", "**/node_modules/**"},
		},
		Chunking: ChunkingConfig{
			MaxChars:     1200,
			OverlapChars: 150,
		},
		Embedding: EmbeddingConfig{
			Dimension: 384,
		},
		Retrieve: RetrieveConfig{
			TopK:              6,
			MinRelevanceScore: 0.25,
			CacheSize:         256,
			CacheTTL:          5 * time.Minute,
		},
		Generation: GenerationConfig{
			Provider:  "ollama",
			Model:     "llama3.1",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   120 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
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
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for resumerag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "resumerag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".resumerag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type envOverrides struct {
	PersistDir        string        `envconfig:"PERSIST_DIR"`
	Collection        string        `envconfig:"COLLECTION"`
	MaxChars          int           `envconfig:"MAX_CHARS"`
	OverlapChars      *int          `envconfig:"OVERLAP_CHARS"`
	Dimension         int           `envconfig:"DIMENSION"`
	TopK              int           `envconfig:"TOP_K"`
	MinRelevanceScore *float64      `envconfig:"MIN_RELEVANCE_SCORE"`
	Provider          string        `envconfig:"PROVIDER"`
	Model             string        `envconfig:"MODEL"`
	BaseURL           string        `envconfig:"BASE_URL"`
	Timeout           time.Duration `envconfig:"TIMEOUT"`
	Addr              string        `envconfig:"ADDR"`
	LogLevel          string        `envconfig:"LOG_LEVEL"`
	LogFormat         string        `envconfig:"LOG_FORMAT"`
}

// ApplyEnv overrides settings with RESUMERAG_* environment variables.
// Unset variables leave the file value in place. Settings where zero is a
// valid value are pointers so that an explicit 0 still overrides.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	setString(&c.Store.PersistDir, env.PersistDir)
	setString(&c.Store.Collection, env.Collection)
	setInt(&c.Chunking.MaxChars, env.MaxChars)
	if env.OverlapChars != nil {
		c.Chunking.OverlapChars = *env.OverlapChars
	}
	setInt(&c.Embedding.Dimension, env.Dimension)
	setInt(&c.Retrieve.TopK, env.TopK)
	if env.MinRelevanceScore != nil {
		c.Retrieve.MinRelevanceScore = *env.MinRelevanceScore
	}
	setString(&c.Generation.Provider, env.Provider)
	setString(&c.Generation.Model, env.Model)
	setString(&c.Generation.BaseURL, env.BaseURL)
	if env.Timeout != 0 {
		c.Generation.Timeout = env.Timeout
	}
	setString(&c.Server.Addr, env.Addr)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Logging.Format, env.LogFormat)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Store.PersistDir == "":
		return errors.New("store.persist_dir must not be empty")
	case c.Store.Collection == "":
		return errors.New("store.collection must not be empty")
	case c.Chunking.MaxChars <= 0:
		return fmt.Errorf("chunking.max_chars must be positive, got %d", c.Chunking.MaxChars)
	case c.Chunking.OverlapChars < 0:
		return fmt.Errorf("chunking.overlap_chars must not be negative, got %d", c.Chunking.OverlapChars)
	case c.Embedding.Dimension <= 0:
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	case c.Retrieve.TopK <= 0:
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	case c.Retrieve.MinRelevanceScore < 0 || c.Retrieve.MinRelevanceScore > 1:
		return fmt.Errorf("retrieve.min_relevance_score must be within [0,1], got %g", c.Retrieve.MinRelevanceScore)
	case c.Generation.Timeout < 0:
		return fmt.Errorf("generation.timeout must not be negative, got %s", c.Generation.Timeout)
	}
	return nil
}

// StorePath returns the database file of the configured collection.
func (c *Config) StorePath() string {
	return filepath.Join(c.Store.PersistDir, c.Store.Collection+".db")
}

// EnsureStoreDir ensures the persist directory exists.
func (c *Config) EnsureStoreDir() error {
	return os.MkdirAll(c.Store.PersistDir, 0755)
}
