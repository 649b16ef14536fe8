package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the ragcore configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Generator GeneratorConfig `yaml:"generator"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Graph     GraphConfig     `yaml:"graph"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotated log file, teed with stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds embedding provider, pool and cache settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"` // openai, hashing (default: hashing)
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	Workers    int         `yaml:"workers"`
	QueueSize  int         `yaml:"queue_size"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver string `yaml:"driver"` // none, memory, redis, valkey, sqlite (default: memory)
	TTLSec int    `yaml:"ttl_sec"`
}

// GeneratorConfig holds text generator settings. An empty provider disables
// generation and answers come from templates.
type GeneratorConfig struct {
	Provider    string  `yaml:"provider"` // "", openai
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// DatabaseConfig holds key-value driver settings, used by the embedding
// cache and snapshot storage when they select redis, valkey or sqlite.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	SQLitePath       string   `yaml:"sqlite_path"`
}

// IndexConfig holds vector index persistence settings.
type IndexConfig struct {
	Path           string `yaml:"path"`
	Storage        string `yaml:"storage"` // dir, redis, valkey, sqlite (default: dir)
	KeyPrefix      string `yaml:"key_prefix"`
	LoadOnStart    bool   `yaml:"load_on_start"`
	SaveOnShutdown bool   `yaml:"save_on_shutdown"`
	BatchSize      int    `yaml:"batch_size"`
}

// RetrievalConfig holds hybrid search settings.
type RetrievalConfig struct {
	TopK         int      `yaml:"top_k"`
	Alpha        *float64 `yaml:"alpha"` // nil means 0.7; 0 is pure lexical fusion
	RerankFactor int      `yaml:"rerank_factor"`
}

// GraphConfig holds knowledge graph settings.
type GraphConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first, if present.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	loadDotEnv()

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	loadDotEnv()
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// loadDotEnv loads .env without overriding variables already set.
func loadDotEnv() {
	if fileExists(".env") {
		_ = godotenv.Load(".env")
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hashing"
	}
	if c.Embedding.Model == "" && c.Embedding.Provider == "hashing" {
		c.Embedding.Model = "feature-hashing-v1"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.Workers <= 0 {
		c.Embedding.Workers = 4
	}
	if c.Embedding.QueueSize <= 0 {
		c.Embedding.QueueSize = 64
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Cache.Driver == "" {
		c.Embedding.Cache.Driver = "memory"
	}
	if c.Embedding.Cache.TTLSec <= 0 {
		c.Embedding.Cache.TTLSec = 7 * 24 * 3600
	}

	if c.Generator.MaxTokens <= 0 {
		c.Generator.MaxTokens = 512
	}
	if c.Generator.TimeoutSec <= 0 {
		c.Generator.TimeoutSec = 30
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/ragcore.db"
	}

	if c.Index.Path == "" {
		c.Index.Path = "data/index"
	}
	if c.Index.Storage == "" {
		c.Index.Storage = "dir"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "ragcore:index:"
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 64
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.Alpha == nil {
		alpha := 0.7
		c.Retrieval.Alpha = &alpha
	}
	if c.Retrieval.RerankFactor <= 0 {
		c.Retrieval.RerankFactor = 3
	}

	if c.Graph.Path == "" {
		c.Graph.Path = "data/graph.yaml"
	}

	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 28
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Embedding.Provider {
	case "hashing":
	case "openai":
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider openai")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"hashing\", got %q", c.Embedding.Provider)
	}

	switch c.Generator.Provider {
	case "":
	case "openai":
		if c.Generator.Model == "" {
			return fmt.Errorf("generator.model is required for provider openai")
		}
	default:
		return fmt.Errorf("generator.provider must be empty or \"openai\", got %q", c.Generator.Provider)
	}

	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}

	switch c.Embedding.Cache.Driver {
	case "none", "memory", "sqlite":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for embedding.cache.driver %q", c.Embedding.Cache.Driver)
		}
	default:
		return fmt.Errorf("embedding.cache.driver must be one of none, memory, redis, valkey, sqlite, got %q",
			c.Embedding.Cache.Driver)
	}

	switch c.Index.Storage {
	case "dir", "sqlite":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for index.storage %q", c.Index.Storage)
		}
	default:
		return fmt.Errorf("index.storage must be one of dir, redis, valkey, sqlite, got %q", c.Index.Storage)
	}

	if a := c.Retrieval.Alpha; a != nil && (*a < 0 || *a > 1) {
		return fmt.Errorf("retrieval.alpha must be within [0, 1], got %g", *a)
	}
	return nil
}

// UsesKV reports whether any component needs the redis/valkey driver.
func (c *Config) UsesKV() bool {
	return isKV(c.Embedding.Cache.Driver) || isKV(c.Index.Storage)
}

// UsesSQLite reports whether any component needs the sqlite driver.
func (c *Config) UsesSQLite() bool {
	return c.Embedding.Cache.Driver == "sqlite" || c.Index.Storage == "sqlite"
}

func isKV(driver string) bool {
	return driver == "redis" || driver == "valkey"
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
