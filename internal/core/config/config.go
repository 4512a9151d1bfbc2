// SPDX-License-Identifier: Apache-2.0

// Package config loads stencil settings from ~/.stencil/config.yaml, a .env
// file and STENCIL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kusari-oss/stencil/internal/adapters/file"
	"github.com/kusari-oss/stencil/internal/adapters/memory"
	"github.com/kusari-oss/stencil/internal/adapters/redis"
	"github.com/kusari-oss/stencil/internal/core/library"
	"github.com/kusari-oss/stencil/internal/core/store"
)

const (
	DefaultConfigDir      = ".stencil"
	DefaultConfigFileName = "config.yaml"
	EnvPrefix             = "STENCIL"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Store       StoreConfig   `mapstructure:"store" yaml:"store"`
	GitHub      GitHubConfig  `mapstructure:"github" yaml:"github"`
	Catalog     CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Server      ServerConfig  `mapstructure:"server" yaml:"server"`
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
	LibraryPath string        `mapstructure:"library_path" yaml:"library_path"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type GitHubConfig struct {
	APIURL  string        `mapstructure:"api_url" yaml:"api_url"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type CatalogConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", "~/.stencil/store")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", redis.DefaultPrefix)
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", 10*time.Second)
	v.SetDefault("catalog.fetch_timeout", 10*time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("library_path", library.DefaultPath)
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	cfg.expandPaths()
	return &cfg
}

// DefaultPath is ~/.stencil/config.yaml, honoring STENCIL_HOME.
func DefaultPath() string {
	return library.ExpandPath(filepath.Join("~", DefaultConfigDir, DefaultConfigFileName))
}

// Load reads the configuration. An empty path uses DefaultPath; a missing
// file is not an error. Precedence from low to high: defaults, file, .env,
// environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	path = library.ExpandPath(path)

	loadEnvFiles(filepath.Dir(path))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFiles loads .env from the working directory and the config
// directory. Variables already set in the environment are kept.
func loadEnvFiles(configDir string) {
	for _, p := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) expandPaths() {
	c.Store.Path = library.ExpandPath(c.Store.Path)
	c.LibraryPath = library.ExpandPath(c.LibraryPath)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be positive")
	}
	if c.Catalog.FetchTimeout <= 0 {
		return fmt.Errorf("catalog.fetch_timeout must be positive")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	path = library.ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory '%s': %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error writing config file '%s': %w", path, err)
	}
	return nil
}

// OpenStore builds the configured store backend.
func (c *Config) OpenStore() (store.Store, error) {
	switch c.Store.Backend {
	case BackendMemory:
		return memory.New(), nil
	case BackendFile:
		return file.New(c.Store.Path), nil
	case BackendRedis:
		r := c.Store.Redis
		return redis.New(r.Addr, r.Password, r.DB, redis.WithPrefix(r.Prefix)), nil
	default:
		return nil, fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
}

// LibraryManager returns a manager for the configured library path.
func (c *Config) LibraryManager(cmdLinePath string) *library.Manager {
	return library.NewManager(c.LibraryPath, cmdLinePath)
}
