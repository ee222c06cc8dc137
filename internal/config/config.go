// Package config loads storyblocks settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"storyblocks/internal/overlay"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

var validDrivers = []string{DriverSQLite, DriverPostgres, DriverMySQL, DriverMongo}

type Config struct {
	DataDir string        `yaml:"data_dir"`
	Storage StorageConfig `yaml:"storage"`
	Editor  EditorConfig  `yaml:"editor"`
	Media   MediaConfig   `yaml:"media"`
	Publish PublishConfig `yaml:"publish"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the story store. For sqlite an empty DSN means
// <data_dir>/storyblocks.db. Postgres and MySQL may give either a full DSN
// or the discrete connection fields.
type StorageConfig struct {
	Driver   string      `yaml:"driver"`
	DSN      string      `yaml:"dsn"`
	Host     string      `yaml:"host"`
	Port     int         `yaml:"port"`
	Database string      `yaml:"database"`
	Username string      `yaml:"username"`
	Password string      `yaml:"password"`
	SSLMode  string      `yaml:"ssl_mode"`
	Mongo    MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type EditorConfig struct {
	DebounceMS int              `yaml:"debounce_ms"`
	Viewport   overlay.Viewport `yaml:"viewport"`
}

// Debounce returns the commit quiet period.
func (e EditorConfig) Debounce() time.Duration {
	return time.Duration(e.DebounceMS) * time.Millisecond
}

type MediaConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// PublishConfig controls HTML publishing. An empty Dir means
// <data_dir>/public. An empty Schedule disables the cron job;
// `storyblocks publish` still works on demand.
type PublishConfig struct {
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"`
}

// WatchConfig names the import inbox. An empty Dir means <data_dir>/inbox.
// Enabled starts the watcher alongside the MCP server; `storyblocks watch`
// runs it regardless.
type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultDataDir is ~/.local/share/storyblocks.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".storyblocks")
	}
	return filepath.Join(home, ".local", "share", "storyblocks")
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Mongo:  MongoConfig{Database: "storyblocks"},
		},
		Editor: EditorConfig{
			DebounceMS: 100,
			Viewport:   overlay.Viewport{Width: 1280, Height: 800},
		},
		Media: MediaConfig{MaxBytes: 8 << 20},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("STORYBLOCKS_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if driver := os.Getenv("STORYBLOCKS_DB_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if dsn := os.Getenv("STORYBLOCKS_DB_DSN"); dsn != "" {
		c.Storage.DSN = dsn
	}
	if pw := os.Getenv("STORYBLOCKS_DB_PASSWORD"); pw != "" {
		c.Storage.Password = pw
	}
	if uri := os.Getenv("STORYBLOCKS_MONGO_URI"); uri != "" {
		c.Storage.Mongo.URI = uri
	}
	if level := os.Getenv("STORYBLOCKS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if ms := os.Getenv("STORYBLOCKS_DEBOUNCE_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			c.Editor.DebounceMS = v
		}
	}
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}
	valid := false
	for _, d := range validDrivers {
		if c.Storage.Driver == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, validDrivers)
	}
	if c.Storage.Driver == DriverMongo && c.Storage.Mongo.URI == "" {
		return fmt.Errorf("mongo driver needs storage.mongo.uri (or STORYBLOCKS_MONGO_URI)")
	}
	if c.Editor.DebounceMS <= 0 {
		return fmt.Errorf("editor.debounce_ms must be positive, got %d", c.Editor.DebounceMS)
	}
	if c.Editor.Viewport.Width <= 0 || c.Editor.Viewport.Height <= 0 {
		return fmt.Errorf("editor.viewport must have a positive size")
	}
	if c.Media.MaxBytes < 0 {
		return fmt.Errorf("media.max_bytes must not be negative")
	}
	return nil
}

// SQLitePath is the database file used when the sqlite DSN is empty.
func (c *Config) SQLitePath() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return filepath.Join(c.DataDir, "storyblocks.db")
}

func (c *Config) PublishDir() string {
	if c.Publish.Dir != "" {
		return c.Publish.Dir
	}
	return filepath.Join(c.DataDir, "public")
}

func (c *Config) WatchDir() string {
	if c.Watch.Dir != "" {
		return c.Watch.Dir
	}
	return filepath.Join(c.DataDir, "inbox")
}
