package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyluth/regent/internal/ledger"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "regent.yml"

// Defaults applied by Validate when a field is left empty.
const (
	DefaultBaseURL           = "https://queensgame.vercel.app/"
	DefaultUserAgent         = "regent/1.0"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 1.0
	DefaultBaseDir           = "levels"
	DefaultLedgerPolicy      = "merge"
	DefaultMissingNoLedger   = "none"
	DefaultBackend           = "file"
	DefaultRedisURL          = "redis://localhost:6379/0"
	DefaultNamespace         = "default"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

var validate = validator.New()

// RemoteConfig describes where puzzles are fetched from
type RemoteConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	StaticDir         string        `yaml:"static_dir,omitempty"` // Replay saved pages instead of fetching over HTTP
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
}

// PathsConfig locates local output
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" validate:"required"`
}

// DownloadConfig holds run policy
type DownloadConfig struct {
	LedgerPolicy         string `yaml:"ledger_policy" validate:"oneof=merge replace"`
	MissingWithoutLedger string `yaml:"missing_without_ledger" validate:"oneof=all none"`
	StableLabels         bool   `yaml:"stable_labels"` // Deterministic first-seen color labels
}

// StoreConfig selects the puzzle store backend
type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=file badger redis postgres"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	Namespace   string `yaml:"namespace,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// MetricsConfig controls the Prometheus textfile written after each run
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file,omitempty"` // Optional, tee log lines to this file
}

// Config represents the top-level regent.yml configuration
type Config struct {
	Version  string         `yaml:"version"`
	Remote   RemoteConfig   `yaml:"remote"`
	Paths    PathsConfig    `yaml:"paths"`
	Download DownloadConfig `yaml:"download"`
	Store    StoreConfig    `yaml:"store"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{Version: "1.0"}
	// Defaults always validate
	_ = c.Validate()
	return c
}

// Validate applies defaults and performs strict validation on the configuration
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	c.applyDefaults()

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if c.Store.Backend == "postgres" && c.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required when store.backend is 'postgres'")
	}
	if c.Remote.StaticDir != "" {
		if info, err := os.Stat(c.Remote.StaticDir); err != nil || !info.IsDir() {
			return fmt.Errorf("remote.static_dir does not exist: %s", c.Remote.StaticDir)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Remote.BaseURL == "" && c.Remote.StaticDir == "" {
		c.Remote.BaseURL = DefaultBaseURL
	}
	if c.Remote.UserAgent == "" {
		c.Remote.UserAgent = DefaultUserAgent
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = DefaultTimeout
	}
	if c.Remote.RequestsPerSecond == 0 {
		c.Remote.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Paths.BaseDir == "" {
		c.Paths.BaseDir = DefaultBaseDir
	}
	if c.Download.LedgerPolicy == "" {
		c.Download.LedgerPolicy = DefaultLedgerPolicy
	}
	if c.Download.MissingWithoutLedger == "" {
		c.Download.MissingWithoutLedger = DefaultMissingNoLedger
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.RedisURL == "" {
		c.Store.RedisURL = DefaultRedisURL
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// fieldError renders a validator failure with the YAML path of the field.
func fieldError(fe validator.FieldError) error {
	path := yamlPath(fe.Namespace())
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid %s: %v (must be one of: %s)", path, fe.Value(), fe.Param())
	case "required":
		return fmt.Errorf("%s is required", path)
	case "url":
		return fmt.Errorf("invalid %s: %v (must be a URL)", path, fe.Value())
	case "gte":
		return fmt.Errorf("%s must be >= %s, got %v", path, fe.Param(), fe.Value())
	}
	return fmt.Errorf("invalid %s: failed '%s' check", path, fe.Tag())
}

// yamlPath turns "Config.Remote.BaseURL" into "remote.base_url".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	switch s {
	case "BaseURL":
		return "base_url"
	case "RedisURL":
		return "redis_url"
	case "PostgresDSN":
		return "postgres_dsn"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LedgerPath returns the ledger file inside the base directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.BaseDir, ledger.FileName)
}

// NewLogger builds the structured logger described by the log section.
// Lines go to w and, when log.file is set, to that file as well. The returned
// closer releases the file and is never nil.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log.level: %w", err)
	}

	var closer io.Closer = nopCloser{}
	if c.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Log.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closer = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Load reads and validates regent.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. found reports whether the file was read.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		return Default(), false, nil
	}
	cfg, err = Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}
