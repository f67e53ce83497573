// Package config loads client settings. Values are layered: built-in
// defaults, then an optional YAML file, then environment variables (a .env
// file in the working directory is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/kotconnect/internal/api"
)

// Modes.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Platforms. Web uses the plaintext store, every other platform the encrypted one.
const (
	PlatformWeb     = "web"
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformDesktop = "desktop"
)

// EnvConfigPath names the YAML file to load.
const EnvConfigPath = "KOTCONNECT_CONFIG"

// Config holds all client settings.
type Config struct {
	Mode     string `yaml:"mode"`
	APIBase  string `yaml:"api_base"`
	DevHost  string `yaml:"dev_host"`
	Platform string `yaml:"platform"`
	DataDir  string `yaml:"data_dir"`

	// Passphrase unlocks the encrypted store. It is read from the environment
	// only; when empty a key file in DataDir is used.
	Passphrase string `yaml:"-"`

	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`

	DedupingInterval  time.Duration `yaml:"deduping_interval"`
	CacheCapacity     int           `yaml:"cache_capacity"`
	RevalidateOnFocus bool          `yaml:"revalidate_on_focus"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Mode:             ModeProd,
		Platform:         PlatformDesktop,
		DataDir:          defaultDataDir(),
		Timeout:          api.DefaultTimeout,
		RateBurst:        1,
		DedupingInterval: 2 * time.Second,
		CacheCapacity:    128,
		LogLevel:         "info",
	}
}

// Load builds the configuration. path may be empty, in which case
// KOTCONNECT_CONFIG is consulted; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = getEnv("KOTCONNECT_MODE", c.Mode)
	c.APIBase = getEnv("KOTCONNECT_API_BASE", c.APIBase)
	c.DevHost = getEnv("KOTCONNECT_DEV_HOST", c.DevHost)
	c.Platform = getEnv("KOTCONNECT_PLATFORM", c.Platform)
	c.DataDir = getEnv("KOTCONNECT_DATA_DIR", c.DataDir)
	c.Passphrase = getEnv("KOTCONNECT_PASSPHRASE", c.Passphrase)
	c.MetricsAddr = getEnv("KOTCONNECT_METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	var err error
	if c.Timeout, err = getDuration("KOTCONNECT_TIMEOUT", c.Timeout); err != nil {
		return err
	}
	if c.DedupingInterval, err = getDuration("KOTCONNECT_DEDUP_INTERVAL", c.DedupingInterval); err != nil {
		return err
	}
	if c.CacheCapacity, err = getInt("KOTCONNECT_CACHE_CAPACITY", c.CacheCapacity); err != nil {
		return err
	}
	if c.RateBurst, err = getInt("KOTCONNECT_RATE_BURST", c.RateBurst); err != nil {
		return err
	}
	if v := getEnv("KOTCONNECT_RATE_LIMIT", ""); v != "" {
		if c.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("invalid KOTCONNECT_RATE_LIMIT %q: %w", v, err)
		}
	}
	if v := getEnv("KOTCONNECT_REVALIDATE_ON_FOCUS", ""); v != "" {
		if c.RevalidateOnFocus, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid KOTCONNECT_REVALIDATE_ON_FOCUS %q: %w", v, err)
		}
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))

	switch c.Mode {
	case ModeDev, ModeProd:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeProd, c.Mode)
	}
	switch c.Platform {
	case PlatformWeb, PlatformAndroid, PlatformIOS, PlatformDesktop:
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if c.DataDir == "" {
		return errors.New("data dir is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.CacheCapacity)
	}
	return nil
}

// Dev reports whether development base URL sources apply.
func (c *Config) Dev() bool {
	return c.Mode == ModeDev
}

// Encrypted reports whether the platform keeps the session in the encrypted store.
func (c *Config) Encrypted() bool {
	return c.Platform != PlatformWeb
}

// Environment returns the inputs for api.ResolveBaseURL.
func (c *Config) Environment() api.Environment {
	return api.Environment{
		Override:   c.APIBase,
		Dev:        c.Dev(),
		DevHostURI: c.DevHost,
		Platform:   c.Platform,
	}
}

// StorePath is the SQLite file backing the session store.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// KeyFilePath holds the generated key when no passphrase is configured.
func (c *Config) KeyFilePath() string {
	return filepath.Join(c.DataDir, "session.key")
}

// LogPath is where the terminal UI writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "kotconnect.log")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "kotconnect")
	}
	return "./data"
}
