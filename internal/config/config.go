package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
	"github.com/joho/godotenv"
)

const (
	dirName  = ".wishlist"
	fileName = "config.yml"
)

type API struct {
	URL       string `config:"url"`
	Timeout   string `config:"timeout"`
	UserAgent string `config:"user_agent"`
}

type Auth struct {
	Backend string `config:"backend"` // "file" | "keyring"
	File    string `config:"file"`
	Settle  string `config:"settle"`
}

type Cache struct {
	Driver   string `config:"driver"` // "memory" | "redis" | "none"
	TTL      string `config:"ttl"`
	RedisURL string `config:"redis_url"`
}

type Log struct {
	Level string `config:"level"`
	File  string `config:"file"`
}

type UI struct {
	Theme string `config:"theme"`
}

type Config struct {
	API   API   `config:"api"`
	Auth  Auth  `config:"auth"`
	Cache Cache `config:"cache"`
	Log   Log   `config:"log"`
	UI    UI    `config:"ui"`
}

func defaults() map[string]any {
	return map[string]any{
		"api": map[string]any{
			"url":        "http://localhost:8080",
			"timeout":    "10s",
			"user_agent": "wishlist-cli",
		},
		"auth": map[string]any{
			"backend": "file",
			"file":    filepath.Join("~", dirName, "credentials.json"),
			"settle":  "100ms",
		},
		"cache": map[string]any{
			"driver":    "memory",
			"ttl":       "30s",
			"redis_url": "redis://localhost:6379/0",
		},
		"log": map[string]any{
			"level": "info",
			"file":  filepath.Join("~", dirName, "wishlist.log"),
		},
		"ui": map[string]any{
			"theme": "classic",
		},
	}
}

// env var -> config key, applied after the files.
var envKeys = map[string]string{
	"WISHLIST_API_URL":       "api.url",
	"WISHLIST_TIMEOUT":       "api.timeout",
	"WISHLIST_TOKEN_BACKEND": "auth.backend",
	"WISHLIST_TOKEN_FILE":    "auth.file",
	"WISHLIST_CACHE_DRIVER":  "cache.driver",
	"WISHLIST_CACHE_TTL":     "cache.ttl",
	"WISHLIST_REDIS_URL":     "cache.redis_url",
	"WISHLIST_LOG_LEVEL":     "log.level",
	"WISHLIST_LOG_FILE":      "log.file",
	"WISHLIST_THEME":         "ui.theme",
}

// Dir is the per-user state directory (~/.wishlist).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath is ~/.wishlist/config.yml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load merges defaults, the config file and its .local sibling, a .env file in the
// working directory and WISHLIST_* env vars, in that order. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	c := config.New("wishlist")
	c.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})
	c.AddDriver(yaml.Driver)

	if err := c.LoadData(defaults()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := c.LoadExists(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	local := strings.TrimSuffix(path, filepath.Ext(path)) + ".local" + filepath.Ext(path)
	if err := c.LoadExists(local); err != nil {
		return nil, fmt.Errorf("load %s: %w", local, err)
	}
	for env, key := range envKeys {
		if v, ok := os.LookupEnv(env); ok && strings.TrimSpace(v) != "" {
			if err := c.Set(key, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("set %s from %s: %w", key, env, err)
			}
		}
	}

	var cfg Config
	if err := c.BindStruct("", &cfg); err != nil {
		return nil, fmt.Errorf("bind config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("config: api.url is empty")
	}
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	for name, v := range map[string]string{
		"api.timeout": c.API.Timeout,
		"auth.settle": c.Auth.Settle,
		"cache.ttl":   c.Cache.TTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	switch c.Auth.Backend {
	case "file", "keyring":
	default:
		return fmt.Errorf("config: auth.backend must be file or keyring, got %q", c.Auth.Backend)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("config: cache.driver must be memory, redis or none, got %q", c.Cache.Driver)
	}
	return nil
}

func (c *Config) Timeout() time.Duration { return mustDuration(c.API.Timeout) }

func (c *Config) SettleDelay() time.Duration { return mustDuration(c.Auth.Settle) }

func (c *Config) CacheTTL() time.Duration { return mustDuration(c.Cache.TTL) }

// TokenFile is auth.file with a leading ~ expanded.
func (c *Config) TokenFile() (string, error) { return ExpandHome(c.Auth.File) }

// LogFile is log.file with a leading ~ expanded; empty means stderr.
func (c *Config) LogFile() (string, error) { return ExpandHome(c.Log.File) }

func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// durations are checked in Validate
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
