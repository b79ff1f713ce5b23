// Package config loads waypoint settings from ~/.waypoint/config.yaml and
// WAYPOINT_* environment overrides. LLM settings live in the llm package.
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

	"gopkg.in/yaml.v3"
)

// Dir is the per-user directory holding the database and config file.
const Dir = ".waypoint"

// Generation backends.
const (
	BackendLLM  = "llm"
	BackendHTTP = "http"
)

// GenerationConfig selects and tunes the text-generation backend.
type GenerationConfig struct {
	Backend   string `yaml:"backend"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Attempts  int    `yaml:"attempts"`
}

// RedisConfig enables the hot plan cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds,omitempty"`
}

// ServerConfig tunes `waypoint serve`.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	JWTSecret      string   `yaml:"jwt_secret,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Config is the merged runtime configuration.
type Config struct {
	DBPath      string           `yaml:"db"`
	Owner       string           `yaml:"owner"`
	LogUseCases bool             `yaml:"log_use_cases"`
	Generation  GenerationConfig `yaml:"generation"`
	Redis       RedisConfig      `yaml:"redis,omitempty"`
	Server      ServerConfig     `yaml:"server"`
}

// Default returns the configuration used when no file or env is present.
// home is the user's home directory.
func Default(home string) Config {
	return Config{
		DBPath: filepath.Join(home, Dir, "waypoint.db"),
		Owner:  "local",
		Generation: GenerationConfig{
			Backend:   BackendLLM,
			TimeoutMs: 180000,
			Attempts:  1,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// DefaultPath returns ~/.waypoint/config.yaml.
func DefaultPath(home string) string {
	return filepath.Join(home, Dir, "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path (a
// missing file is not an error) and the process environment.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("finding home directory: %w", err)
	}
	return LoadWith(home, path, os.Getenv)
}

// LoadWith is Load with the home directory and env lookup injected.
func LoadWith(home, path string, getenv func(string) string) (Config, error) {
	cfg := Default(home)
	if path == "" {
		path = DefaultPath(home)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", name, v)
		}
		*dst = n
		return nil
	}

	setString("WAYPOINT_DB", &cfg.DBPath)
	setString("WAYPOINT_OWNER", &cfg.Owner)
	setString("WAYPOINT_GENERATION_BACKEND", &cfg.Generation.Backend)
	setString("WAYPOINT_GENERATION_ENDPOINT", &cfg.Generation.Endpoint)
	setString("WAYPOINT_GENERATION_API_KEY", &cfg.Generation.APIKey)
	setString("WAYPOINT_REDIS_ADDR", &cfg.Redis.Addr)
	setString("WAYPOINT_HTTP_ADDR", &cfg.Server.Addr)
	setString("WAYPOINT_JWT_SECRET", &cfg.Server.JWTSecret)
	if v := strings.TrimSpace(getenv("WAYPOINT_ALLOWED_ORIGINS")); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(getenv("WAYPOINT_LOG_USE_CASES")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WAYPOINT_LOG_USE_CASES: %q is not a boolean", v)
		}
		cfg.LogUseCases = b
	}
	if err := setInt("WAYPOINT_GENERATION_TIMEOUT_MS", &cfg.Generation.TimeoutMs); err != nil {
		return err
	}
	if err := setInt("WAYPOINT_GENERATION_ATTEMPTS", &cfg.Generation.Attempts); err != nil {
		return err
	}
	return setInt("WAYPOINT_REDIS_TTL_SECONDS", &cfg.Redis.TTLSeconds)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("config: db path is required")
	}
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("config: owner is required")
	}
	switch c.Generation.Backend {
	case BackendLLM:
	case BackendHTTP:
		if c.Generation.Endpoint == "" {
			return fmt.Errorf("config: generation.endpoint is required for the http backend")
		}
	default:
		return fmt.Errorf("config: unknown generation backend %q (use %s or %s)", c.Generation.Backend, BackendLLM, BackendHTTP)
	}
	if c.Generation.TimeoutMs <= 0 {
		return fmt.Errorf("config: generation.timeout_ms must be positive")
	}
	if c.Generation.Attempts < 1 {
		return fmt.Errorf("config: generation.attempts must be at least 1")
	}
	if c.Redis.TTLSeconds < 0 {
		return fmt.Errorf("config: redis.ttl_seconds must not be negative")
	}
	return nil
}

// GenerationTimeout returns the per-attempt generation timeout.
func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutMs) * time.Millisecond
}

// RedisTTL returns the hot-cache TTL, zero meaning the cache default.
func (c Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// Write saves cfg as YAML at path, creating the directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
