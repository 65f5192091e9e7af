// Package config loads emberly settings from a YAML or JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file.
const (
	EnvAPIBaseURL  = "EMBERLY_API_BASE_URL"
	EnvUseAPIProxy = "EMBERLY_USE_API_PROXY"
	EnvLogLevel    = "EMBERLY_LOG_LEVEL"
	EnvRedisAddr   = "EMBERLY_REDIS_ADDR"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "emberly.yaml"

// Config is the full settings tree.
type Config struct {
	API          APIConfig          `mapstructure:"api" yaml:"api" json:"api"`
	Proxy        ProxyConfig        `mapstructure:"proxy" yaml:"proxy" json:"proxy"`
	Conversation ConversationConfig `mapstructure:"conversation" yaml:"conversation" json:"conversation"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging" json:"logging"`
}

type APIConfig struct {
	// BaseURL is the upstream conversation API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	// UseProxy routes clients through the local proxy. false is the kill switch:
	// clients go direct and serve does not mount the proxy routes.
	UseProxy bool `mapstructure:"use_proxy" yaml:"use_proxy" json:"use_proxy"`
}

type ProxyConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	PublicURL       string        `mapstructure:"public_url" yaml:"public_url" json:"public_url"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout" yaml:"upstream_timeout" json:"upstream_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`
}

type ConversationConfig struct {
	Locale string `mapstructure:"locale" yaml:"locale" json:"locale"`
	// ResponseTimeout bounds a pending request. Zero disables it.
	ResponseTimeout time.Duration `mapstructure:"response_timeout" yaml:"response_timeout" json:"response_timeout"`
}

type TelemetryConfig struct {
	// Log writes accepted events to the logger.
	Log   bool        `mapstructure:"log" yaml:"log" json:"log"`
	Redis RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`
}

// RedisConfig enables the stream publisher when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Stream   string `mapstructure:"stream" yaml:"stream" json:"stream"`
	MaxLen   int64  `mapstructure:"max_len" yaml:"max_len" json:"max_len"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// Default returns the settings used for anything a file leaves out.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:  "https://api.helloemberly.com",
			UseProxy: true,
		},
		Proxy: ProxyConfig{
			Addr:            ":8080",
			PublicURL:       "http://localhost:8080/api",
			UpstreamTimeout: 15 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		Conversation: ConversationConfig{
			Locale: "en-US",
		},
		Telemetry: TelemetryConfig{
			Log: true,
			Redis: RedisConfig{
				Stream: "emberly:telemetry",
				MaxLen: 10000,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (YAML unless it ends in .json) over the defaults, then applies
// environment overrides. A missing file is not an error. Unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvUseAPIProxy); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUseAPIProxy, err)
		}
		cfg.API.UseProxy = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Telemetry.Redis.Addr = v
	}
	return nil
}

// ClientBaseURL is where conversation clients send requests: the local proxy
// while it is enabled, the upstream API otherwise.
func (c Config) ClientBaseURL() string {
	if c.API.UseProxy {
		return c.Proxy.PublicURL
	}
	return c.API.BaseURL
}
