package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// Loader reads configuration from an optional yaml file with environment
// variable overrides layered on top.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path. An empty path
// falls back to "config.yaml".
func NewLoader(path string) *Loader {
	if path == "" {
		path = "config.yaml"
	}
	return &Loader{path: path, useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration: defaults, then the yaml file if it
// exists, then environment overrides. A missing file is not an error.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Best effort; absence of a .env file is normal.
		_ = godotenv.Load()
	}

	cfg := Default()
	path := ""

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config load",
				fmt.Sprintf("parse %s", l.path), err)
		}
		path = l.path
	case os.IsNotExist(err):
		// defaults + env only
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "config load",
			fmt.Sprintf("read %s", l.path), err)
	}

	applyEnv(cfg)

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("AUDIO_DIR"); v != "" {
		cfg.TTS.OutputDir = v
	}
	if v := os.Getenv("EDGE_API_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			cfg.TTS.Concurrency = limit
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.TTS.Proxy == "" {
		cfg.TTS.Proxy = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
}
