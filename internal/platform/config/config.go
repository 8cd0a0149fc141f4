package config

import (
	"time"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	TTS    TTSConfig    `yaml:"tts"`
	LLM    LLMConfig    `yaml:"llm"`
	Cache  CacheConfig  `yaml:"cache"`
	Web    WebConfig    `yaml:"web"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// TTSConfig carries synthesis defaults and the limits applied to every
// generation batch.
type TTSConfig struct {
	Voice            string        `yaml:"voice"`
	Rate             string        `yaml:"rate"`
	Pitch            string        `yaml:"pitch"`
	Volume           string        `yaml:"volume"`
	OutputDir        string        `yaml:"output_dir"`
	Concurrency      int           `yaml:"concurrency"`
	MaxSegmentLength int           `yaml:"max_segment_length"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`
	Proxy            string        `yaml:"proxy"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type CacheConfig struct {
	Type   string           `yaml:"type"` // memory | redis | sqlite
	Redis  RedisCacheStore  `yaml:"redis"`
	SQLite SQLiteCacheStore `yaml:"sqlite"`
}

type RedisCacheStore struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteCacheStore struct {
	DSN string `yaml:"dsn"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
	BaseURL   string `yaml:"base_url"`
}
