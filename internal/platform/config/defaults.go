package config

import "time"

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 3000,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "easyvoice.log",
		},
		TTS: TTSConfig{
			Voice:            "zh-CN-XiaoxiaoNeural",
			Rate:             "default",
			Pitch:            "default",
			Volume:           "default",
			OutputDir:        "audio",
			Concurrency:      3,
			MaxSegmentLength: 500,
			ConnectTimeout:   10 * time.Second,
			SynthesisTimeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Cache: CacheConfig{
			Type: "memory",
			Redis: RedisCacheStore{
				Addr:   "127.0.0.1:6379",
				Prefix: "easyvoice:",
			},
			SQLite: SQLiteCacheStore{
				DSN: "easyvoice.db",
			},
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "public",
			BaseURL:   "",
		},
	}
}
