package cache

import (
	"fmt"

	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// New builds the Store selected by configuration. Unknown types are a config
// error rather than a silent fallback.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.Redis), nil
	case "sqlite":
		return NewSQLite(cfg.SQLite)
	default:
		return nil, platformerrors.New(platformerrors.KindConfig, "cache factory",
			fmt.Sprintf("unknown cache type %q", cfg.Type))
	}
}
