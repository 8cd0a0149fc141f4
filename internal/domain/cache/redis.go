package cache

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// Redis stores entries as JSON under a configurable key prefix. No TTL is
// applied; eviction is left to the redis deployment.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(cfg config.RedisCacheStore) *Redis {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "easyvoice:"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	}
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	const op = "redis cache get"

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, platformerrors.Wrap(platformerrors.KindCache, op, "redis get", err)
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, platformerrors.Wrap(platformerrors.KindCache, op, "decode entry", err)
	}
	return entry, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, entry Entry) error {
	const op = "redis cache set"

	data, err := sonic.Marshal(entry)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindCache, op, "encode entry", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return platformerrors.Wrap(platformerrors.KindCache, op, "redis set", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
