package cache

import (
	"context"
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
)

// record is the gorm model backing the sqlite store.
type record struct {
	Key         string `gorm:"primaryKey;column:cache_key"`
	AudioURL    string `gorm:"column:audio_url"`
	SubtitleURL string `gorm:"column:subtitle_url"`
}

func (record) TableName() string {
	return "audio_cache"
}

// SQLite persists entries across restarts for single-node installs.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(cfg config.SQLiteCacheStore) (*SQLite, error) {
	const op = "sqlite cache open"

	dsn := cfg.DSN
	if dsn == "" {
		dsn = "easyvoice.db"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindCache, op, "open database", err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindCache, op, "migrate schema", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (Entry, bool, error) {
	const op = "sqlite cache get"

	var rec record
	err := s.db.WithContext(ctx).First(&rec, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, platformerrors.Wrap(platformerrors.KindCache, op, "query entry", err)
	}
	return Entry{AudioURL: rec.AudioURL, SubtitleURL: rec.SubtitleURL}, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, entry Entry) error {
	const op = "sqlite cache set"

	rec := record{Key: key, AudioURL: entry.AudioURL, SubtitleURL: entry.SubtitleURL}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindCache, op, "save entry", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
