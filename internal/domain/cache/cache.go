// Package cache is the content-addressed store for finished narration
// batches: at most one retained synthesis per unique parameter set.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Entry points at a fully merged artifact pair. Only complete batches are
// ever stored; a partial batch must miss so a later identical request retries
// its failed segments.
type Entry struct {
	AudioURL    string `json:"audio_url" gorm:"column:audio_url"`
	SubtitleURL string `json:"subtitle_url" gorm:"column:subtitle_url"`
}

// Store is the persistence seam. Get reports (entry, found, error); Set is
// idempotent for repeated identical writes. Implementations are free to evict.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Key derives the stable content address over every parameter that affects
// synthesis output.
func Key(text, voice, rate, pitch, volume string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{text, voice, rate, pitch, volume}, "\x1f")))
	return hex.EncodeToString(sum[:])
}
