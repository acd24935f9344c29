// Package memo shares finished translations between views through Redis.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"ResultViewer/internal/i18n"
	"ResultViewer/internal/ports"
)

const keyPrefix = "translation:"

// Store is the subset of the Redis client the memo needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Translator decorates another translator with a Redis lookup. Redis problems
// are logged and the call goes straight to the wrapped translator.
type Translator struct {
	next   ports.Translator
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.Translator = (*Translator)(nil)

// NewTranslator wraps next. A nil store disables memoisation; ttl <= 0 keeps
// entries until Redis evicts them.
func NewTranslator(next ports.Translator, store Store, ttl time.Duration, logger *slog.Logger) *Translator {
	if ttl < 0 {
		ttl = 0
	}
	return &Translator{next: next, store: store, ttl: ttl, logger: logger}
}

// Connect dials Redis and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Key derives the Redis key for a text/language pair.
func Key(text, lang string) string {
	sum := sha256.Sum256([]byte(i18n.Normalize(lang) + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Translate returns a memoised translation or delegates and stores the result.
func (t *Translator) Translate(ctx context.Context, text, lang string) (string, error) {
	if t.store == nil {
		return t.next.Translate(ctx, text, lang)
	}

	key := Key(text, lang)
	cached, err := t.store.Get(ctx, key).Result()
	switch {
	case err == nil && cached != "":
		t.debug("translation memo hit", "language", lang)
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		t.warn("translation memo lookup failed", "language", lang, "error", err)
	}

	translated, err := t.next.Translate(ctx, text, lang)
	if err != nil {
		return "", err
	}

	if err := t.store.Set(ctx, key, translated, t.ttl).Err(); err != nil {
		t.warn("translation memo store failed", "language", lang, "error", err)
	}
	return translated, nil
}

func (t *Translator) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}

func (t *Translator) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
