package memo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

type mapStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttl     time.Duration
	failGet bool
	failSet bool
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]string{}}
}

func (m *mapStore) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return redis.NewStringResult("", errors.New("connection reset"))
	}
	val, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *mapStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return redis.NewStatusResult("", errors.New("read only replica"))
	}
	m.data[key] = value.(string)
	m.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingTranslator struct {
	calls int
	err   error
}

func (c *countingTranslator) Translate(_ context.Context, text, lang string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return lang + ":" + text, nil
}

func TestTranslatorMemoisesAcrossCalls(t *testing.T) {
	t.Parallel()

	next := &countingTranslator{}
	store := newMapStore()
	tr := NewTranslator(next, store, time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := tr.Translate(context.Background(), "hello", "fr")
		if err != nil {
			t.Fatalf("Translate error: %v", err)
		}
		if got != "fr:hello" {
			t.Fatalf("unexpected translation %q", got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one backend call, got %d", next.calls)
	}
	if store.ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", store.ttl)
	}
}

func TestTranslatorDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	next := &countingTranslator{err: errors.New("backend down")}
	store := newMapStore()
	tr := NewTranslator(next, store, 0, nil)

	if _, err := tr.Translate(context.Background(), "hello", "de"); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.data) != 0 {
		t.Fatalf("failure must not be stored")
	}
}

func TestTranslatorDegradesWhenRedisFails(t *testing.T) {
	t.Parallel()

	next := &countingTranslator{}
	store := newMapStore()
	store.failGet = true
	store.failSet = true
	tr := NewTranslator(next, store, 0, nil)

	got, err := tr.Translate(context.Background(), "hello", "es")
	if err != nil || got != "es:hello" {
		t.Fatalf("expected direct translation, got %q, %v", got, err)
	}
}

func TestTranslatorWithoutStore(t *testing.T) {
	t.Parallel()

	next := &countingTranslator{}
	tr := NewTranslator(next, nil, 0, nil)
	_, _ = tr.Translate(context.Background(), "a", "fr")
	_, _ = tr.Translate(context.Background(), "a", "fr")
	if next.calls != 2 {
		t.Fatalf("expected pass-through, got %d calls", next.calls)
	}
}

func TestKeyIsLanguageCanonical(t *testing.T) {
	t.Parallel()

	if Key("text", "fr-FR") != Key("text", "fr") {
		t.Fatalf("expected canonical language in key")
	}
	if Key("text", "fr") == Key("text", "de") {
		t.Fatalf("languages must not collide")
	}
}
