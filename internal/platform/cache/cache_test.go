package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	now := time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC)
	m := newMemoryCache(func() time.Time { return now })
	ctx := context.Background()

	if _, err := m.Get(ctx, "doctor:1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := m.Set(ctx, "doctor:1", []byte(`{"id":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, "doctor:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"id":1}` {
		t.Errorf("unexpected value %s", got)
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "doctor:1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after ttl, got %v", err)
	}

	m.removeExpired()
	if len(m.data) != 0 {
		t.Errorf("expected expired entry swept, have %d", len(m.data))
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	m := newMemoryCache(time.Now)
	ctx := context.Background()
	v := []byte("abc")
	_ = m.Set(ctx, "k", v, time.Minute)
	v[0] = 'z'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("expected stored copy, got %s", got)
	}
}

func TestMemoryCache_DeleteAndClose(t *testing.T) {
	m := NewMemoryCache()
	ctx := context.Background()
	_ = m.Set(ctx, "k", []byte("v"), time.Minute)
	_ = m.Delete(ctx, "k")
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss after delete, got %v", err)
	}
	if err := m.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	_ = m.Close()
	_ = m.Close()
}

func TestRedisCache_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	r, err := NewRedisCache(ctx, url, "telehealth-test:")
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer r.Close()

	if err := r.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := r.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get: %q %v", got, err)
	}
	_ = r.Delete(ctx, "k")
	if _, err := r.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected miss, got %v", err)
	}
}

func TestNewRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url", ""); err == nil {
		t.Fatal("expected parse error")
	}
}
