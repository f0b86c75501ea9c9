package main

import (
	"testing"
	"time"
)

func TestTokenCache_GetSet(t *testing.T) {
	c, err := newTokenCache(2, time.Minute)
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}

	if _, ok := c.get("a"); ok {
		t.Error("expected miss on empty cache")
	}

	c.set("a", 1)
	if id, ok := c.get("a"); !ok || id != 1 {
		t.Errorf("expected user 1, got %d (hit=%v)", id, ok)
	}
}

func TestTokenCache_Expiry(t *testing.T) {
	c, err := newTokenCache(2, time.Minute)
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("a", 1)
	now = now.Add(30 * time.Second)
	if _, ok := c.get("a"); !ok {
		t.Error("expected hit before expiry")
	}

	now = now.Add(time.Minute)
	if _, ok := c.get("a"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestTokenCache_Eviction(t *testing.T) {
	c, err := newTokenCache(2, time.Minute)
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}

	c.set("a", 1)
	c.set("b", 2)
	c.get("a") // a is now most recently used
	c.set("c", 3)

	if _, ok := c.get("b"); ok {
		t.Error("expected least recently used token to be evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("expected recently used token to survive")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("expected newest token to be cached")
	}
}

func TestNewTokenCache_InvalidSize(t *testing.T) {
	if _, err := newTokenCache(0, time.Minute); err == nil {
		t.Error("expected an error for a zero-sized cache")
	}
}
