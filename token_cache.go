package main

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

const (
	defaultTokenCacheSize   = 1000            // Cache up to 1000 tokens
	defaultTokenCacheExpiry = 5 * time.Minute // Re-check a token against the store after 5 minutes
)

type tokenEntry struct {
	userID int
	expiry time.Time
}

// tokenCache remembers which user a bearer token resolved to, so authenticated
// requests don't hit the users table every time.
type tokenCache struct {
	lru        *simplelru.LRU
	mu         sync.Mutex
	expiration time.Duration
	now        func() time.Time
}

func newTokenCache(size int, expiration time.Duration) (*tokenCache, error) {
	lru, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, err
	}
	return &tokenCache{lru: lru, expiration: expiration, now: time.Now}, nil
}

func (c *tokenCache) get(token string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(token)
	if !ok {
		return 0, false
	}
	entry := e.(tokenEntry)
	if c.now().After(entry.expiry) {
		c.lru.Remove(token)
		return 0, false
	}
	return entry.userID, true
}

func (c *tokenCache) set(token string, userID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.lru.Add(token, tokenEntry{userID: userID, expiry: c.now().Add(c.expiration)})
}
