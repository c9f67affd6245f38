package store

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// leaderboardCacheSize bounds how many distinct limit values get their
// own cached result; SCOREBOARD requests overwhelmingly ask for the
// same handful of limits (10, 25, 50), so a small cache absorbs nearly
// all repeat traffic.
const leaderboardCacheSize = 8

// leaderboardTTL is how long a cached Leaderboard result is served
// before the next request forces a fresh query.
const leaderboardTTL = 5 * time.Second

type leaderboardCacheEntry struct {
	entries  []LeaderboardEntry
	cachedAt time.Time
}

// CachingStore wraps a Store and memoizes Leaderboard reads for a
// short TTL. SCOREBOARD is a hot, read-mostly path (spec.md §6); this
// trades a few seconds of staleness for avoiding a full table scan on
// every request.
type CachingStore struct {
	Store
	mu    sync.Mutex
	cache *lru.Cache[int, leaderboardCacheEntry]
	now   func() time.Time
}

// NewCachingStore wraps inner with an in-memory leaderboard cache.
func NewCachingStore(inner Store) *CachingStore {
	cache, _ := lru.New[int, leaderboardCacheEntry](leaderboardCacheSize)
	return &CachingStore{Store: inner, cache: cache, now: time.Now}
}

func (c *CachingStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	c.mu.Lock()
	if entry, ok := c.cache.Get(limit); ok && c.now().Sub(entry.cachedAt) < leaderboardTTL {
		c.mu.Unlock()
		return entry.entries, nil
	}
	c.mu.Unlock()

	entries, err := c.Store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache.Add(limit, leaderboardCacheEntry{entries: entries, cachedAt: c.now()})
	c.mu.Unlock()
	return entries, nil
}

// AdjustBalance invalidates the cache, since it changes standings.
func (c *CachingStore) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	balance, err := c.Store.AdjustBalance(ctx, userID, delta)
	if err == nil {
		c.mu.Lock()
		c.cache.Purge()
		c.mu.Unlock()
	}
	return balance, err
}
