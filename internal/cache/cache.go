// Package cache keeps the last known token holdings per account and chain.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/swapdesk/internal/backend"
)

// DefaultStaleness is how long holdings are served without refetching.
const DefaultStaleness = 5 * time.Minute

// HoldingsCache stores token holdings keyed by chain and address.
type HoldingsCache struct {
	mu      sync.RWMutex             `json:"-"`
	Entries map[string]HoldingsEntry `json:"entries"`
}

// HoldingsEntry is one cached portfolio snapshot.
type HoldingsEntry struct {
	Chain     string          `json:"chain"`
	Address   string          `json:"address"`
	Tokens    []backend.Token `json:"tokens"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New creates an empty cache.
func New() *HoldingsCache {
	return &HoldingsCache{Entries: make(map[string]HoldingsEntry)}
}

// Key returns the entry key for chain and address. Addresses compare
// case-insensitively.
func Key(chain, address string) string {
	return chain + ":" + strings.ToLower(address)
}

// Get returns the entry, whether it exists, and its age.
func (c *HoldingsCache) Get(chain, address string) (*HoldingsEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(chain, address)]
	if !ok {
		return nil, false, 0
	}
	return &entry, true, time.Since(entry.UpdatedAt)
}

// Set stores entry stamped with the current time.
func (c *HoldingsCache) Set(entry HoldingsEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = time.Now()
	c.Entries[Key(entry.Chain, entry.Address)] = entry
}

// IsStale reports whether the entry is missing or older than staleness.
func (c *HoldingsCache) IsStale(chain, address string, staleness time.Duration) bool {
	_, ok, age := c.Get(chain, address)
	return !ok || age > staleness
}

// Delete removes an entry.
func (c *HoldingsCache) Delete(chain, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Entries, Key(chain, address))
}

// Size returns the number of entries.
func (c *HoldingsCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many went.
func (c *HoldingsCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
