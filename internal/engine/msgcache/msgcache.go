// Package msgcache keeps recently created mention-bearing messages so a
// prompt deletion can be correlated into a ghost-ping finding.
package msgcache

import (
	"sync"
	"time"

	"discord-sentinel-bot/internal/clock"
)

// TTL is how long a cached message stays correlatable after creation.
const TTL = 30 * time.Second

// Entry is a cached mention-bearing message.
type Entry struct {
	MessageID string
	GuildID   string
	ChannelID string
	AuthorID  string
	AuthorTag string
	Content   string
	Mentions  []string // display names of mentioned users/roles
	cachedAt  time.Time
}

// Cache holds entries keyed by message ID. Entries are consulted at
// most once, on deletion, then evicted regardless of expiry.
type Cache struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]*Entry
}

// New creates a cache using the given clock.
func New(c clock.Clock) *Cache {
	return &Cache{
		clock:   c,
		ttl:     TTL,
		entries: make(map[string]*Entry),
	}
}

// Put caches a message. Only messages with at least one mention belong
// here; the caller filters.
func (c *Cache) Put(e *Entry) {
	e.cachedAt = c.clock.Now()

	c.mu.Lock()
	c.entries[e.MessageID] = e
	c.mu.Unlock()
}

// Take looks up a message by ID and evicts it. A hit within the TTL is
// a ghost-ping finding; an expired entry is evicted and reported as a
// miss.
func (c *Cache) Take(messageID string) (*Entry, bool) {
	c.mu.Lock()
	e, ok := c.entries[messageID]
	if ok {
		delete(c.entries, messageID)
	}
	c.mu.Unlock()

	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.cachedAt) > c.ttl {
		return nil, false
	}
	return e, true
}

// Sweep evicts expired entries so messages that are never deleted do
// not accumulate.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	removed := 0

	c.mu.Lock()
	for id, e := range c.entries {
		if now.Sub(e.cachedAt) > c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
