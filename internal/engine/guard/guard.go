// Package guard deduplicates punishment attempts: one abusive burst
// fires many threshold-crossing events, but the executor should act once.
package guard

import (
	"sync"
	"time"

	"discord-sentinel-bot/internal/clock"
)

// TTL is the suppression span after a sanction is initiated.
const TTL = 15 * time.Second

// Guard is a short-TTL set of recently punished (guild, actor) pairs.
type Guard struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]time.Time // key -> suppression deadline
}

// New creates a guard using the given clock.
func New(c clock.Clock) *Guard {
	return &Guard{
		clock:   c,
		ttl:     TTL,
		entries: make(map[string]time.Time),
	}
}

// Recently reports whether the actor was sanctioned within the TTL.
func (g *Guard) Recently(guildID, actorID string) bool {
	key := guildID + ":" + actorID

	g.mu.Lock()
	deadline, ok := g.entries[key]
	if ok && g.clock.Now().After(deadline) {
		delete(g.entries, key)
		ok = false
	}
	g.mu.Unlock()

	return ok
}

// Mark records a sanction. Called immediately after initiating (not
// completing) the punishment, closing the detect/act race.
func (g *Guard) Mark(guildID, actorID string) {
	key := guildID + ":" + actorID
	deadline := g.clock.Now().Add(g.ttl)

	g.mu.Lock()
	g.entries[key] = deadline
	g.mu.Unlock()
}

// Sweep removes expired entries. A sweep racing a re-Mark compares the
// stored deadline so a refreshed entry is never deleted.
func (g *Guard) Sweep() int {
	now := g.clock.Now()
	removed := 0

	g.mu.Lock()
	for key, deadline := range g.entries {
		if now.After(deadline) {
			delete(g.entries, key)
			removed++
		}
	}
	g.mu.Unlock()

	return removed
}

// Len returns the number of live entries.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
