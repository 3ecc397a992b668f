// Package tracker counts per-actor actions inside a fixed window and
// reports when a configured threshold is crossed.
package tracker

import (
	"sync"
	"time"

	"discord-sentinel-bot/internal/clock"
)

// Window is the fixed accumulation span for all per-event-count rules.
const Window = 10 * time.Second

type counter struct {
	count   int
	resetAt time.Time
}

// Tracker holds in-memory counters keyed by (guild, actor, action kind).
// Counters are transient: a restart clears all abuse history.
type Tracker struct {
	mu       sync.Mutex
	clock    clock.Clock
	window   time.Duration
	counters map[string]*counter
}

// New creates a tracker using the given clock.
func New(c clock.Clock) *Tracker {
	return &Tracker{
		clock:    c,
		window:   Window,
		counters: make(map[string]*counter),
	}
}

// Observe records one qualifying action and reports whether the actor
// crossed the threshold on this call. Not idempotent: callers must
// invoke it at most once per logical event.
func (t *Tracker) Observe(guildID, actorID, kind string, threshold int) bool {
	crossed, _ := t.ObserveCount(guildID, actorID, kind, threshold)
	return crossed
}

// ObserveCount is Observe returning the post-increment count as well,
// used by alerts to show "N/limit".
func (t *Tracker) ObserveCount(guildID, actorID, kind string, threshold int) (bool, int) {
	key := guildID + ":" + actorID + ":" + kind
	now := t.clock.Now()

	t.mu.Lock()
	c, ok := t.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &counter{count: 1, resetAt: now.Add(t.window)}
		t.counters[key] = c
	} else {
		c.count++
	}
	count := c.count
	t.mu.Unlock()

	return count >= threshold, count
}

// Sweep drops counters whose window has passed. Eviction is advisory;
// an expired counter left in place is reset on next Observe anyway.
func (t *Tracker) Sweep() int {
	now := t.clock.Now()
	removed := 0

	t.mu.Lock()
	for key, c := range t.counters {
		if now.After(c.resetAt) {
			delete(t.counters, key)
			removed++
		}
	}
	t.mu.Unlock()

	return removed
}

// Len returns the number of live counters.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.counters)
}
