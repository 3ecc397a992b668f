package msgcache

import (
	"testing"
	"time"

	"discord-sentinel-bot/internal/clock"
)

func TestTakeHit(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := New(clk)

	c.Put(&Entry{
		MessageID: "m1",
		GuildID:   "g1",
		AuthorID:  "u1",
		Mentions:  []string{"alice", "bob"},
	})

	clk.Advance(TTL / 2)
	e, ok := c.Take("m1")
	if !ok {
		t.Fatal("expected hit inside TTL")
	}
	if e.AuthorID != "u1" || len(e.Mentions) != 2 {
		t.Errorf("entry corrupted: %+v", e)
	}
}

func TestTakeEvictsOnRead(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := New(clk)

	c.Put(&Entry{MessageID: "m1"})
	if _, ok := c.Take("m1"); !ok {
		t.Fatal("first take should hit")
	}
	if _, ok := c.Take("m1"); ok {
		t.Error("second take should miss, entries are consumed once")
	}
}

func TestTakeExpired(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := New(clk)

	c.Put(&Entry{MessageID: "m1"})
	clk.Advance(TTL + time.Second)

	if _, ok := c.Take("m1"); ok {
		t.Error("expired entry reported as hit")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, Len = %d", c.Len())
	}
}

func TestTakeUnknown(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := New(clk)

	if _, ok := c.Take("never-cached"); ok {
		t.Error("unknown message reported as hit")
	}
}

func TestSweep(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	c := New(clk)

	c.Put(&Entry{MessageID: "old"})
	clk.Advance(TTL / 2)
	c.Put(&Entry{MessageID: "new"})
	clk.Advance(TTL/2 + time.Second)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok := c.Take("new"); !ok {
		t.Error("sweep evicted a live entry")
	}
}
