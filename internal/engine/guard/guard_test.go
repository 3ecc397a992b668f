package guard

import (
	"testing"
	"time"

	"discord-sentinel-bot/internal/clock"
)

func TestMarkAndRecently(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	g := New(clk)

	if g.Recently("g1", "u1") {
		t.Error("unmarked actor reported as recently punished")
	}

	g.Mark("g1", "u1")
	if !g.Recently("g1", "u1") {
		t.Error("marked actor not reported as recently punished")
	}
	if g.Recently("g1", "u2") {
		t.Error("different actor sharing suppression")
	}
	if g.Recently("g2", "u1") {
		t.Error("different guild sharing suppression")
	}
}

func TestSuppressionExpires(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	g := New(clk)

	g.Mark("g1", "u1")
	clk.Advance(TTL + time.Second)

	if g.Recently("g1", "u1") {
		t.Error("suppression still active after TTL")
	}
	if g.Len() != 0 {
		t.Errorf("expired entry not evicted on read, Len = %d", g.Len())
	}
}

func TestRemarkRefreshes(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	g := New(clk)

	g.Mark("g1", "u1")
	clk.Advance(TTL - time.Second)
	g.Mark("g1", "u1")
	clk.Advance(2 * time.Second)

	if !g.Recently("g1", "u1") {
		t.Error("re-mark did not refresh the suppression deadline")
	}
}

func TestSweepKeepsFreshEntries(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	g := New(clk)

	g.Mark("g1", "stale")
	clk.Advance(TTL / 2)
	g.Mark("g1", "fresh")
	clk.Advance(TTL/2 + time.Second)

	if removed := g.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if !g.Recently("g1", "fresh") {
		t.Error("sweep evicted a live entry")
	}
}
