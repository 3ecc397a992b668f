// Package audit attributes guild mutations to the user that performed
// them by scanning the platform audit trail.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/clock"
)

const (
	// RecencyWindow bounds how old an audit entry may be and still be
	// considered the cause of the event being attributed. The trail is
	// eventually consistent; anything older is a different incident.
	RecencyWindow = 8 * time.Second

	// FetchLimit bounds each trail query. A burst writes entries faster
	// than we attribute them, but the newest few are all that matter.
	FetchLimit = 5

	// FetchTimeout bounds the REST round trip so a slow trail never
	// stalls the event path.
	FetchTimeout = 3 * time.Second
)

// ErrNoMatch means the trail had no usable entry: empty, all entries
// stale, or none matching the target. Callers fail open on it.
var ErrNoMatch = errors.New("audit: no matching trail entry")

// Fetcher retrieves recent audit entries for a guild. Implemented by
// the discordgo session; faked in tests.
type Fetcher interface {
	RecentEntries(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) ([]*discordgo.AuditLogEntry, error)
}

// Resolver answers "who did this" for a mutation event.
type Resolver struct {
	fetcher Fetcher
	clock   clock.Clock
	log     *zap.Logger
}

// NewResolver creates a resolver over the given trail fetcher.
func NewResolver(f Fetcher, c clock.Clock, log *zap.Logger) *Resolver {
	return &Resolver{fetcher: f, clock: c, log: log}
}

// Resolve returns the ID of the actor responsible for the most recent
// trail entry of the given action type, scanning newest-first. Entries
// older than RecencyWindow are skipped, as are entries whose target
// does not match targetID when one is supplied. Any failure, including
// an inaccessible trail, yields ErrNoMatch or the transport error; the
// calling rule treats both as "no actor found" and aborts.
func (r *Resolver) Resolve(ctx context.Context, guildID string, action discordgo.AuditLogAction, targetID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	entries, err := r.fetcher.RecentEntries(ctx, guildID, action, FetchLimit)
	if err != nil {
		r.log.Debug("audit trail fetch failed",
			zap.String("guild_id", guildID),
			zap.Int("action", int(action)),
			zap.Error(err))
		return "", err
	}

	cutoff := r.clock.Now().Add(-RecencyWindow)
	for _, entry := range entries {
		ts, err := discordgo.SnowflakeTimestamp(entry.ID)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		if entry.UserID == "" {
			continue
		}
		return entry.UserID, nil
	}

	return "", ErrNoMatch
}

// SessionFetcher adapts a discordgo session to the Fetcher interface.
// The trail endpoint returns entries newest-first already.
type SessionFetcher struct {
	Session *discordgo.Session
}

func (f *SessionFetcher) RecentEntries(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) ([]*discordgo.AuditLogEntry, error) {
	trail, err := f.Session.GuildAuditLog(guildID, "", "", int(action), limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return trail.AuditLogEntries, nil
}
