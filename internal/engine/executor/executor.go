// Package executor applies sanctions to actors. Best effort: API
// failures (hierarchy, already left) are reported back for logging but
// never retried.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/clock"
	"discord-sentinel-bot/internal/models"
)

const (
	// MaxTimeout is the platform's maximum communication-disabled span.
	MaxTimeout = 28 * 24 * time.Hour

	// CallTimeout bounds each sanction REST call.
	CallTimeout = 5 * time.Second
)

// API is the slice of the discordgo session the executor needs. The
// session satisfies it directly; tests fake it.
type API interface {
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildMemberEdit(guildID, userID string, data *discordgo.GuildMemberParams, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
}

// Executor carries out one of the fixed sanction kinds.
type Executor struct {
	api   API
	clock clock.Clock
	log   *zap.Logger
}

// New creates an executor over the given API.
func New(api API, c clock.Clock, log *zap.Logger) *Executor {
	return &Executor{api: api, clock: c, log: log}
}

// Punish applies the given sanction kind. Exemption checks (owner,
// self, whitelist, dedup guard) are the caller's responsibility.
func (e *Executor) Punish(ctx context.Context, guildID, actorID, kind, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	opt := discordgo.WithContext(ctx)

	var err error
	switch kind {
	case models.PunishmentBan:
		// No retroactive message purge.
		err = e.api.GuildBanCreateWithReason(guildID, actorID, reason, 0, opt)

	case models.PunishmentKick:
		err = e.api.GuildMemberDeleteWithReason(guildID, actorID, reason, opt)

	case models.PunishmentStripRoles:
		// Atomic replace with the empty set; incremental removal can
		// leave a partially privileged member on mid-loop failure.
		empty := []string{}
		_, err = e.api.GuildMemberEdit(guildID, actorID, &discordgo.GuildMemberParams{Roles: &empty}, opt)

	case models.PunishmentTimeout:
		until := e.clock.Now().Add(MaxTimeout)
		err = e.api.GuildMemberTimeout(guildID, actorID, &until, opt)

	default:
		return fmt.Errorf("executor: unknown punishment kind %q", kind)
	}

	if err != nil {
		e.log.Warn("punishment failed",
			zap.String("guild_id", guildID),
			zap.String("actor_id", actorID),
			zap.String("punishment", kind),
			zap.Error(err))
		return err
	}

	e.log.Info("punishment applied",
		zap.String("guild_id", guildID),
		zap.String("actor_id", actorID),
		zap.String("punishment", kind),
		zap.String("reason", reason))
	return nil
}
