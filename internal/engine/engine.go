// Package engine is the real-time abuse detector: it consumes
// normalized gateway events, attributes them to an actor, rate-limits
// per actor and action kind, and sanctions actors that cross the
// configured thresholds.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/clock"
	"discord-sentinel-bot/internal/engine/alerts"
	"discord-sentinel-bot/internal/engine/audit"
	"discord-sentinel-bot/internal/engine/executor"
	"discord-sentinel-bot/internal/engine/guard"
	"discord-sentinel-bot/internal/engine/msgcache"
	"discord-sentinel-bot/internal/engine/tracker"
	"discord-sentinel-bot/internal/metrics"
	"discord-sentinel-bot/internal/models"
)

// PolicyStore supplies per-guild configuration. The engine re-reads it
// on every event; configuration changes take effect without restarts.
type PolicyStore interface {
	GetPolicy(ctx context.Context, guildID string) (*models.GuildPolicy, error)
	IsWhitelisted(ctx context.Context, guildID, actorID string) (bool, error)
}

// Directory resolves platform identity details (guild owner and name,
// user tags) behind the lookup cache.
type Directory interface {
	GuildOwner(ctx context.Context, guildID string) (string, error)
	GuildName(ctx context.Context, guildID string) (string, error)
	UserTag(ctx context.Context, userID string) (string, error)
}

// Moderator performs the non-sanction side effects some rules carry:
// deleting a mass-mention message, removing an unauthorized bot,
// reverting the vanity URL.
type Moderator interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	RemoveMember(ctx context.Context, guildID, userID, reason string) error
	SetVanityCode(ctx context.Context, guildID, code string) error
}

// Defaults are applied when a guild has no stored threshold or
// punishment for an action kind.
type Defaults struct {
	Punishment string
	Thresholds map[string]int
}

const fallbackThreshold = 3

// Deps wires the engine's collaborators.
type Deps struct {
	Store     PolicyStore
	Directory Directory
	Resolver  *audit.Resolver
	Tracker   *tracker.Tracker
	Guard     *guard.Guard
	Messages  *msgcache.Cache
	Executor  *executor.Executor
	Alerts    *alerts.Dispatcher
	Moderator Moderator
	Metrics   *metrics.Registry
	Defaults  Defaults
	Clock     clock.Clock
	Log       *zap.Logger
}

// Engine owns all transient detection state. Construct one per
// process; tests construct isolated instances.
type Engine struct {
	store    PolicyStore
	dir      Directory
	resolver *audit.Resolver
	tracker  *tracker.Tracker
	guard    *guard.Guard
	messages *msgcache.Cache
	executor *executor.Executor
	alerts   *alerts.Dispatcher
	mod      Moderator
	metrics  *metrics.Registry
	defaults Defaults
	clock    clock.Clock
	log      *zap.Logger

	selfID atomic.Value // string, set once the session is ready
}

// New creates an engine.
func New(d Deps) *Engine {
	e := &Engine{
		store:    d.Store,
		dir:      d.Directory,
		resolver: d.Resolver,
		tracker:  d.Tracker,
		guard:    d.Guard,
		messages: d.Messages,
		executor: d.Executor,
		alerts:   d.Alerts,
		mod:      d.Moderator,
		metrics:  d.Metrics,
		defaults: d.Defaults,
		clock:    d.Clock,
		log:      d.Log,
	}
	e.selfID.Store("")
	return e
}

// SetSelfID records the bot's own user ID so it never self-punishes.
func (e *Engine) SetSelfID(id string) {
	e.selfID.Store(id)
}

func (e *Engine) self() string {
	s, _ := e.selfID.Load().(string)
	return s
}

// HandleEvent runs the rule owning the event's action kind. Safe to
// call from concurrent gateway handler goroutines.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) {
	start := e.clock.Now()
	e.metrics.EventsIngested.WithLabelValues(ev.Kind).Inc()

	switch ev.Kind {
	case models.ActionGhostPing:
		e.handleGhostPing(ctx, ev)
	case models.ActionMassMention:
		e.handleMassMention(ctx, ev)
	default:
		e.handleMutation(ctx, ev)
	}

	e.metrics.DetectionSeconds.Observe(e.clock.Now().Sub(start).Seconds())
}

// auditActionFor maps an action kind to the trail action type the
// attribution resolver queries, and whether entries must match the
// event's target. Webhook, invite, and guild updates carry no usable
// target ID on the gateway side.
func auditActionFor(kind string) (discordgo.AuditLogAction, bool) {
	switch kind {
	case models.ActionChannelDelete:
		return discordgo.AuditLogActionChannelDelete, true
	case models.ActionChannelCreate:
		return discordgo.AuditLogActionChannelCreate, true
	case models.ActionRoleDelete:
		return discordgo.AuditLogActionRoleDelete, true
	case models.ActionRoleCreate:
		return discordgo.AuditLogActionRoleCreate, true
	case models.ActionRoleRename, models.ActionDangerousPerms:
		return discordgo.AuditLogActionRoleUpdate, true
	case models.ActionBanMembers:
		return discordgo.AuditLogActionMemberBanAdd, true
	case models.ActionKickMembers:
		return discordgo.AuditLogActionMemberKick, true
	case models.ActionBotAdd:
		return discordgo.AuditLogActionBotAdd, true
	case models.ActionWebhookCreate:
		return discordgo.AuditLogActionWebhookCreate, false
	case models.ActionInviteDelete:
		return discordgo.AuditLogActionInviteDelete, false
	case models.ActionServerRename:
		return discordgo.AuditLogActionGuildUpdate, false
	}
	return 0, false
}

// handleMutation is the uniform rule body for every audit-attributed
// or direct-magnitude mutation rule.
func (e *Engine) handleMutation(ctx context.Context, ev models.Event) {
	pol, err := e.store.GetPolicy(ctx, ev.GuildID)
	if err != nil {
		e.metrics.PolicyErrors.Inc()
		e.log.Warn("policy read failed, skipping event",
			zap.String("guild_id", ev.GuildID),
			zap.String("kind", ev.Kind),
			zap.Error(err))
		return
	}
	if pol == nil || !pol.Enabled {
		return
	}
	if ev.Kind == models.ActionServerRename && ev.PriorValue != "" && !pol.VanityGuard {
		return
	}

	actor := ev.ActorID
	if actor == e.self() && actor != "" {
		return
	}
	if actor == "" {
		action, matchTarget := auditActionFor(ev.Kind)
		target := ""
		if matchTarget {
			target = ev.TargetID
		}
		actor, err = e.resolver.Resolve(ctx, ev.GuildID, action, target)
		if err != nil {
			// Fail open: a missed attribution is preferred over a
			// misattributed punishment.
			e.metrics.AttributionFailures.Inc()
			e.log.Debug("attribution failed",
				zap.String("guild_id", ev.GuildID),
				zap.String("kind", ev.Kind),
				zap.Error(err))
			return
		}
	}
	if exempt, _ := e.exempt(ctx, ev.GuildID, actor); exempt {
		return
	}

	threshold := pol.Threshold(ev.Kind, e.defaultThreshold(ev.Kind))
	var crossed bool
	var count int
	switch {
	case ev.Kind == models.ActionDangerousPerms:
		// Dangerous-permission grants act on the first occurrence.
		crossed, count, threshold = true, 1, 1
	case ev.Kind == models.ActionServerRename && ev.PriorValue != "":
		// Vanity change: act immediately and revert.
		crossed, count, threshold = true, 1, 1
	case ev.Kind == models.ActionMemberPrune:
		crossed, count = ev.Magnitude >= threshold, ev.Magnitude
	default:
		crossed, count = e.tracker.ObserveCount(ev.GuildID, actor, ev.Kind, threshold)
	}
	if !crossed {
		return
	}

	e.sanction(ctx, pol, ev, actor, count, threshold)
}

// handleMassMention fires on mention-bearing message creation. Every
// such message is cached for ghost-ping correlation; messages at or
// above the mention threshold are deleted and their author punished.
func (e *Engine) handleMassMention(ctx context.Context, ev models.Event) {
	e.messages.Put(&msgcache.Entry{
		MessageID: ev.TargetID,
		GuildID:   ev.GuildID,
		ChannelID: ev.ChannelID,
		AuthorID:  ev.ActorID,
		AuthorTag: ev.ActorTag,
		Content:   ev.Content,
		Mentions:  ev.Mentions,
	})

	pol, err := e.store.GetPolicy(ctx, ev.GuildID)
	if err != nil {
		e.metrics.PolicyErrors.Inc()
		return
	}
	if pol == nil || !pol.Enabled {
		return
	}
	if ev.ActorID == e.self() {
		return
	}
	if exempt, _ := e.exempt(ctx, ev.GuildID, ev.ActorID); exempt {
		return
	}

	threshold := pol.Threshold(models.ActionMassMention, e.defaultThreshold(models.ActionMassMention))
	if ev.Magnitude < threshold {
		return
	}

	e.sanction(ctx, pol, ev, ev.ActorID, ev.Magnitude, threshold)
}

// handleGhostPing fires on message deletion. A cache hit within the
// TTL is reported to operators and to the channel of deletion; the
// rule never punishes.
func (e *Engine) handleGhostPing(ctx context.Context, ev models.Event) {
	entry, ok := e.messages.Take(ev.TargetID)
	if !ok {
		return
	}

	pol, err := e.store.GetPolicy(ctx, ev.GuildID)
	if err != nil {
		e.metrics.PolicyErrors.Inc()
		return
	}
	if pol == nil || !pol.Enabled || !pol.GhostPingAlerts {
		return
	}
	if entry.AuthorID == e.self() {
		return
	}
	if exempt, _ := e.exempt(ctx, ev.GuildID, entry.AuthorID); exempt {
		return
	}

	finding := &models.Finding{
		Rule:      models.ActionGhostPing,
		GuildID:   ev.GuildID,
		ActorID:   entry.AuthorID,
		ActorTag:  entry.AuthorTag,
		ChannelID: entry.ChannelID,
		Mentions:  entry.Mentions,
		At:        e.clock.Now(),
	}
	if name, err := e.dir.GuildName(ctx, ev.GuildID); err == nil {
		finding.GuildName = name
	}

	e.metrics.Findings.WithLabelValues(models.ActionGhostPing).Inc()
	if err := e.alerts.Alert(ctx, finding); err != nil {
		e.metrics.AlertFailures.Inc()
	}
}

// exempt reports whether the actor is beyond this engine's reach: the
// bot itself, the guild owner, or a whitelisted actor. Lookup failures
// exempt too; the worst failure mode must be a missed incident, never
// a wrongly punished innocent.
func (e *Engine) exempt(ctx context.Context, guildID, actorID string) (bool, error) {
	if actorID == "" || actorID == e.self() {
		return true, nil
	}

	owner, err := e.dir.GuildOwner(ctx, guildID)
	if err != nil {
		e.log.Warn("owner lookup failed, skipping event",
			zap.String("guild_id", guildID), zap.Error(err))
		return true, err
	}
	if actorID == owner {
		return true, nil
	}

	listed, err := e.store.IsWhitelisted(ctx, guildID, actorID)
	if err != nil {
		e.metrics.PolicyErrors.Inc()
		e.log.Warn("whitelist read failed, skipping event",
			zap.String("guild_id", guildID), zap.Error(err))
		return true, err
	}
	return listed, nil
}

// sanction runs the dedup guard, rule side effects, punishment, and
// alerting for a threshold-crossing event.
func (e *Engine) sanction(ctx context.Context, pol *models.GuildPolicy, ev models.Event, actor string, count, threshold int) {
	if e.guard.Recently(ev.GuildID, actor) {
		return
	}

	reason := "Sentinel: " + models.ActionDisplayName(ev.Kind) + " limit exceeded"

	switch {
	case ev.Kind == models.ActionMassMention:
		if err := e.mod.DeleteMessage(ctx, ev.ChannelID, ev.TargetID); err != nil {
			e.log.Warn("mass mention message delete failed",
				zap.String("guild_id", ev.GuildID),
				zap.String("message_id", ev.TargetID),
				zap.Error(err))
		}
	case ev.Kind == models.ActionBotAdd:
		if err := e.mod.RemoveMember(ctx, ev.GuildID, ev.TargetID, "Sentinel: unauthorized bot"); err != nil {
			e.log.Warn("bot removal failed",
				zap.String("guild_id", ev.GuildID),
				zap.String("bot_id", ev.TargetID),
				zap.Error(err))
		}
	case ev.Kind == models.ActionServerRename && ev.PriorValue != "":
		if err := e.mod.SetVanityCode(ctx, ev.GuildID, ev.PriorValue); err != nil {
			e.log.Warn("vanity revert failed",
				zap.String("guild_id", ev.GuildID),
				zap.Error(err))
		}
	}

	punishment := pol.Punishment
	if !models.ValidPunishment(punishment) {
		punishment = e.defaults.Punishment
	}

	// Marked before the call completes so a burst of crossing events
	// cannot double-punish while the first sanction is in flight.
	e.guard.Mark(ev.GuildID, actor)

	outcome := "ok"
	if err := e.executor.Punish(ctx, ev.GuildID, actor, punishment, reason); err != nil {
		// Enforcement failed; the alert below still tells operators
		// that detection fired.
		outcome = "error"
	}
	e.metrics.Punishments.WithLabelValues(punishment, outcome).Inc()

	finding := &models.Finding{
		Rule:       ev.Kind,
		GuildID:    ev.GuildID,
		ActorID:    actor,
		Target:     ev.TargetDescription,
		Punishment: punishment,
		Count:      count,
		Threshold:  threshold,
		At:         e.clock.Now(),
	}
	if name, err := e.dir.GuildName(ctx, ev.GuildID); err == nil {
		finding.GuildName = name
	}
	if tag, err := e.dir.UserTag(ctx, actor); err == nil {
		finding.ActorTag = tag
	}

	e.metrics.Findings.WithLabelValues(ev.Kind).Inc()
	if err := e.alerts.Alert(ctx, finding); err != nil {
		e.metrics.AlertFailures.Inc()
	}
}

func (e *Engine) defaultThreshold(kind string) int {
	if v, ok := e.defaults.Thresholds[kind]; ok && v >= 1 {
		return v
	}
	return fallbackThreshold
}

// StartJanitor sweeps the transient stores until ctx is cancelled.
func (e *Engine) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tracker.Sweep()
				e.guard.Sweep()
				e.messages.Sweep()
			}
		}
	}()
}
