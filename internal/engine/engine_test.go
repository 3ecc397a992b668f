package engine

import (
	"context"
	"errors"
	"strconv"
	"testing"
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

// --- fakes -----------------------------------------------------------

type fakeStore struct {
	policy    *models.GuildPolicy
	policyErr error
	listed    map[string]bool
	listedErr error
}

func (f *fakeStore) GetPolicy(ctx context.Context, guildID string) (*models.GuildPolicy, error) {
	return f.policy, f.policyErr
}

func (f *fakeStore) IsWhitelisted(ctx context.Context, guildID, actorID string) (bool, error) {
	return f.listed[actorID], f.listedErr
}

type fakeDir struct {
	owner string
}

func (f *fakeDir) GuildOwner(ctx context.Context, guildID string) (string, error) {
	return f.owner, nil
}
func (f *fakeDir) GuildName(ctx context.Context, guildID string) (string, error) {
	return "Test Guild", nil
}
func (f *fakeDir) UserTag(ctx context.Context, userID string) (string, error) {
	return userID + "#0", nil
}

type fakeMod struct {
	deleted []string // message IDs
	removed []string // member IDs
	vanity  []string // codes set
}

func (f *fakeMod) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}
func (f *fakeMod) RemoveMember(ctx context.Context, guildID, userID, reason string) error {
	f.removed = append(f.removed, userID)
	return nil
}
func (f *fakeMod) SetVanityCode(ctx context.Context, guildID, code string) error {
	f.vanity = append(f.vanity, code)
	return nil
}

type fakeAPI struct {
	banned     []string
	kicked     []string
	stripped   []string
	timedOut   []string
	punishErr  error
	punishKind []string
}

func (f *fakeAPI) GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error {
	f.banned = append(f.banned, userID)
	f.punishKind = append(f.punishKind, models.PunishmentBan)
	return f.punishErr
}
func (f *fakeAPI) GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error {
	f.kicked = append(f.kicked, userID)
	f.punishKind = append(f.punishKind, models.PunishmentKick)
	return f.punishErr
}
func (f *fakeAPI) GuildMemberEdit(guildID, userID string, data *discordgo.GuildMemberParams, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.stripped = append(f.stripped, userID)
	f.punishKind = append(f.punishKind, models.PunishmentStripRoles)
	return nil, f.punishErr
}
func (f *fakeAPI) GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error {
	f.timedOut = append(f.timedOut, userID)
	f.punishKind = append(f.punishKind, models.PunishmentTimeout)
	return f.punishErr
}

type fakeFetcher struct {
	entries []*discordgo.AuditLogEntry
	err     error
}

func (f *fakeFetcher) RecentEntries(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) ([]*discordgo.AuditLogEntry, error) {
	return f.entries, f.err
}

type fakeChannels struct{ channel string }

func (f *fakeChannels) AlertChannel(ctx context.Context, guildID string) (string, error) {
	return f.channel, nil
}

type fakePoster struct{ posts []string }

func (f *fakePoster) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.posts = append(f.posts, channelID)
	return nil, nil
}

// --- harness ---------------------------------------------------------

type harness struct {
	clk     *clock.Manual
	store   *fakeStore
	dir     *fakeDir
	mod     *fakeMod
	api     *fakeAPI
	fetcher *fakeFetcher
	poster  *fakePoster
	eng     *Engine
}

func newHarness(pol *models.GuildPolicy) *harness {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	h := &harness{
		clk:     clk,
		store:   &fakeStore{policy: pol, listed: map[string]bool{}},
		dir:     &fakeDir{owner: "owner-1"},
		mod:     &fakeMod{},
		api:     &fakeAPI{},
		fetcher: &fakeFetcher{},
		poster:  &fakePoster{},
	}

	log := zap.NewNop()
	h.eng = New(Deps{
		Store:     h.store,
		Directory: h.dir,
		Resolver:  audit.NewResolver(h.fetcher, clk, log),
		Tracker:   tracker.New(clk),
		Guard:     guard.New(clk),
		Messages:  msgcache.New(clk),
		Executor:  executor.New(h.api, clk, log),
		Alerts:    alerts.New(&fakeChannels{channel: "log-chan"}, h.poster, log),
		Moderator: h.mod,
		Metrics:   metrics.New(),
		Defaults: Defaults{
			Punishment: models.PunishmentBan,
			Thresholds: map[string]int{models.ActionMassMention: 8},
		},
		Clock: clk,
		Log:   log,
	})
	h.eng.SetSelfID("bot-self")
	return h
}

func enabledPolicy() *models.GuildPolicy {
	return &models.GuildPolicy{
		GuildID:    "g1",
		Enabled:    true,
		Punishment: models.PunishmentBan,
		Thresholds: map[string]int{},
	}
}

// attribute makes the audit trail pin every queried mutation on actor.
func (h *harness) attribute(actor, targetID string) {
	const discordEpochMs = 1420070400000
	ts := h.clk.Now().Add(-time.Second)
	id := strconv.FormatInt((ts.UnixMilli()-discordEpochMs)<<22, 10)
	h.fetcher.entries = []*discordgo.AuditLogEntry{
		{ID: id, UserID: actor, TargetID: targetID},
	}
}

func channelDelete(target string) models.Event {
	return models.Event{
		GuildID:           "g1",
		Kind:              models.ActionChannelDelete,
		TargetID:          target,
		TargetDescription: "#" + target,
	}
}

// --- scenarios -------------------------------------------------------

func TestBurstPunishesExactlyOnce(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 2
	h := newHarness(pol)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		target := "chan" + strconv.Itoa(i)
		h.attribute("attacker", target)
		h.eng.HandleEvent(ctx, channelDelete(target))
	}

	if len(h.api.banned) != 1 || h.api.banned[0] != "attacker" {
		t.Errorf("banned = %v, want exactly one ban of attacker", h.api.banned)
	}
	if len(h.poster.posts) != 1 {
		t.Errorf("alerts posted = %d, want 1", len(h.poster.posts))
	}
}

func TestBelowThresholdDoesNothing(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 3
	h := newHarness(pol)

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))
	h.attribute("attacker", "chan1")
	h.eng.HandleEvent(context.Background(), channelDelete("chan1"))

	if len(h.api.banned) != 0 {
		t.Errorf("banned = %v, want none below threshold", h.api.banned)
	}
}

func TestDisabledGuildIgnored(t *testing.T) {
	pol := enabledPolicy()
	pol.Enabled = false
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("disabled guild still punished: %v", h.api.banned)
	}
}

func TestOwnerExempt(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)

	h.attribute("owner-1", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("guild owner punished: %v", h.api.banned)
	}
}

func TestWhitelistedExempt(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)
	h.store.listed["trusted"] = true

	h.attribute("trusted", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("whitelisted actor punished: %v", h.api.banned)
	}
}

func TestSelfExempt(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)

	h.attribute("bot-self", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("engine punished its own bot: %v", h.api.banned)
	}
}

func TestWhitelistLookupErrorFailsOpen(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)
	h.store.listedErr = errors.New("db down")

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("punished despite whitelist lookup failure: %v", h.api.banned)
	}
}

func TestAttributionFailureFailsOpen(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)
	h.fetcher.err = errors.New("missing access")

	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("punished with no attribution: %v", h.api.banned)
	}
	if len(h.poster.posts) != 0 {
		t.Errorf("alerted with no attribution: %v", h.poster.posts)
	}
}

func TestPolicyErrorSkipsEvent(t *testing.T) {
	h := newHarness(nil)
	h.store.policyErr = errors.New("db down")

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.banned) != 0 {
		t.Errorf("punished despite policy read failure: %v", h.api.banned)
	}
}

func TestConfiguredPunishmentRespected(t *testing.T) {
	pol := enabledPolicy()
	pol.Punishment = models.PunishmentTimeout
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	if len(h.api.timedOut) != 1 {
		t.Errorf("timedOut = %v, want the configured punishment applied", h.api.timedOut)
	}
	if len(h.api.banned) != 0 {
		t.Errorf("banned = %v, default punishment used instead of configured", h.api.banned)
	}
}

func TestMassMentionAtThreshold(t *testing.T) {
	h := newHarness(enabledPolicy()) // default mass_mention threshold 8

	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMassMention,
		ActorID:   "spammer",
		TargetID:  "msg1",
		ChannelID: "chan1",
		Magnitude: 12,
	})

	if len(h.mod.deleted) != 1 || h.mod.deleted[0] != "msg1" {
		t.Errorf("deleted = %v, want the offending message removed", h.mod.deleted)
	}
	if len(h.api.banned) != 1 || h.api.banned[0] != "spammer" {
		t.Errorf("banned = %v, want spammer", h.api.banned)
	}
}

func TestMassMentionBelowThreshold(t *testing.T) {
	h := newHarness(enabledPolicy())

	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMassMention,
		ActorID:   "chatty",
		TargetID:  "msg1",
		ChannelID: "chan1",
		Magnitude: 7,
	})

	if len(h.mod.deleted) != 0 || len(h.api.banned) != 0 {
		t.Errorf("sub-threshold mention message acted on: deleted=%v banned=%v",
			h.mod.deleted, h.api.banned)
	}
}

func TestMemberPruneUsesMagnitude(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionMemberPrune] = 3
	h := newHarness(pol)

	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMemberPrune,
		ActorID:   "pruner",
		Magnitude: 5,
	})

	if len(h.api.banned) != 1 || h.api.banned[0] != "pruner" {
		t.Errorf("banned = %v, want pruner on a 5-member prune", h.api.banned)
	}
}

func TestBotAddRemovesBotAndPunishesInviter(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionBotAdd] = 1
	h := newHarness(pol)

	h.attribute("inviter", "bot-account")
	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:  "g1",
		Kind:     models.ActionBotAdd,
		TargetID: "bot-account",
	})

	if len(h.mod.removed) != 1 || h.mod.removed[0] != "bot-account" {
		t.Errorf("removed = %v, want the bot kicked out", h.mod.removed)
	}
	if len(h.api.banned) != 1 || h.api.banned[0] != "inviter" {
		t.Errorf("banned = %v, want the inviter", h.api.banned)
	}
}

func TestVanityChangeRevertsImmediately(t *testing.T) {
	pol := enabledPolicy()
	pol.VanityGuard = true
	h := newHarness(pol)

	h.attribute("renamer", "")
	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:    "g1",
		Kind:       models.ActionServerRename,
		PriorValue: "coolguild",
	})

	if len(h.mod.vanity) != 1 || h.mod.vanity[0] != "coolguild" {
		t.Errorf("vanity = %v, want the prior code restored", h.mod.vanity)
	}
	if len(h.api.banned) != 1 {
		t.Errorf("banned = %v, want the vanity changer punished on first occurrence", h.api.banned)
	}
}

func TestVanityGuardDisabled(t *testing.T) {
	pol := enabledPolicy()
	pol.VanityGuard = false
	h := newHarness(pol)

	h.attribute("renamer", "")
	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:    "g1",
		Kind:       models.ActionServerRename,
		PriorValue: "coolguild",
	})

	if len(h.mod.vanity) != 0 || len(h.api.banned) != 0 {
		t.Errorf("vanity guard off but engine acted: vanity=%v banned=%v",
			h.mod.vanity, h.api.banned)
	}
}

func TestDangerousPermsActOnFirstOccurrence(t *testing.T) {
	h := newHarness(enabledPolicy())

	h.attribute("escalator", "role1")
	h.eng.HandleEvent(context.Background(), models.Event{
		GuildID:  "g1",
		Kind:     models.ActionDangerousPerms,
		TargetID: "role1",
	})

	if len(h.api.banned) != 1 || h.api.banned[0] != "escalator" {
		t.Errorf("banned = %v, want the permission escalator immediately", h.api.banned)
	}
}

func TestGhostPingWithinTTL(t *testing.T) {
	pol := enabledPolicy()
	pol.GhostPingAlerts = true
	h := newHarness(pol)
	ctx := context.Background()

	// Sub-threshold mention message, cached but not punished.
	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMassMention,
		ActorID:   "pinger",
		TargetID:  "msg1",
		ChannelID: "chan1",
		Magnitude: 2,
		Mentions:  []string{"alice", "bob"},
	})

	h.clk.Advance(10 * time.Second)
	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionGhostPing,
		TargetID:  "msg1",
		ChannelID: "chan1",
	})

	// Origin channel plus log channel, never a punishment.
	if len(h.poster.posts) != 2 {
		t.Errorf("posts = %v, want origin and log channel notices", h.poster.posts)
	}
	if len(h.api.banned) != 0 {
		t.Errorf("ghost ping punished: %v", h.api.banned)
	}
}

func TestGhostPingAfterTTL(t *testing.T) {
	pol := enabledPolicy()
	pol.GhostPingAlerts = true
	h := newHarness(pol)
	ctx := context.Background()

	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMassMention,
		ActorID:   "pinger",
		TargetID:  "msg1",
		ChannelID: "chan1",
		Magnitude: 2,
	})

	h.clk.Advance(msgcache.TTL + time.Second)
	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionGhostPing,
		TargetID:  "msg1",
		ChannelID: "chan1",
	})

	if len(h.poster.posts) != 0 {
		t.Errorf("stale deletion alerted: %v", h.poster.posts)
	}
}

func TestGhostPingToggleOff(t *testing.T) {
	pol := enabledPolicy()
	pol.GhostPingAlerts = false
	h := newHarness(pol)
	ctx := context.Background()

	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionMassMention,
		ActorID:   "pinger",
		TargetID:  "msg1",
		ChannelID: "chan1",
		Magnitude: 2,
	})
	h.eng.HandleEvent(ctx, models.Event{
		GuildID:   "g1",
		Kind:      models.ActionGhostPing,
		TargetID:  "msg1",
		ChannelID: "chan1",
	})

	if len(h.poster.posts) != 0 {
		t.Errorf("ghost ping alerted with the toggle off: %v", h.poster.posts)
	}
}

func TestDedupGuardSharedAcrossKinds(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	pol.Thresholds[models.ActionRoleDelete] = 1
	h := newHarness(pol)
	ctx := context.Background()

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(ctx, channelDelete("chan0"))

	h.attribute("attacker", "role0")
	h.eng.HandleEvent(ctx, models.Event{
		GuildID:  "g1",
		Kind:     models.ActionRoleDelete,
		TargetID: "role0",
	})

	if len(h.api.banned) != 1 {
		t.Errorf("banned = %v, one burst across kinds should punish once", h.api.banned)
	}
}

func TestPunishmentFailureStillAlerts(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)
	h.api.punishErr = errors.New("hierarchy violation")

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(context.Background(), channelDelete("chan0"))

	// Operators must learn detection fired even when enforcement could not.
	if len(h.poster.posts) != 1 {
		t.Errorf("posts = %v, want an alert despite the failed sanction", h.poster.posts)
	}
}

func TestGuardExpiryAllowsRepunishment(t *testing.T) {
	pol := enabledPolicy()
	pol.Thresholds[models.ActionChannelDelete] = 1
	h := newHarness(pol)
	ctx := context.Background()

	h.attribute("attacker", "chan0")
	h.eng.HandleEvent(ctx, channelDelete("chan0"))

	h.clk.Advance(guard.TTL + time.Second)

	h.attribute("attacker", "chan1")
	h.eng.HandleEvent(ctx, channelDelete("chan1"))

	if len(h.api.banned) != 2 {
		t.Errorf("banned = %v, want a second sanction after suppression expiry", h.api.banned)
	}
}
