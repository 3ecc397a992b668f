package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/commands/antinuke"
	"discord-sentinel-bot/internal/models"
)

// handlerTimeout bounds one rule evaluation end to end, audit fetch
// and sanction calls included.
const handlerTimeout = 10 * time.Second

func (b *Bot) dispatch(ev models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	ev.ReceivedAt = time.Now()
	b.Engine.HandleEvent(ctx, ev)
}

func (b *Bot) Ready(s *discordgo.Session, r *discordgo.Ready) {
	if s.State.User == nil {
		s.State.User = r.User
	}
	b.Engine.SetSelfID(r.User.ID)

	b.Logger.Info("logged in",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) GuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.seedSnapshot(g.Guild)

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, g.ID, antinuke.Commands); err != nil {
		b.Logger.Warn("command registration failed",
			zap.String("guild_id", g.ID), zap.Error(err))
	}
}

func (b *Bot) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	switch i.ApplicationCommandData().Name {
	case "sentinel":
		antinuke.HandleSentinel(s, i, b.DB, b.Defaults)
	case "setlimit":
		antinuke.HandleSetLimit(s, i, b.DB)
	case "punishment":
		antinuke.HandlePunishment(s, i, b.DB)
	case "whitelist":
		antinuke.HandleWhitelist(s, i, b.DB)
	case "extraowner":
		antinuke.HandleExtraOwner(s, i, b.DB)
	case "logs":
		antinuke.HandleLogs(s, i, b.DB)
	}
}

func (b *Bot) ChannelCreate(s *discordgo.Session, c *discordgo.ChannelCreate) {
	if c.GuildID == "" {
		return
	}
	b.dispatch(models.Event{
		GuildID:           c.GuildID,
		Kind:              models.ActionChannelCreate,
		TargetID:          c.ID,
		TargetDescription: "#" + c.Name,
	})
}

func (b *Bot) ChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.GuildID == "" {
		return
	}
	b.dispatch(models.Event{
		GuildID:           c.GuildID,
		Kind:              models.ActionChannelDelete,
		TargetID:          c.ID,
		TargetDescription: "#" + c.Name,
	})
}

func (b *Bot) GuildRoleCreate(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
	b.roleBefore(r.GuildID, r.Role)
	b.dispatch(models.Event{
		GuildID:           r.GuildID,
		Kind:              models.ActionRoleCreate,
		TargetID:          r.Role.ID,
		TargetDescription: "@" + r.Role.Name,
	})
}

func (b *Bot) GuildRoleDelete(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	b.forgetRole(r.GuildID, r.RoleID)
	b.dispatch(models.Event{
		GuildID:  r.GuildID,
		Kind:     models.ActionRoleDelete,
		TargetID: r.RoleID,
	})
}

// GuildRoleUpdate feeds two rules: role renames are rate tracked, and
// a role gaining dangerous permission bits acts immediately.
func (b *Bot) GuildRoleUpdate(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	oldName, oldPerms, known := b.roleBefore(r.GuildID, r.Role)
	if !known {
		return
	}

	if oldName != r.Role.Name {
		b.dispatch(models.Event{
			GuildID:           r.GuildID,
			Kind:              models.ActionRoleRename,
			TargetID:          r.Role.ID,
			TargetDescription: "@" + oldName + " → @" + r.Role.Name,
		})
	}

	gained := r.Role.Permissions &^ oldPerms
	if gained&dangerousPerms != 0 {
		b.dispatch(models.Event{
			GuildID:           r.GuildID,
			Kind:              models.ActionDangerousPerms,
			TargetID:          r.Role.ID,
			TargetDescription: "@" + r.Role.Name,
		})
	}
}

func (b *Bot) GuildBanAdd(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionBanMembers,
		TargetID:          e.User.ID,
		TargetDescription: e.User.String(),
	})
}

// GuildMemberRemove fires for kicks, bans, and voluntary leaves alike;
// the kick rule disambiguates through the audit trail — a leave has no
// matching kick entry and the rule falls out silently.
func (b *Bot) GuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionKickMembers,
		TargetID:          e.User.ID,
		TargetDescription: e.User.String(),
	})
}

// GuildMemberAdd fires the bot-add rule when the joining member is a
// bot; the responsible human comes from the audit trail.
func (b *Bot) GuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.User == nil || !e.User.Bot {
		return
	}
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionBotAdd,
		TargetID:          e.User.ID,
		TargetDescription: e.User.String(),
	})
}

func (b *Bot) WebhooksUpdate(s *discordgo.Session, e *discordgo.WebhooksUpdate) {
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionWebhookCreate,
		ChannelID:         e.ChannelID,
		TargetDescription: "webhook in <#" + e.ChannelID + ">",
	})
}

func (b *Bot) InviteDelete(s *discordgo.Session, e *discordgo.InviteDelete) {
	if e.GuildID == "" {
		return
	}
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionInviteDelete,
		TargetDescription: "invite " + e.Code,
	})
}

// GuildUpdate feeds the server-rename rule. A vanity code change is
// dispatched with the prior code so the engine can revert it.
func (b *Bot) GuildUpdate(s *discordgo.Session, e *discordgo.GuildUpdate) {
	oldName, oldVanity, known := b.guildBefore(e.Guild)
	if !known {
		return
	}

	if oldName != e.Name {
		b.dispatch(models.Event{
			GuildID:           e.ID,
			Kind:              models.ActionServerRename,
			TargetDescription: oldName + " → " + e.Name,
		})
	}

	if oldVanity != e.VanityURLCode && oldVanity != "" {
		b.dispatch(models.Event{
			GuildID:           e.ID,
			Kind:              models.ActionServerRename,
			TargetDescription: "vanity /" + oldVanity + " → /" + e.VanityURLCode,
			PriorValue:        oldVanity,
		})
	}
}

// GuildAuditLogEntryCreate delivers entries that carry attribution
// directly; prunes arrive here with both actor and magnitude, so the
// prune rule bypasses the resolver entirely.
func (b *Bot) GuildAuditLogEntryCreate(s *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
	if e.ActionType == nil || *e.ActionType != discordgo.AuditLogActionMemberPrune {
		return
	}

	removed := 0
	if e.Options != nil {
		removed, _ = strconv.Atoi(e.Options.MembersRemoved)
	}
	b.dispatch(models.Event{
		GuildID:           e.GuildID,
		Kind:              models.ActionMemberPrune,
		ActorID:           e.UserID,
		Magnitude:         removed,
		TargetDescription: strconv.Itoa(removed) + " members pruned",
	})
}

// MessageCreate feeds the mass-mention rule; mention-bearing messages
// are also cached inside the engine for ghost-ping correlation.
func (b *Bot) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}

	names := make([]string, 0, len(m.Mentions)+len(m.MentionRoles))
	for _, u := range m.Mentions {
		names = append(names, u.Username)
	}
	for _, roleID := range m.MentionRoles {
		if role, err := s.State.Role(m.GuildID, roleID); err == nil {
			names = append(names, "@"+role.Name)
		} else {
			names = append(names, "role:"+roleID)
		}
	}
	count := len(names)
	if m.MentionEveryone {
		names = append(names, "@everyone")
		count++
	}
	if count == 0 {
		return
	}

	b.dispatch(models.Event{
		GuildID:           m.GuildID,
		Kind:              models.ActionMassMention,
		ActorID:           m.Author.ID,
		ActorTag:          m.Author.String(),
		TargetID:          m.ID,
		TargetDescription: "message with " + strconv.Itoa(count) + " mentions",
		Magnitude:         count,
		ChannelID:         m.ChannelID,
		Mentions:          names,
		Content:           m.Content,
	})
}

func (b *Bot) MessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	b.dispatch(models.Event{
		GuildID:   m.GuildID,
		Kind:      models.ActionGhostPing,
		TargetID:  m.ID,
		ChannelID: m.ChannelID,
	})
}
