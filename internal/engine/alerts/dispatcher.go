// Package alerts formats findings and posts them to the guild's
// configured log channel.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/models"
)

const postTimeout = 5 * time.Second

// Embed colors.
const (
	colorViolation = 0xed4245 // red
	colorGhost     = 0x5865f2 // blurple
)

// ChannelSource looks up the guild's configured alert channel.
type ChannelSource interface {
	AlertChannel(ctx context.Context, guildID string) (string, error)
}

// Poster sends an embed to a channel. Satisfied by the discordgo
// session; faked in tests.
type Poster interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dispatcher emits findings to operators. Delivery is best effort: no
// configured channel or a failed post drops the alert, never retries.
type Dispatcher struct {
	channels ChannelSource
	poster   Poster
	log      *zap.Logger
}

// New creates a dispatcher.
func New(channels ChannelSource, poster Poster, log *zap.Logger) *Dispatcher {
	return &Dispatcher{channels: channels, poster: poster, log: log}
}

// Alert posts the finding to the guild's log channel. Ghost-ping
// findings are additionally posted to the channel the deletion
// occurred in, visible to members.
func (d *Dispatcher) Alert(ctx context.Context, f *models.Finding) error {
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	embed := d.buildEmbed(f)

	if f.Rule == models.ActionGhostPing && f.ChannelID != "" {
		if _, err := d.poster.ChannelMessageSendEmbed(f.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
			d.log.Debug("ghost ping channel notice failed",
				zap.String("guild_id", f.GuildID),
				zap.String("channel_id", f.ChannelID),
				zap.Error(err))
		}
	}

	channelID, err := d.channels.AlertChannel(ctx, f.GuildID)
	if err != nil {
		return err
	}
	if channelID == "" {
		// No log channel configured; the alert is dropped by design.
		return nil
	}

	if _, err := d.poster.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		d.log.Debug("alert post failed",
			zap.String("guild_id", f.GuildID),
			zap.String("channel_id", channelID),
			zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) buildEmbed(f *models.Finding) *discordgo.MessageEmbed {
	actor := "<@" + f.ActorID + ">"
	if f.ActorTag != "" {
		actor = fmt.Sprintf("<@%s> (%s)", f.ActorID, f.ActorTag)
	}

	if f.Rule == models.ActionGhostPing {
		embed := &discordgo.MessageEmbed{
			Title:       "👻 Ghost Ping Detected",
			Color:       colorGhost,
			Description: fmt.Sprintf("%s deleted a message that mentioned others.", actor),
			Timestamp:   f.At.Format(time.RFC3339),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Mentioned", Value: joinOrNone(f.Mentions), Inline: true},
				{Name: "Channel", Value: "<#" + f.ChannelID + ">", Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "Sentinel"},
		}
		return embed
	}

	punishment := "None (alert only)"
	if f.Punishment != "" {
		punishment = models.PunishmentDisplayName(f.Punishment)
	}

	embed := &discordgo.MessageEmbed{
		Title:     "🛡️ Sentinel Violation Detected",
		Color:     colorViolation,
		Timestamp: f.At.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Action", Value: models.ActionDisplayName(f.Rule), Inline: true},
			{Name: "Actor", Value: actor, Inline: true},
			{Name: "Punishment", Value: punishment, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Sentinel · " + f.GuildName},
	}
	if f.Target != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Target", Value: f.Target, Inline: true,
		})
	}
	if f.Threshold > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Count", Value: fmt.Sprintf("%d/%d", f.Count, f.Threshold), Inline: true,
		})
	}
	return embed
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "unknown"
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
