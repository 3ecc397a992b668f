package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// SessionModerator performs the non-sanction side effects rules carry.
type SessionModerator struct {
	Session *discordgo.Session
}

func (m *SessionModerator) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return m.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (m *SessionModerator) RemoveMember(ctx context.Context, guildID, userID, reason string) error {
	return m.Session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
}

// SetVanityCode reverts the guild vanity URL. discordgo has no typed
// helper for this endpoint, so the request goes out raw.
func (m *SessionModerator) SetVanityCode(ctx context.Context, guildID, code string) error {
	endpoint := discordgo.EndpointGuild(guildID) + "/vanity-url"
	body := struct {
		Code string `json:"code"`
	}{Code: code}
	_, err := m.Session.RequestWithBucketID("PATCH", endpoint, body, endpoint, discordgo.WithContext(ctx))
	return err
}
