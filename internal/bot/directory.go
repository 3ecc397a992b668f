package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"discord-sentinel-bot/internal/cache"
)

// SessionDirectory answers identity lookups through the two-layer
// cache so hot-path exemption checks avoid REST churn.
type SessionDirectory struct {
	Session *discordgo.Session
	Cache   *cache.Cache
}

func (d *SessionDirectory) GuildOwner(ctx context.Context, guildID string) (string, error) {
	return d.Cache.Get(ctx, "guild_owner:"+guildID, func(ctx context.Context) (string, error) {
		g, err := d.guild(ctx, guildID)
		if err != nil {
			return "", err
		}
		return g.OwnerID, nil
	})
}

func (d *SessionDirectory) GuildName(ctx context.Context, guildID string) (string, error) {
	return d.Cache.Get(ctx, "guild_name:"+guildID, func(ctx context.Context) (string, error) {
		g, err := d.guild(ctx, guildID)
		if err != nil {
			return "", err
		}
		return g.Name, nil
	})
}

func (d *SessionDirectory) UserTag(ctx context.Context, userID string) (string, error) {
	return d.Cache.Get(ctx, "user_tag:"+userID, func(ctx context.Context) (string, error) {
		u, err := d.Session.User(userID, discordgo.WithContext(ctx))
		if err != nil {
			return "", err
		}
		return u.String(), nil
	})
}

func (d *SessionDirectory) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := d.Session.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g, nil
	}
	return d.Session.Guild(guildID, discordgo.WithContext(ctx))
}
