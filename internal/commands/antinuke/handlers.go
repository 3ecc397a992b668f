package antinuke

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-sentinel-bot/internal/database"
	"discord-sentinel-bot/internal/engine/tracker"
	"discord-sentinel-bot/internal/models"
)

const dbTimeout = 5 * time.Second

func dbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// HandleSentinel handles /sentinel: enable, disable, status, and the
// ghost-ping and vanity toggles.
func HandleSentinel(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database, defaults map[string]int) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		respondError(s, i, "Invalid Command", "No subcommand provided")
		return
	}

	ctx, cancel := dbContext()
	defer cancel()

	guildID := i.GuildID

	switch options[0].Name {
	case "enable":
		if err := db.EnableSentinel(ctx, guildID); err != nil {
			respondError(s, i, "Enable Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Protection Enabled",
			"Sentinel is now monitoring this server in real time.")

	case "disable":
		if err := db.DisableSentinel(ctx, guildID); err != nil {
			respondError(s, i, "Disable Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Protection Disabled",
			"This server is no longer protected.")

	case "status":
		policy, err := db.GetPolicy(ctx, guildID)
		if err != nil {
			respondError(s, i, "Status Failed", err.Error())
			return
		}
		respond(s, i, statusEmbed(policy, defaults))

	case "ghostping":
		enabled := options[0].Options[0].BoolValue()
		if err := db.SetGhostPingAlerts(ctx, guildID, enabled); err != nil {
			respondError(s, i, "Update Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Ghost Ping Alerts",
			fmt.Sprintf("Ghost ping alerts are now **%s**.", onOff(enabled)))

	case "vanity":
		enabled := options[0].Options[0].BoolValue()
		if err := db.SetVanityGuard(ctx, guildID, enabled); err != nil {
			respondError(s, i, "Update Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Vanity Guard",
			fmt.Sprintf("The vanity URL guard is now **%s**.", onOff(enabled)))
	}
}

// HandleSetLimit handles /setlimit.
func HandleSetLimit(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) {
	options := i.ApplicationCommandData().Options
	action := options[0].StringValue()
	limit := int(options[1].IntValue())

	ctx, cancel := dbContext()
	defer cancel()

	if err := db.SetThreshold(ctx, i.GuildID, action, limit); err != nil {
		respondError(s, i, "Limit Update Failed", err.Error())
		return
	}

	respondSuccess(s, i, "Limit Updated",
		fmt.Sprintf("**%s** now triggers at **%d** actions within %s.",
			models.ActionDisplayName(action), limit,
			models.FormatWindow(int(tracker.Window/time.Second))))
}

// HandlePunishment handles /punishment.
func HandlePunishment(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) {
	kind := i.ApplicationCommandData().Options[0].StringValue()
	if !models.ValidPunishment(kind) {
		respondError(s, i, "Invalid Punishment", "Unknown punishment type: "+kind)
		return
	}

	ctx, cancel := dbContext()
	defer cancel()

	if err := db.SetPunishment(ctx, i.GuildID, kind); err != nil {
		respondError(s, i, "Update Failed", err.Error())
		return
	}

	respondSuccess(s, i, "Punishment Updated",
		fmt.Sprintf("Violators will now be punished with **%s**.",
			models.PunishmentDisplayName(kind)))
}

// HandleWhitelist handles /whitelist. The guild owner and extra owners
// may edit it; anyone with the command permission may view it.
func HandleWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		respondError(s, i, "Invalid Command", "No subcommand provided")
		return
	}

	ctx, cancel := dbContext()
	defer cancel()

	sub := options[0]

	if sub.Name != "view" && !canManageWhitelist(ctx, s, i, db) {
		respondError(s, i, "Not Allowed",
			"Only the server owner and extra owners can edit the whitelist.")
		return
	}

	switch sub.Name {
	case "add":
		user := sub.Options[0].UserValue(s)
		if user == nil {
			respondError(s, i, "Invalid Input", "Please provide a user to whitelist")
			return
		}
		already, err := db.IsWhitelisted(ctx, i.GuildID, user.ID)
		if err != nil {
			respondError(s, i, "Whitelist Failed", err.Error())
			return
		}
		if already {
			respondError(s, i, "Already Whitelisted",
				fmt.Sprintf("%s is already in the whitelist", user.Username))
			return
		}
		if err := db.AddWhitelist(ctx, i.GuildID, user.ID, invokerID(i)); err != nil {
			respondError(s, i, "Whitelist Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Whitelist Updated",
			fmt.Sprintf("<@%s> is now exempt from detection.", user.ID))

	case "remove":
		user := sub.Options[0].UserValue(s)
		if user == nil {
			respondError(s, i, "Invalid Input", "Please provide a user to remove")
			return
		}
		if err := db.RemoveWhitelist(ctx, i.GuildID, user.ID); err != nil {
			respondError(s, i, "Whitelist Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Whitelist Updated",
			fmt.Sprintf("<@%s> is no longer exempt.", user.ID))

	case "view":
		entries, err := db.Whitelist(ctx, i.GuildID)
		if err != nil {
			respondError(s, i, "Whitelist Failed", err.Error())
			return
		}
		embed := infoEmbed("🛡️ Whitelist")
		if len(entries) == 0 {
			embed.Description = "No users are whitelisted.\nUse `/whitelist add` to exempt trusted users."
		} else {
			var sb strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&sb, "<@%s> — added by <@%s> <t:%d:R>\n", e.ActorID, e.AddedBy, e.AddedAt)
			}
			embed.Description = sb.String()
		}
		respond(s, i, embed)
	}
}

// HandleExtraOwner handles /extraowner. Only the actual guild owner
// may grant or revoke; viewing is open.
func HandleExtraOwner(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		respondError(s, i, "Invalid Command", "No subcommand provided")
		return
	}

	ctx, cancel := dbContext()
	defer cancel()

	sub := options[0]

	if sub.Name != "view" && !isGuildOwner(s, i) {
		respondError(s, i, "Not Allowed",
			"Only the server owner can manage extra owners.")
		return
	}

	switch sub.Name {
	case "add":
		user := sub.Options[0].UserValue(s)
		if user == nil {
			respondError(s, i, "Invalid Input", "Please provide a user")
			return
		}
		if err := db.AddAdmin(ctx, i.GuildID, user.ID, invokerID(i)); err != nil {
			respondError(s, i, "Update Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Extra Owner Added",
			fmt.Sprintf("<@%s> can now manage the whitelist.", user.ID))

	case "remove":
		user := sub.Options[0].UserValue(s)
		if user == nil {
			respondError(s, i, "Invalid Input", "Please provide a user")
			return
		}
		if err := db.RemoveAdmin(ctx, i.GuildID, user.ID); err != nil {
			respondError(s, i, "Update Failed", err.Error())
			return
		}
		respondSuccess(s, i, "Extra Owner Removed",
			fmt.Sprintf("<@%s> can no longer manage the whitelist.", user.ID))

	case "view":
		entries, err := db.Admins(ctx, i.GuildID)
		if err != nil {
			respondError(s, i, "Lookup Failed", err.Error())
			return
		}
		embed := infoEmbed("🛡️ Extra Owners")
		if len(entries) == 0 {
			embed.Description = "No extra owners configured."
		} else {
			var sb strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&sb, "<@%s> — added <t:%d:R>\n", e.ActorID, e.AddedAt)
			}
			embed.Description = sb.String()
		}
		respond(s, i, embed)
	}
}

// HandleLogs handles /logs.
func HandleLogs(s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) {
	channel := i.ApplicationCommandData().Options[0].ChannelValue(s)
	if channel == nil {
		respondError(s, i, "Invalid Input", "Please provide a channel")
		return
	}

	ctx, cancel := dbContext()
	defer cancel()

	if err := db.SetAlertChannel(ctx, i.GuildID, channel.ID); err != nil {
		respondError(s, i, "Update Failed", err.Error())
		return
	}
	respondSuccess(s, i, "Log Channel Set",
		fmt.Sprintf("Security alerts will be sent to <#%s>.", channel.ID))
}

func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isGuildOwner(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	g, err := s.State.Guild(i.GuildID)
	if err != nil || g.OwnerID == "" {
		g, err = s.Guild(i.GuildID)
		if err != nil {
			return false
		}
	}
	return g.OwnerID == invokerID(i)
}

func canManageWhitelist(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, db *database.Database) bool {
	if isGuildOwner(s, i) {
		return true
	}
	ok, err := db.IsAdmin(ctx, i.GuildID, invokerID(i))
	return err == nil && ok
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
