package antinuke

import (
	"github.com/bwmarrin/discordgo"

	"discord-sentinel-bot/internal/models"
)

var adminPerms = int64(discordgo.PermissionAdministrator)

// Commands is the full slash-command surface, registered per guild on
// GuildCreate.
var Commands = []*discordgo.ApplicationCommand{
	SentinelCmd,
	SetLimitCmd,
	PunishmentCmd,
	WhitelistCmd,
	ExtraOwnerCmd,
	LogsCmd,
}

// /sentinel — enable, disable, status, plus the per-guild toggles.
var SentinelCmd = &discordgo.ApplicationCommand{
	Name:        "sentinel",
	Description: "Configure the Sentinel protection system",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "enable",
			Description: "Enable protection for this server",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "disable",
			Description: "Disable protection for this server",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "status",
			Description: "View current protection status and limits",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "ghostping",
			Description: "Toggle ghost ping alerts",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Alert when mention-bearing messages are deleted",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "vanity",
			Description: "Toggle the vanity URL guard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Revert unauthorized vanity URL changes",
					Required:    true,
				},
			},
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

// /setlimit — per-action threshold within the fixed detection window.
var SetLimitCmd = &discordgo.ApplicationCommand{
	Name:        "setlimit",
	Description: "Set how many actions trigger a violation",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "The action to limit",
			Required:    true,
			Choices:     actionChoices(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "Max actions allowed inside the detection window",
			Required:    true,
			MinValue:    &minLimit,
			MaxValue:    50,
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

var minLimit = float64(1)

// /punishment — sanction applied to violators.
var PunishmentCmd = &discordgo.ApplicationCommand{
	Name:        "punishment",
	Description: "Set the punishment applied on violations",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "type",
			Description: "Punishment to apply",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Ban", Value: models.PunishmentBan},
				{Name: "Kick", Value: models.PunishmentKick},
				{Name: "Strip Roles", Value: models.PunishmentStripRoles},
				{Name: "Timeout", Value: models.PunishmentTimeout},
			},
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

// /whitelist — trusted users exempt from detection.
var WhitelistCmd = &discordgo.ApplicationCommand{
	Name:        "whitelist",
	Description: "Manage trusted users exempt from detection",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "add",
			Description: "Exempt a user from detection",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to whitelist",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "remove",
			Description: "Revoke a user's exemption",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to remove",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "view",
			Description: "View all whitelisted users",
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

// /extraowner — delegated admins who may manage the whitelist. Only
// the actual guild owner can grant or revoke this.
var ExtraOwnerCmd = &discordgo.ApplicationCommand{
	Name:        "extraowner",
	Description: "Manage users allowed to edit the whitelist",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "add",
			Description: "Grant whitelist management rights",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to grant rights to",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "remove",
			Description: "Revoke whitelist management rights",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to revoke rights from",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "view",
			Description: "View all extra owners",
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

// /logs — where violation alerts are posted.
var LogsCmd = &discordgo.ApplicationCommand{
	Name:        "logs",
	Description: "Set the channel for security alerts",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Channel to send alerts to",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	},
	DefaultMemberPermissions: &adminPerms,
}

func actionChoices() []*discordgo.ApplicationCommandOptionChoice {
	kinds := models.ThresholdKinds()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(kinds))
	for _, kind := range kinds {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  models.ActionDisplayName(kind),
			Value: kind,
		})
	}
	return choices
}
