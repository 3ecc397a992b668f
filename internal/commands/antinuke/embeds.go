package antinuke

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-sentinel-bot/internal/models"
)

// Embed colors
const (
	ColorSuccess = 0x2b2d31
	ColorError   = 0xed4245
	ColorInfo    = 0x5865f2
)

func successEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✓ " + title,
		Description: description,
		Color:       ColorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Sentinel",
		},
	}
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✗ " + title,
		Description: description,
		Color:       ColorError,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Sentinel",
		},
	}
}

func infoEmbed(title string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     ColorInfo,
		Timestamp: time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Sentinel",
		},
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, title, description string) {
	respond(s, i, successEmbed(title, description))
}

func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, title, description string) {
	respond(s, i, errorEmbed(title, description))
}

// statusEmbed renders the full policy: toggles plus the limit table.
func statusEmbed(policy *models.GuildPolicy, defaults map[string]int) *discordgo.MessageEmbed {
	embed := infoEmbed("🛡️ Sentinel Status")

	state := "DISABLED"
	if policy.Enabled {
		state = "ENABLED"
	}
	ghost := "off"
	if policy.GhostPingAlerts {
		ghost = "on"
	}
	vanity := "off"
	if policy.VanityGuard {
		vanity = "on"
	}
	logs := "not set"
	if policy.AlertChannel != "" {
		logs = "<#" + policy.AlertChannel + ">"
	}

	var description strings.Builder
	fmt.Fprintf(&description, "**Protection:** %s\n", state)
	fmt.Fprintf(&description, "**Punishment:** %s\n", models.PunishmentDisplayName(policy.Punishment))
	fmt.Fprintf(&description, "**Ghost Ping Alerts:** %s\n", ghost)
	fmt.Fprintf(&description, "**Vanity Guard:** %s\n", vanity)
	fmt.Fprintf(&description, "**Log Channel:** %s\n\n", logs)

	description.WriteString("```\n")
	fmt.Fprintf(&description, "%-22s %6s\n", "Action", "Limit")
	description.WriteString(strings.Repeat("-", 30) + "\n")
	for _, kind := range models.ThresholdKinds() {
		limit := policy.Threshold(kind, defaults[kind])
		name := models.ActionDisplayName(kind)
		if len(name) > 21 {
			name = name[:18] + "..."
		}
		fmt.Fprintf(&description, "%-22s %6d\n", name, limit)
	}
	description.WriteString("```")

	embed.Description = description.String()
	return embed
}
