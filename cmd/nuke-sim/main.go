// nuke-sim drives bursts of destructive actions against a throwaway
// guild so the detection thresholds can be tuned against real gateway
// timing. Point it at a test server only.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func main() {
	token := flag.String("token", os.Getenv("SIM_TOKEN"), "bot token for the attacking account")
	guildID := flag.String("guild", os.Getenv("SIM_GUILD"), "guild to attack")
	channelID := flag.String("channel", "", "channel for mention bursts")
	count := flag.Int("count", 5, "operations per burst")
	delay := flag.Duration("delay", 100*time.Millisecond, "delay between operations")
	flag.Parse()

	if *token == "" || *guildID == "" {
		fmt.Fprintln(os.Stderr, "usage: nuke-sim -token ... -guild ... [-channel ...]")
		os.Exit(1)
	}

	dg, err := discordgo.New("Bot " + *token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "session:", err)
		os.Exit(1)
	}
	if err := dg.Open(); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer dg.Close()

	fmt.Printf("connected — guild %s, %d ops per burst, %s between ops\n", *guildID, *count, *delay)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("\n=== Nuke Simulation Menu ===")
		fmt.Println("1. Channel creation burst")
		fmt.Println("2. Channel deletion burst (sim-* channels)")
		fmt.Println("3. Role creation burst")
		fmt.Println("4. Role deletion burst (sim-* roles)")
		fmt.Println("5. Webhook creation burst")
		fmt.Println("6. Mass mention message")
		fmt.Println("0. Exit")
		fmt.Print("\nSelect option: ")

		option, _ := reader.ReadString('\n')
		switch strings.TrimSpace(option) {
		case "1":
			channelBurst(dg, *guildID, *count, *delay)
		case "2":
			channelPurge(dg, *guildID, *delay)
		case "3":
			roleBurst(dg, *guildID, *count, *delay)
		case "4":
			rolePurge(dg, *guildID, *delay)
		case "5":
			webhookBurst(dg, *guildID, *count, *delay)
		case "6":
			mentionBlast(dg, *channelID)
		case "0":
			return
		}
	}
}

func channelBurst(s *discordgo.Session, guildID string, count int, delay time.Duration) {
	start := time.Now()
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("sim-channel-%d", i)
		if _, err := s.GuildChannelCreate(guildID, name, discordgo.ChannelTypeGuildText); err != nil {
			fmt.Println("  create failed:", err)
			return
		}
		fmt.Printf("  created %s (%v)\n", name, time.Since(start))
		time.Sleep(delay)
	}
}

func channelPurge(s *discordgo.Session, guildID string, delay time.Duration) {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		fmt.Println("  list failed:", err)
		return
	}
	start := time.Now()
	for _, ch := range channels {
		if !strings.HasPrefix(ch.Name, "sim-") {
			continue
		}
		if _, err := s.ChannelDelete(ch.ID); err != nil {
			fmt.Println("  delete failed:", err)
			return
		}
		fmt.Printf("  deleted %s (%v)\n", ch.Name, time.Since(start))
		time.Sleep(delay)
	}
}

func roleBurst(s *discordgo.Session, guildID string, count int, delay time.Duration) {
	start := time.Now()
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("sim-role-%d", i)
		if _, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name}); err != nil {
			fmt.Println("  create failed:", err)
			return
		}
		fmt.Printf("  created %s (%v)\n", name, time.Since(start))
		time.Sleep(delay)
	}
}

func rolePurge(s *discordgo.Session, guildID string, delay time.Duration) {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		fmt.Println("  list failed:", err)
		return
	}
	start := time.Now()
	for _, r := range roles {
		if !strings.HasPrefix(r.Name, "sim-") {
			continue
		}
		if err := s.GuildRoleDelete(guildID, r.ID); err != nil {
			fmt.Println("  delete failed:", err)
			return
		}
		fmt.Printf("  deleted %s (%v)\n", r.Name, time.Since(start))
		time.Sleep(delay)
	}
}

func webhookBurst(s *discordgo.Session, guildID string, count int, delay time.Duration) {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		fmt.Println("  list failed:", err)
		return
	}
	var target *discordgo.Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			target = ch
			break
		}
	}
	if target == nil {
		fmt.Println("  no text channel found")
		return
	}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("sim-hook-%d", i)
		if _, err := s.WebhookCreate(target.ID, name, ""); err != nil {
			fmt.Println("  create failed:", err)
			return
		}
		fmt.Printf("  created webhook %s in #%s\n", name, target.Name)
		time.Sleep(delay)
	}
}

func mentionBlast(s *discordgo.Session, channelID string) {
	if channelID == "" {
		fmt.Println("  pass -channel to use mention bursts")
		return
	}
	msg, err := s.ChannelMessageSend(channelID, strings.Repeat("@everyone ", 10))
	if err != nil {
		fmt.Println("  send failed:", err)
		return
	}
	fmt.Println("  sent mention blast, deleting in 5s for ghost ping")
	time.Sleep(5 * time.Second)
	if err := s.ChannelMessageDelete(channelID, msg.ID); err != nil {
		fmt.Println("  delete failed:", err)
	}
}
