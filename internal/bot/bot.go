package bot

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord-sentinel-bot/internal/cache"
	"discord-sentinel-bot/internal/database"
	"discord-sentinel-bot/internal/engine"
	"discord-sentinel-bot/internal/metrics"
	"discord-sentinel-bot/internal/redis"
)

// Bot owns the gateway session and feeds normalized events into the
// detection engine.
type Bot struct {
	Session   *discordgo.Session
	DB        *database.Database
	Redis     *redis.Client
	Cache     *cache.Cache
	Engine    *engine.Engine
	Metrics   *metrics.Registry
	Logger    *zap.Logger
	StartTime time.Time

	// Defaults are the built-in thresholds shown by /sentinel status
	// for actions a guild has not overridden.
	Defaults map[string]int

	mu        sync.RWMutex
	snapshots map[string]*guildSnapshot
}

// New configures the session. The engine is attached separately so its
// collaborators can be built around the session itself.
func New(token string, db *database.Database, rdb *redis.Client, c *cache.Cache, reg *metrics.Registry, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("session error: %w", err)
	}

	// Keep-alive pooled transport: sanctions are latency sensitive.
	tr := &http.Transport{
		MaxIdleConns:          500,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       120 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       100,
		ResponseHeaderTimeout: 5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	s.Client = &http.Client{
		Transport: tr,
		Timeout:   15 * time.Second,
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildBans | // audit log events ride GUILD_MODERATION
		discordgo.IntentsGuildWebhooks

	s.ShouldReconnectOnError = true
	s.ShouldRetryOnRateLimit = true
	s.MaxRestRetries = 3

	// State is used for guild owner and role snapshots.
	s.StateEnabled = true
	s.State.TrackChannels = true
	s.State.TrackRoles = true
	s.State.TrackMembers = false
	s.State.TrackVoice = false
	s.State.TrackPresences = false
	s.State.MaxMessageCount = 0

	return &Bot{
		Session:   s,
		DB:        db,
		Redis:     rdb,
		Cache:     c,
		Metrics:   reg,
		Logger:    logger,
		StartTime: time.Now(),
		snapshots: make(map[string]*guildSnapshot),
	}, nil
}

// Attach wires the engine and registers all gateway handlers.
func (b *Bot) Attach(eng *engine.Engine) {
	b.Engine = eng

	b.Session.AddHandler(b.Ready)
	b.Session.AddHandler(b.GuildCreate)
	b.Session.AddHandler(b.InteractionCreate)

	b.Session.AddHandler(b.ChannelCreate)
	b.Session.AddHandler(b.ChannelDelete)
	b.Session.AddHandler(b.GuildRoleCreate)
	b.Session.AddHandler(b.GuildRoleDelete)
	b.Session.AddHandler(b.GuildRoleUpdate)
	b.Session.AddHandler(b.GuildBanAdd)
	b.Session.AddHandler(b.GuildMemberRemove)
	b.Session.AddHandler(b.GuildMemberAdd)
	b.Session.AddHandler(b.WebhooksUpdate)
	b.Session.AddHandler(b.InviteDelete)
	b.Session.AddHandler(b.GuildUpdate)
	b.Session.AddHandler(b.GuildAuditLogEntryCreate)
	b.Session.AddHandler(b.MessageCreate)
	b.Session.AddHandler(b.MessageDelete)

	// Raw frame peek for ingress metrics, outside the typed handlers.
	b.Session.AddHandler(b.RawEvent)
}

// Start opens the gateway connection and blocks until a signal.
func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("gateway open: %w", err)
	}
	b.Logger.Info("gateway connected")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	b.Logger.Info("shutting down")
	return b.Session.Close()
}
