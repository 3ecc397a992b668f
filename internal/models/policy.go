package models

import "fmt"

// Punishment kind constants.
const (
	PunishmentBan        = "ban"
	PunishmentKick       = "kick"
	PunishmentStripRoles = "strip_roles"
	PunishmentTimeout    = "timeout"
)

// GuildPolicy is the per-guild protection configuration. The engine
// re-reads it from the store on every event; it never caches policy.
type GuildPolicy struct {
	GuildID    string
	Enabled    bool
	Punishment string

	// Thresholds maps action kinds (ThresholdKinds) to positive limits.
	// A threshold of 1 means act on the first occurrence.
	Thresholds map[string]int

	GhostPingAlerts bool
	VanityGuard     bool

	AlertChannel string

	CreatedAt int64
	UpdatedAt int64
}

// Threshold returns the configured limit for an action kind, falling
// back to the supplied default when the guild has no row for it.
func (p *GuildPolicy) Threshold(kind string, fallback int) int {
	if p == nil {
		return fallback
	}
	if v, ok := p.Thresholds[kind]; ok && v >= 1 {
		return v
	}
	return fallback
}

// WhitelistEntry marks an actor exempt from detection and punishment.
// The guild owner and the bot itself are implicitly exempt and never
// have a stored entry.
type WhitelistEntry struct {
	ID      int64
	GuildID string
	ActorID string
	AddedBy string
	AddedAt int64
}

// AdminEntry marks an actor allowed to manage whitelist membership via
// the configuration commands. The detection engine never consults it.
type AdminEntry struct {
	ID      int64
	GuildID string
	ActorID string
	AddedBy string
	AddedAt int64
}

// PunishmentDisplayName returns a human-readable name for a punishment.
func PunishmentDisplayName(kind string) string {
	switch kind {
	case PunishmentBan:
		return "Ban"
	case PunishmentKick:
		return "Kick"
	case PunishmentStripRoles:
		return "Strip Roles"
	case PunishmentTimeout:
		return "Timeout"
	default:
		return kind
	}
}

// ValidPunishment reports whether kind is one of the fixed sanctions.
func ValidPunishment(kind string) bool {
	switch kind {
	case PunishmentBan, PunishmentKick, PunishmentStripRoles, PunishmentTimeout:
		return true
	}
	return false
}

// FormatWindow formats a window length in seconds as a readable string.
func FormatWindow(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dh", seconds/3600)
}
