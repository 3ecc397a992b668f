package models

import "time"

// Action kind constants. These key the per-guild threshold table and the
// rate tracker; one constant per monitored rule.
const (
	ActionChannelDelete  = "channel_delete"
	ActionChannelCreate  = "channel_create"
	ActionRoleDelete     = "role_delete"
	ActionRoleCreate     = "role_create"
	ActionRoleRename     = "role_rename"
	ActionBanMembers     = "ban_members"
	ActionKickMembers    = "kick_members"
	ActionBotAdd         = "bot_add"
	ActionWebhookCreate  = "webhook_create"
	ActionMassMention    = "mass_mention"
	ActionMemberPrune    = "member_prune"
	ActionInviteDelete   = "invite_delete"
	ActionServerRename   = "server_rename"
	ActionGhostPing      = "ghost_ping"
	ActionDangerousPerms = "dangerous_perms"
)

// Event is the normalized internal event every rule handler consumes.
// A thin adapter at the gateway boundary produces these from raw
// discordgo payloads so the rules never read platform shapes ad hoc.
type Event struct {
	GuildID string
	Kind    string

	// ActorID is set only when the platform event itself identifies the
	// responsible user (message author, prune executor). Empty means the
	// rule must go through the attribution resolver.
	ActorID string

	// TargetID is the mutated entity (channel, role, member, message),
	// used to match audit entries and to drive revocation.
	TargetID string

	// TargetDescription is a human-readable label for alerts.
	TargetDescription string

	// Magnitude carries direct-measure rules: mention count for
	// mass_mention, members removed for member_prune. Zero for
	// per-occurrence rules.
	Magnitude int

	// ChannelID is the channel the event occurred in, when there is one.
	ChannelID string

	// PriorValue holds the pre-mutation value for revert-capable rules
	// (vanity URL code before a guild update).
	PriorValue string

	// ActorTag, Mentions, and Content are set by message events only.
	ActorTag string
	Mentions []string
	Content  string

	ReceivedAt time.Time
}

// ThresholdKinds lists the action kinds carrying a configurable numeric
// threshold. Ghost pings are toggle-gated and alert-only; dangerous
// permission grants always act on the first occurrence.
func ThresholdKinds() []string {
	return []string{
		ActionChannelDelete,
		ActionChannelCreate,
		ActionRoleDelete,
		ActionRoleCreate,
		ActionRoleRename,
		ActionBanMembers,
		ActionKickMembers,
		ActionBotAdd,
		ActionWebhookCreate,
		ActionMassMention,
		ActionMemberPrune,
		ActionInviteDelete,
		ActionServerRename,
	}
}

// ActionDisplayName returns a human-readable name for an action kind.
func ActionDisplayName(kind string) string {
	switch kind {
	case ActionChannelDelete:
		return "Deleting Channels"
	case ActionChannelCreate:
		return "Creating Channels"
	case ActionRoleDelete:
		return "Deleting Roles"
	case ActionRoleCreate:
		return "Creating Roles"
	case ActionRoleRename:
		return "Renaming Roles"
	case ActionBanMembers:
		return "Banning Members"
	case ActionKickMembers:
		return "Kicking Members"
	case ActionBotAdd:
		return "Adding Bots"
	case ActionWebhookCreate:
		return "Creating Webhooks"
	case ActionMassMention:
		return "Mass Mentions"
	case ActionMemberPrune:
		return "Pruning Members"
	case ActionInviteDelete:
		return "Deleting Invites"
	case ActionServerRename:
		return "Renaming Server"
	case ActionGhostPing:
		return "Ghost Ping"
	case ActionDangerousPerms:
		return "Dangerous Permissions"
	default:
		return kind
	}
}
