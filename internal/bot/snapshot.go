package bot

import "github.com/bwmarrin/discordgo"

// Dangerous permission bits: a role gaining any of these is treated as
// a privilege-escalation attempt.
const dangerousPerms = discordgo.PermissionAdministrator |
	discordgo.PermissionManageServer |
	discordgo.PermissionManageRoles |
	discordgo.PermissionManageWebhooks |
	discordgo.PermissionBanMembers

// guildSnapshot holds the pre-mutation values rename and permission
// rules need, since gateway updates carry only the new state.
type guildSnapshot struct {
	name      string
	vanity    string
	roleNames map[string]string
	rolePerms map[string]int64
}

func (b *Bot) seedSnapshot(g *discordgo.Guild) {
	snap := &guildSnapshot{
		name:      g.Name,
		vanity:    g.VanityURLCode,
		roleNames: make(map[string]string, len(g.Roles)),
		rolePerms: make(map[string]int64, len(g.Roles)),
	}
	for _, r := range g.Roles {
		snap.roleNames[r.ID] = r.Name
		snap.rolePerms[r.ID] = r.Permissions
	}

	b.mu.Lock()
	b.snapshots[g.ID] = snap
	b.mu.Unlock()
}

// roleBefore returns the prior name and permissions of a role and then
// records the new values.
func (b *Bot) roleBefore(guildID string, role *discordgo.Role) (name string, perms int64, known bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, ok := b.snapshots[guildID]
	if !ok {
		snap = &guildSnapshot{
			roleNames: make(map[string]string),
			rolePerms: make(map[string]int64),
		}
		b.snapshots[guildID] = snap
	}
	name, known = snap.roleNames[role.ID]
	perms = snap.rolePerms[role.ID]
	snap.roleNames[role.ID] = role.Name
	snap.rolePerms[role.ID] = role.Permissions
	return name, perms, known
}

// guildBefore returns the prior name and vanity code and records the
// new values.
func (b *Bot) guildBefore(g *discordgo.Guild) (name, vanity string, known bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap, ok := b.snapshots[g.ID]
	if !ok {
		snap = &guildSnapshot{
			roleNames: make(map[string]string),
			rolePerms: make(map[string]int64),
		}
		b.snapshots[g.ID] = snap
	}
	name, vanity = snap.name, snap.vanity
	snap.name, snap.vanity = g.Name, g.VanityURLCode
	return name, vanity, ok
}

func (b *Bot) forgetRole(guildID, roleID string) {
	b.mu.Lock()
	if snap, ok := b.snapshots[guildID]; ok {
		delete(snap.roleNames, roleID)
		delete(snap.rolePerms, roleID)
	}
	b.mu.Unlock()
}
