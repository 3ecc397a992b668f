package database

import (
	"context"
	"database/sql"
	"time"

	"discord-sentinel-bot/internal/models"
)

// IsWhitelisted reports whether the actor has a stored exemption. The
// guild owner and the bot itself are implicitly exempt and never have
// a row here.
func (d *Database) IsWhitelisted(ctx context.Context, guildID, actorID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `
		SELECT 1 FROM sentinel_whitelist
		WHERE guild_id = $1 AND actor_id = $2
	`, guildID, actorID).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// AddWhitelist exempts an actor.
func (d *Database) AddWhitelist(ctx context.Context, guildID, actorID, addedBy string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_whitelist (guild_id, actor_id, added_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, actor_id) DO NOTHING
	`, guildID, actorID, addedBy, now)
	return err
}

// RemoveWhitelist revokes an exemption.
func (d *Database) RemoveWhitelist(ctx context.Context, guildID, actorID string) error {
	_, err := d.db.ExecContext(ctx, `
		DELETE FROM sentinel_whitelist
		WHERE guild_id = $1 AND actor_id = $2
	`, guildID, actorID)
	return err
}

// Whitelist lists a guild's exempt actors, newest first.
func (d *Database) Whitelist(ctx context.Context, guildID string) ([]*models.WhitelistEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, actor_id, added_by, created_at
		FROM sentinel_whitelist
		WHERE guild_id = $1
		ORDER BY created_at DESC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.WhitelistEntry
	for rows.Next() {
		entry := &models.WhitelistEntry{GuildID: guildID}
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.AddedBy, &entry.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// IsAdmin reports whether the actor may manage whitelist membership.
// Consulted by the configuration commands only, never by detection.
func (d *Database) IsAdmin(ctx context.Context, guildID, actorID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `
		SELECT 1 FROM sentinel_admins
		WHERE guild_id = $1 AND actor_id = $2
	`, guildID, actorID).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// AddAdmin grants whitelist management rights.
func (d *Database) AddAdmin(ctx context.Context, guildID, actorID, addedBy string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_admins (guild_id, actor_id, added_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, actor_id) DO NOTHING
	`, guildID, actorID, addedBy, now)
	return err
}

// RemoveAdmin revokes whitelist management rights.
func (d *Database) RemoveAdmin(ctx context.Context, guildID, actorID string) error {
	_, err := d.db.ExecContext(ctx, `
		DELETE FROM sentinel_admins
		WHERE guild_id = $1 AND actor_id = $2
	`, guildID, actorID)
	return err
}

// Admins lists a guild's delegated admins, newest first.
func (d *Database) Admins(ctx context.Context, guildID string) ([]*models.AdminEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, actor_id, added_by, created_at
		FROM sentinel_admins
		WHERE guild_id = $1
		ORDER BY created_at DESC
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AdminEntry
	for rows.Next() {
		entry := &models.AdminEntry{GuildID: guildID}
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.AddedBy, &entry.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
