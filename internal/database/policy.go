package database

import (
	"context"
	"database/sql"
	"time"

	"discord-sentinel-bot/internal/models"
)

// GetPolicy loads the full guild policy: the config row plus all
// threshold rows. A guild with no config row gets a disabled default.
func (d *Database) GetPolicy(ctx context.Context, guildID string) (*models.GuildPolicy, error) {
	policy := &models.GuildPolicy{
		GuildID:    guildID,
		Punishment: models.PunishmentBan,
		Thresholds: make(map[string]int),
	}

	err := d.db.QueryRowContext(ctx, `
		SELECT enabled, punishment, ghost_ping_alerts, vanity_guard, alert_channel, created_at, updated_at
		FROM sentinel_config
		WHERE guild_id = $1
	`, guildID).Scan(
		&policy.Enabled, &policy.Punishment, &policy.GhostPingAlerts,
		&policy.VanityGuard, &policy.AlertChannel,
		&policy.CreatedAt, &policy.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return policy, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT action_kind, threshold
		FROM sentinel_thresholds
		WHERE guild_id = $1
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var threshold int
		if err := rows.Scan(&kind, &threshold); err != nil {
			return nil, err
		}
		policy.Thresholds[kind] = threshold
	}
	return policy, rows.Err()
}

// EnableSentinel turns protection on for a guild, creating the config
// row if needed.
func (d *Database) EnableSentinel(ctx context.Context, guildID string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_config (guild_id, enabled, created_at, updated_at)
		VALUES ($1, true, $2, $2)
		ON CONFLICT (guild_id) DO UPDATE
		SET enabled = true, updated_at = $2
	`, guildID, now)
	return err
}

// DisableSentinel turns protection off for a guild.
func (d *Database) DisableSentinel(ctx context.Context, guildID string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		UPDATE sentinel_config
		SET enabled = false, updated_at = $1
		WHERE guild_id = $2
	`, now, guildID)
	return err
}

// SetPunishment sets the sanction kind applied on violations.
func (d *Database) SetPunishment(ctx context.Context, guildID, kind string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_config (guild_id, punishment, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (guild_id) DO UPDATE
		SET punishment = $2, updated_at = $3
	`, guildID, kind, now)
	return err
}

// SetThreshold sets the numeric limit for one action kind.
func (d *Database) SetThreshold(ctx context.Context, guildID, kind string, threshold int) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_thresholds (guild_id, action_kind, threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (guild_id, action_kind) DO UPDATE
		SET threshold = $3, updated_at = $4
	`, guildID, kind, threshold, now)
	return err
}

// SetGhostPingAlerts toggles ghost-ping alerting.
func (d *Database) SetGhostPingAlerts(ctx context.Context, guildID string, enabled bool) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_config (guild_id, ghost_ping_alerts, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (guild_id) DO UPDATE
		SET ghost_ping_alerts = $2, updated_at = $3
	`, guildID, enabled, now)
	return err
}

// SetVanityGuard toggles the vanity URL guard.
func (d *Database) SetVanityGuard(ctx context.Context, guildID string, enabled bool) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_config (guild_id, vanity_guard, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (guild_id) DO UPDATE
		SET vanity_guard = $2, updated_at = $3
	`, guildID, enabled, now)
	return err
}

// SetAlertChannel sets where findings are posted.
func (d *Database) SetAlertChannel(ctx context.Context, guildID, channelID string) error {
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sentinel_config (guild_id, alert_channel, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (guild_id) DO UPDATE
		SET alert_channel = $2, updated_at = $3
	`, guildID, channelID, now)
	return err
}

// AlertChannel returns the configured log channel, empty when none.
func (d *Database) AlertChannel(ctx context.Context, guildID string) (string, error) {
	var channelID string
	err := d.db.QueryRowContext(ctx, `
		SELECT alert_channel FROM sentinel_config WHERE guild_id = $1
	`, guildID).Scan(&channelID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return channelID, err
}
