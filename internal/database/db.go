package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Database wraps the Postgres connection holding the sentinel
// configuration rows. Detection state itself is never persisted.
type Database struct {
	db *sql.DB
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

const schema = `
-- Per-guild protection configuration
CREATE TABLE IF NOT EXISTS sentinel_config (
    guild_id TEXT PRIMARY KEY,
    enabled BOOLEAN NOT NULL DEFAULT false,
    punishment TEXT NOT NULL DEFAULT 'ban',
    ghost_ping_alerts BOOLEAN NOT NULL DEFAULT false,
    vanity_guard BOOLEAN NOT NULL DEFAULT false,
    alert_channel TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

-- Per-action numeric thresholds
CREATE TABLE IF NOT EXISTS sentinel_thresholds (
    id SERIAL PRIMARY KEY,
    guild_id TEXT NOT NULL,
    action_kind TEXT NOT NULL,
    threshold INTEGER NOT NULL CHECK (threshold >= 1),
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE(guild_id, action_kind)
);

-- Actors exempt from detection and punishment
CREATE TABLE IF NOT EXISTS sentinel_whitelist (
    id SERIAL PRIMARY KEY,
    guild_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    added_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE(guild_id, actor_id)
);

-- Actors allowed to manage the whitelist via commands
CREATE TABLE IF NOT EXISTS sentinel_admins (
    id SERIAL PRIMARY KEY,
    guild_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    added_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE(guild_id, actor_id)
);

CREATE INDEX IF NOT EXISTS idx_thresholds_guild ON sentinel_thresholds(guild_id);
CREATE INDEX IF NOT EXISTS idx_whitelist_guild ON sentinel_whitelist(guild_id);
CREATE INDEX IF NOT EXISTS idx_admins_guild ON sentinel_admins(guild_id);
`

// NewDatabase opens the connection and bootstraps the schema.
func NewDatabase(cfg PostgresConfig) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Ping verifies the connection is alive.
func (d *Database) Ping() error {
	return d.db.Ping()
}

// Close releases the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}
