package models

import "time"

// Finding is a detected rule violation, driving alerting and punishment.
type Finding struct {
	Rule       string // action kind that fired
	GuildID    string
	GuildName  string
	ActorID    string
	ActorTag   string
	Target     string // description of the mutated entity
	Punishment string // empty for alert-only findings
	Count      int    // observed count inside the window
	Threshold  int
	ChannelID  string   // origin channel, ghost pings only
	Mentions   []string // mentioned names, ghost pings only
	At         time.Time
}
