package domain

import "time"

// SanctionCounter is the durable, cross-session memory of how many times a
// user has been sanctioned for a given compliance reason. It survives
// session churn: a user with prior expulsions is fast-tracked toward a
// permanent ban even in a brand-new session.
type SanctionCounter struct {
	GuildID        string     `json:"guild_id"`
	UserID         string     `json:"user_id"`
	Reason         Reason     `json:"reason"`
	Reminders      int        `json:"reminders"`
	Warnings       int        `json:"warnings"`
	Expulsions     int        `json:"expulsions"`
	PermanentBanAt *time.Time `json:"permanent_ban_at,omitempty"`
	LastAction     Action     `json:"last_action,omitempty"`
	LastActionAt   *time.Time `json:"last_action_at,omitempty"`
}

// Banned reports whether the counter carries a permanent-ban marker.
func (c *SanctionCounter) Banned() bool {
	return c != nil && c.PermanentBanAt != nil
}
