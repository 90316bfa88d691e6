package domain

import "time"

// ReminderRecord is the durable part of a user's activity-reminder state.
// The volatile message count lives only in memory.
type ReminderRecord struct {
	GuildID        string     `json:"guild_id"`
	UserID         string     `json:"user_id"`
	LastRemindedAt *time.Time `json:"last_reminded_at,omitempty"`
	OptedOut       bool       `json:"opted_out"`
}
