package domain

import "time"

// SessionStatus is the lifecycle state of an event session.
// Sessions are never deleted, only transitioned.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionFinished SessionStatus = "finished"
)

// Session is one instance of a community event. At most one session per
// guild may be active at a time.
type Session struct {
	ID           int64         `json:"id"`
	GuildID      string        `json:"guild_id"`
	Name         string        `json:"name"`
	Status       SessionStatus `json:"status"`
	CreatedBy    string        `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	FinishedBy   string        `json:"finished_by,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`

	// Reference to the announcement message carrying the join button.
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}
