package domain

import "time"

// AmnestyAction identifies the kind of administrative reset performed.
type AmnestyAction string

const (
	AmnestyResetVerification AmnestyAction = "reset_verification"
	AmnestyRemoveReason      AmnestyAction = "remove_verification_warn"
	AmnestyEventUnban        AmnestyAction = "event_unban"
)

// StaffAmnesty is an append-only audit row for an administrative
// sanction reset.
type StaffAmnesty struct {
	ID          int64         `json:"id"`
	GuildID     string        `json:"guild_id"`
	ModeratorID string        `json:"moderator_id"`
	UserID      string        `json:"user_id"`
	Action      AmnestyAction `json:"action"`
	Reason      string        `json:"reason,omitempty"`
	Note        string        `json:"note,omitempty"`
	Reference   string        `json:"target_reference,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
