package domain

import "time"

// ParticipantState is the escalation state of a user within one session.
type ParticipantState string

const (
	ParticipantActive   ParticipantState = "active"
	ParticipantReminded ParticipantState = "reminded"
	ParticipantWarned   ParticipantState = "warned"
	ParticipantExpelled ParticipantState = "expelled"
	ParticipantBanned   ParticipantState = "banned"
)

// Participant is a user enrolled in an event session. Per-session counters
// are scoped to this enrollment; cross-session history lives in
// SanctionCounter.
type Participant struct {
	SessionID       int64            `json:"session_id"`
	GuildID         string           `json:"guild_id"`
	UserID          string           `json:"user_id"`
	State           ParticipantState `json:"state"`
	RemindersSent   int              `json:"reminders_sent"`
	WarningsSent    int              `json:"warnings_sent"`
	ExpulsionsCount int              `json:"expulsions_count"`
	LastStateReason string           `json:"last_state_reason,omitempty"`
	LastCheckAt     *time.Time       `json:"last_check_at,omitempty"`
	JoinedAt        time.Time        `json:"joined_at"`
}

// UnderSweep reports whether the participant is still subject to
// verification sweeps. Expelled and banned participants are excluded.
func (p *Participant) UnderSweep() bool {
	switch p.State {
	case ParticipantActive, ParticipantReminded, ParticipantWarned:
		return true
	}
	return false
}
