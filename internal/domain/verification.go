package domain

import "time"

// Action is the sanction decided by one verification check.
type Action string

const (
	ActionNone         Action = "none"
	ActionReminder     Action = "reminder"
	ActionWarning      Action = "warning"
	ActionExpulsion    Action = "expulsion"
	ActionPermanentBan Action = "permanent_ban"
)

// Reason is the compliance requirement a user is failing.
type Reason string

const (
	ReasonMissingTag Reason = "missing_tag"
	ReasonMissingBio Reason = "missing_bio"
	ReasonLeftGuild  Reason = "left_guild"
)

// ComplianceCheck is the result of evaluating a member's live profile
// against the guild's requirements.
type ComplianceCheck struct {
	TagOK       bool
	BioOK       bool
	DisplayName string
}

// Compliant reports whether both requirements are satisfied.
func (c ComplianceCheck) Compliant() bool {
	return c.TagOK && c.BioOK
}

// FailingReason picks the tracked reason for a non-compliant check.
// A missing tag takes priority when both requirements fail.
func (c ComplianceCheck) FailingReason() Reason {
	if !c.TagOK {
		return ReasonMissingTag
	}
	return ReasonMissingBio
}

// Decision is the outcome of the escalation state machine for one
// participant evaluation.
type Decision struct {
	Action Action
	Reason Reason
}

// Decide runs the escalation ladder for a non-compliant participant.
// Effective counts are the worse of the cross-session counter and the
// per-session participant counters, so history survives session churn.
// The ladder is reminder, warning, up to three expulsions, then a
// permanent ban. counter may be nil when no history exists yet.
func Decide(counter *SanctionCounter, p *Participant, check ComplianceCheck) Decision {
	if check.Compliant() {
		return Decision{Action: ActionNone}
	}

	reason := check.FailingReason()

	reminders := p.RemindersSent
	warnings := p.WarningsSent
	expulsions := p.ExpulsionsCount
	if counter != nil {
		reminders = max(reminders, counter.Reminders)
		warnings = max(warnings, counter.Warnings)
		expulsions = max(expulsions, counter.Expulsions)
	}

	switch {
	case counter.Banned() || expulsions >= 3:
		return Decision{Action: ActionPermanentBan, Reason: reason}
	case reminders < 1:
		return Decision{Action: ActionReminder, Reason: reason}
	case warnings < 1:
		return Decision{Action: ActionWarning, Reason: reason}
	case expulsions < 3:
		return Decision{Action: ActionExpulsion, Reason: reason}
	default:
		return Decision{Action: ActionPermanentBan, Reason: reason}
	}
}

// CheckRecord is an append-only audit row for one sweep evaluation.
type CheckRecord struct {
	RunID     string    `json:"run_id"`
	SessionID int64     `json:"session_id"`
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	TagOK     bool      `json:"tag_ok"`
	BioOK     bool      `json:"bio_ok"`
	Action    Action    `json:"action_taken"`
	Details   string    `json:"details,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
