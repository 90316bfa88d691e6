package repository

import (
	"context"

	"eventwarden/internal/domain"
)

// SessionRepository tracks event sessions and their lifecycle.
type SessionRepository interface {
	// Create inserts a new active session and fills in its ID.
	Create(ctx context.Context, s *domain.Session) error
	// FindActive returns the active session for a guild, or nil when none.
	FindActive(ctx context.Context, guildID string) (*domain.Session, error)
	ListActive(ctx context.Context) ([]domain.Session, error)
	AttachMessage(ctx context.Context, sessionID int64, channelID, messageID string) error
	Finish(ctx context.Context, sessionID int64, finishedBy, reason string) error
}

// ParticipantRepository tracks enrollment and per-session escalation state.
type ParticipantRepository interface {
	// Upsert enrolls a user, resetting their state to active on rejoin.
	Upsert(ctx context.Context, sessionID int64, guildID, userID string) error
	// ListForVerification returns participants still subject to sweeps.
	ListForVerification(ctx context.Context, sessionID int64) ([]domain.Participant, error)
	// ListCurrent returns the user IDs shown on the announcement roster.
	ListCurrent(ctx context.Context, sessionID int64) ([]string, error)
	MarkReminder(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error
	MarkWarning(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error
	MarkExpulsion(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error
	MarkPermanentBan(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error
	// ClearState resets a participant to active with zeroed counters.
	ClearState(ctx context.Context, sessionID int64, userID string) error
	UpdateLastCheck(ctx context.Context, sessionID int64, userID string) error
}

// SanctionRepository tracks durable per-reason sanction counters.
type SanctionRepository interface {
	// GetCounter returns the counter for one reason, or nil when absent.
	GetCounter(ctx context.Context, guildID, userID string, reason domain.Reason) (*domain.SanctionCounter, error)
	// Increment atomically bumps the column matching the action.
	Increment(ctx context.Context, guildID, userID string, reason domain.Reason, action domain.Action) error
	MarkPermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error
	// ClearCounters zeroes counters and the ban marker. An empty reason
	// clears every reason for the user.
	ClearCounters(ctx context.Context, guildID, userID string, reason domain.Reason) error
	// IsPermanentlyBanned reports a ban under any reason.
	IsPermanentlyBanned(ctx context.Context, guildID, userID string) (bool, error)
}

// VerificationLogRepository appends audit rows for sweep evaluations.
type VerificationLogRepository interface {
	RecordCheck(ctx context.Context, rec *domain.CheckRecord) error
}

// ReminderRepository persists the durable part of activity-reminder state.
type ReminderRepository interface {
	// Get returns the record for a key, or nil when absent.
	Get(ctx context.Context, guildID, userID string) (*domain.ReminderRecord, error)
	MarkSent(ctx context.Context, guildID, userID string) error
	MarkOptOut(ctx context.Context, guildID, userID string) error
}

// StaffActionRepository appends audit rows for administrative resets.
type StaffActionRepository interface {
	LogAmnesty(ctx context.Context, a *domain.StaffAmnesty) error
}

// Store bundles all repositories behind one handle.
type Store struct {
	Sessions     SessionRepository
	Participants ParticipantRepository
	Sanctions    SanctionRepository
	Checks       VerificationLogRepository
	Reminders    ReminderRepository
	StaffActions StaffActionRepository
}
