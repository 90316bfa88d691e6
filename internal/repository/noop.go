package repository

import (
	"context"

	"eventwarden/internal/domain"
)

// NewNoopStore returns a store whose writes do nothing and whose reads
// return empty results. Used when no database is configured: sessions
// still work in memory, with audit and cross-session memory disabled.
func NewNoopStore() *Store {
	return &Store{
		Sessions:     noopSessions{},
		Participants: noopParticipants{},
		Sanctions:    noopSanctions{},
		Checks:       noopChecks{},
		Reminders:    noopReminders{},
		StaffActions: noopStaffActions{},
	}
}

type noopSessions struct{}

func (noopSessions) Create(ctx context.Context, s *domain.Session) error { return nil }
func (noopSessions) FindActive(ctx context.Context, guildID string) (*domain.Session, error) {
	return nil, nil
}
func (noopSessions) ListActive(ctx context.Context) ([]domain.Session, error) { return nil, nil }
func (noopSessions) AttachMessage(ctx context.Context, sessionID int64, channelID, messageID string) error {
	return nil
}
func (noopSessions) Finish(ctx context.Context, sessionID int64, finishedBy, reason string) error {
	return nil
}

type noopParticipants struct{}

func (noopParticipants) Upsert(ctx context.Context, sessionID int64, guildID, userID string) error {
	return nil
}
func (noopParticipants) ListForVerification(ctx context.Context, sessionID int64) ([]domain.Participant, error) {
	return nil, nil
}
func (noopParticipants) ListCurrent(ctx context.Context, sessionID int64) ([]string, error) {
	return nil, nil
}
func (noopParticipants) MarkReminder(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	return nil
}
func (noopParticipants) MarkWarning(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	return nil
}
func (noopParticipants) MarkExpulsion(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	return nil
}
func (noopParticipants) MarkPermanentBan(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	return nil
}
func (noopParticipants) ClearState(ctx context.Context, sessionID int64, userID string) error {
	return nil
}
func (noopParticipants) UpdateLastCheck(ctx context.Context, sessionID int64, userID string) error {
	return nil
}

type noopSanctions struct{}

func (noopSanctions) GetCounter(ctx context.Context, guildID, userID string, reason domain.Reason) (*domain.SanctionCounter, error) {
	return nil, nil
}
func (noopSanctions) Increment(ctx context.Context, guildID, userID string, reason domain.Reason, action domain.Action) error {
	return nil
}
func (noopSanctions) MarkPermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	return nil
}
func (noopSanctions) ClearCounters(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	return nil
}
func (noopSanctions) IsPermanentlyBanned(ctx context.Context, guildID, userID string) (bool, error) {
	return false, nil
}

type noopChecks struct{}

func (noopChecks) RecordCheck(ctx context.Context, rec *domain.CheckRecord) error { return nil }

type noopReminders struct{}

func (noopReminders) Get(ctx context.Context, guildID, userID string) (*domain.ReminderRecord, error) {
	return nil, nil
}
func (noopReminders) MarkSent(ctx context.Context, guildID, userID string) error   { return nil }
func (noopReminders) MarkOptOut(ctx context.Context, guildID, userID string) error { return nil }

type noopStaffActions struct{}

func (noopStaffActions) LogAmnesty(ctx context.Context, a *domain.StaffAmnesty) error { return nil }
