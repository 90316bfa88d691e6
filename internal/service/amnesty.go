package service

import (
	"context"
	"fmt"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type amnestyService struct {
	cfg          *config.Config
	sessions     repository.SessionRepository
	participants repository.ParticipantRepository
	sanctions    repository.SanctionRepository
	staff        repository.StaffActionRepository
}

func NewAmnestyService(cfg *config.Config, store *repository.Store) AmnestyService {
	return &amnestyService{
		cfg:          cfg,
		sessions:     store.Sessions,
		participants: store.Participants,
		sanctions:    store.Sanctions,
		staff:        store.StaffActions,
	}
}

// ClearForReason zeroes the durable counters for one reason, or for all
// reasons when reason is empty, and resets the user's escalation state in
// the guild's active session if they are enrolled. Every grant leaves an
// audit row.
func (s *amnestyService) ClearForReason(ctx context.Context, guildID, userID, moderatorID string, reason domain.Reason, note string) error {
	if err := s.sanctions.ClearCounters(ctx, guildID, userID, reason); err != nil {
		return fmt.Errorf("failed to clear sanction counters: %w", err)
	}

	s.resetActiveParticipant(ctx, guildID, userID)

	action := domain.AmnestyResetVerification
	if reason != "" {
		action = domain.AmnestyRemoveReason
	}
	s.logAmnesty(ctx, &domain.StaffAmnesty{
		GuildID:     guildID,
		ModeratorID: moderatorID,
		UserID:      userID,
		Action:      action,
		Reason:      string(reason),
		Note:        note,
	})

	logger.Info("Amnesty granted",
		"guildID", guildID, "userID", userID,
		"moderatorID", moderatorID, "reason", reason)
	return nil
}

// Unban lifts the permanent-ban consequence by clearing every reason's
// counters and ban markers, so the next sweep starts the ladder fresh.
func (s *amnestyService) Unban(ctx context.Context, guildID, userID, moderatorID string) error {
	if err := s.sanctions.ClearCounters(ctx, guildID, userID, ""); err != nil {
		return fmt.Errorf("failed to clear sanction counters: %w", err)
	}

	s.resetActiveParticipant(ctx, guildID, userID)

	s.logAmnesty(ctx, &domain.StaffAmnesty{
		GuildID:     guildID,
		ModeratorID: moderatorID,
		UserID:      userID,
		Action:      domain.AmnestyEventUnban,
	})

	logger.Info("Event ban lifted",
		"guildID", guildID, "userID", userID, "moderatorID", moderatorID)
	return nil
}

// resetActiveParticipant puts the user back to active state in the
// guild's running session, if any. Absence of a session or enrollment is
// not an error.
func (s *amnestyService) resetActiveParticipant(ctx context.Context, guildID, userID string) {
	session, err := s.sessions.FindActive(ctx, guildID)
	if err != nil {
		logger.Warn("Failed to resolve active session during amnesty",
			"guildID", guildID, "error", err)
		return
	}
	if session == nil {
		return
	}
	if err := s.participants.ClearState(ctx, session.ID, userID); err != nil {
		logger.Warn("Failed to reset participant state during amnesty",
			"sessionID", session.ID, "userID", userID, "error", err)
	}
}

func (s *amnestyService) logAmnesty(ctx context.Context, a *domain.StaffAmnesty) {
	if err := s.staff.LogAmnesty(ctx, a); err != nil {
		logger.Error("Failed to record amnesty audit row",
			"userID", a.UserID, "action", a.Action, "error", err)
	}
}
