package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/platform"
	"eventwarden/internal/queue"
	"eventwarden/internal/repository"
)

var actionTitles = map[domain.Action]string{
	domain.ActionReminder:     "Event verification reminder",
	domain.ActionWarning:      "Event verification warning",
	domain.ActionExpulsion:    "Removed from the event",
	domain.ActionPermanentBan: "Permanently banned from events",
}

var reasonDescriptions = map[domain.Reason]string{
	domain.ReasonMissingTag: "Keep the community tag in your display name for the duration of the event.",
	domain.ReasonMissingBio: "Your profile bio must include the community invite link.",
	domain.ReasonLeftGuild:  "The member is no longer in the guild.",
}

type verificationService struct {
	cfg          *config.Config
	client       platform.Client
	participants repository.ParticipantRepository
	sanctions    repository.SanctionRepository
	sessions     repository.SessionRepository
	checks       repository.VerificationLogRepository
	events       EventService
	notifyQueue  *queue.Queue
	alerts       AlertService

	tagWarnOnce sync.Once
	bioWarnOnce sync.Once
}

func NewVerificationService(
	cfg *config.Config,
	client platform.Client,
	store *repository.Store,
	events EventService,
	notifyQueue *queue.Queue,
	alerts AlertService,
) VerificationService {
	return &verificationService{
		cfg:          cfg,
		client:       client,
		participants: store.Participants,
		sanctions:    store.Sanctions,
		sessions:     store.Sessions,
		checks:       store.Checks,
		events:       events,
		notifyQueue:  notifyQueue,
		alerts:       alerts,
	}
}

// runProtected isolates one unit of sweep work: an error or panic is
// logged and swallowed so it cannot abort sibling evaluations.
func runProtected(scope string, args []any, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Sweep unit panicked", append([]any{"scope", scope, "panic", r}, args...)...)
		}
	}()
	if err := fn(); err != nil {
		logger.Error("Sweep unit failed", append([]any{"scope", scope, "error", err}, args...)...)
	}
}

func (s *verificationService) RunChecks(ctx context.Context) error {
	runID := uuid.NewString()

	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}
	if len(sessions) == 0 {
		logger.Debug("No active sessions to verify", "runID", runID)
		return nil
	}

	logger.Info("Verification sweep started", "runID", runID, "sessions", len(sessions))
	for i := range sessions {
		session := &sessions[i]
		runProtected("session", []any{"runID", runID, "sessionID", session.ID}, func() error {
			return s.verifySession(ctx, runID, session)
		})
	}
	logger.Info("Verification sweep finished", "runID", runID)
	return nil
}

func (s *verificationService) verifySession(ctx context.Context, runID string, session *domain.Session) error {
	participants, err := s.participants.ListForVerification(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}
	if len(participants) == 0 {
		logger.Debug("No participants to verify", "sessionID", session.ID)
		return nil
	}

	for i := range participants {
		p := &participants[i]
		runProtected("participant", []any{"runID", runID, "sessionID", session.ID, "userID", p.UserID}, func() error {
			return s.verifyParticipant(ctx, runID, session, p)
		})
	}
	return nil
}

func (s *verificationService) verifyParticipant(ctx context.Context, runID string, session *domain.Session, p *domain.Participant) error {
	member, err := s.client.Member(ctx, session.GuildID, p.UserID)
	if errors.Is(err, platform.ErrNotFound) {
		return s.expelDeparted(ctx, runID, session, p)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve member: %w", err)
	}

	check := s.evaluateMember(session.GuildID, member)
	counter, err := s.counterFor(ctx, session.GuildID, p.UserID, check)
	if err != nil {
		return err
	}
	decision := domain.Decide(counter, p, check)

	if err := s.checks.RecordCheck(ctx, &domain.CheckRecord{
		RunID:     runID,
		SessionID: session.ID,
		GuildID:   session.GuildID,
		UserID:    p.UserID,
		TagOK:     check.TagOK,
		BioOK:     check.BioOK,
		Action:    decision.Action,
		Details:   string(decision.Reason),
	}); err != nil {
		logger.Warn("Failed to record verification check", "userID", p.UserID, "error", err)
	}

	if err := s.participants.UpdateLastCheck(ctx, session.ID, p.UserID); err != nil {
		logger.Warn("Failed to update last check time", "userID", p.UserID, "error", err)
	}

	if decision.Action == domain.ActionNone {
		logger.Debug("Participant compliant", "sessionID", session.ID, "userID", p.UserID)
		return nil
	}

	return s.applyDecision(ctx, session, p, decision)
}

// expelDeparted handles a member who left the guild: an immediate
// expulsion outcome with no tag/bio evaluation.
func (s *verificationService) expelDeparted(ctx context.Context, runID string, session *domain.Session, p *domain.Participant) error {
	logger.Warn("Participant left the guild, expelling from event",
		"sessionID", session.ID, "userID", p.UserID)

	if err := s.participants.MarkExpulsion(ctx, session.ID, p.UserID, domain.ReasonLeftGuild); err != nil {
		return fmt.Errorf("failed to mark expulsion: %w", err)
	}
	if err := s.checks.RecordCheck(ctx, &domain.CheckRecord{
		RunID:     runID,
		SessionID: session.ID,
		GuildID:   session.GuildID,
		UserID:    p.UserID,
		Action:    domain.ActionExpulsion,
		Details:   string(domain.ReasonLeftGuild),
	}); err != nil {
		logger.Warn("Failed to record verification check", "userID", p.UserID, "error", err)
	}
	s.events.RemoveFromRoster(ctx, session.ID, p.UserID)
	return nil
}

// evaluateMember computes the two independent compliance booleans. An
// unconfigured requirement disables that check with a one-time warning.
func (s *verificationService) evaluateMember(guildID string, member *platform.Member) domain.ComplianceCheck {
	check := domain.ComplianceCheck{TagOK: true, BioOK: true, DisplayName: member.DisplayName}

	requiredTag := s.cfg.RequiredTagFor(guildID)
	if requiredTag == "" {
		s.tagWarnOnce.Do(func() {
			logger.Warn("No required tag configured, tag compliance check disabled")
		})
	} else {
		check.TagOK = strings.Contains(member.DisplayName, requiredTag)
	}

	requiredLink := s.cfg.Event.RequiredBioLink
	if requiredLink == "" {
		s.bioWarnOnce.Do(func() {
			logger.Warn("No required bio link configured, bio compliance check disabled")
		})
	} else {
		check.BioOK = strings.Contains(member.Bio, requiredLink)
	}

	return check
}

func (s *verificationService) counterFor(ctx context.Context, guildID, userID string, check domain.ComplianceCheck) (*domain.SanctionCounter, error) {
	if check.Compliant() {
		return nil, nil
	}
	counter, err := s.sanctions.GetCounter(ctx, guildID, userID, check.FailingReason())
	if err != nil {
		return nil, fmt.Errorf("failed to load sanction counter: %w", err)
	}
	return counter, nil
}

// applyDecision persists the sanction first, then performs role and
// roster side effects, then enqueues notifications. Each notification
// leg is independently best-effort.
func (s *verificationService) applyDecision(ctx context.Context, session *domain.Session, p *domain.Participant, decision domain.Decision) error {
	guildID := session.GuildID
	userID := p.UserID

	switch decision.Action {
	case domain.ActionReminder:
		if err := s.participants.MarkReminder(ctx, session.ID, userID, decision.Reason); err != nil {
			return fmt.Errorf("failed to mark reminder: %w", err)
		}
		s.incrementCounter(ctx, guildID, userID, decision)
	case domain.ActionWarning:
		if err := s.participants.MarkWarning(ctx, session.ID, userID, decision.Reason); err != nil {
			return fmt.Errorf("failed to mark warning: %w", err)
		}
		s.incrementCounter(ctx, guildID, userID, decision)
	case domain.ActionExpulsion:
		if err := s.participants.MarkExpulsion(ctx, session.ID, userID, decision.Reason); err != nil {
			return fmt.Errorf("failed to mark expulsion: %w", err)
		}
		s.incrementCounter(ctx, guildID, userID, decision)
		s.revokeRole(ctx, guildID, userID)
		s.events.RemoveFromRoster(ctx, session.ID, userID)
	case domain.ActionPermanentBan:
		if err := s.participants.MarkPermanentBan(ctx, session.ID, userID, decision.Reason); err != nil {
			return fmt.Errorf("failed to mark permanent ban: %w", err)
		}
		if err := s.sanctions.MarkPermanentBan(ctx, guildID, userID, decision.Reason); err != nil {
			logger.Error("Failed to persist permanent ban marker", "userID", userID, "error", err)
		}
		s.revokeRole(ctx, guildID, userID)
		s.events.RemoveFromRoster(ctx, session.ID, userID)
		if s.alerts != nil {
			runProtected("alert", []any{"userID", userID}, func() error {
				return s.alerts.PermanentBan(ctx, guildID, userID, decision.Reason)
			})
		}
	default:
		logger.Debug("No side effects for action", "action", decision.Action)
		return nil
	}

	s.notify(guildID, userID, decision)
	logger.Info("Sanction applied",
		"sessionID", session.ID, "userID", userID,
		"action", decision.Action, "reason", decision.Reason)
	return nil
}

func (s *verificationService) incrementCounter(ctx context.Context, guildID, userID string, decision domain.Decision) {
	if err := s.sanctions.Increment(ctx, guildID, userID, decision.Reason, decision.Action); err != nil {
		logger.Error("Failed to increment sanction counter",
			"userID", userID, "reason", decision.Reason, "error", err)
	}
}

func (s *verificationService) revokeRole(ctx context.Context, guildID, userID string) {
	roleID := s.cfg.Event.RoleID
	if roleID == "" {
		return
	}
	if err := s.client.RevokeRole(ctx, guildID, userID, roleID); err != nil {
		logger.Error("Failed to revoke event role", "userID", userID, "error", err)
	}
}

// notify enqueues a direct message and, when a control channel is
// configured, a mirrored notice. Queue backpressure drops the leg.
func (s *verificationService) notify(guildID, userID string, decision domain.Decision) {
	notice := platform.Notice{
		Title:       actionTitles[decision.Action],
		Description: reasonDescriptions[decision.Reason],
		GuildID:     guildID,
		UserID:      userID,
		Mention:     true,
	}

	if !s.notifyQueue.Push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.client.SendDirect(ctx, userID, notice); err != nil {
			logger.Warn("Failed to send sanction DM", "userID", userID, "error", err)
		}
	}) {
		logger.Warn("Sanction DM dropped due to queue backpressure", "userID", userID)
	}

	controlChannel := s.cfg.ControlChannelFor(guildID)
	if controlChannel == "" {
		return
	}
	if !s.notifyQueue.Push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.client.SendChannel(ctx, controlChannel, notice); err != nil {
			logger.Warn("Failed to mirror sanction notice", "channelID", controlChannel, "error", err)
		}
	}) {
		logger.Warn("Sanction notice dropped due to queue backpressure", "channelID", controlChannel)
	}
}
