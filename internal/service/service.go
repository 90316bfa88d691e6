package service

import (
	"context"
	"errors"

	"eventwarden/internal/domain"
)

var (
	// ErrSessionActive is returned when publishing while a session is
	// already active for the guild.
	ErrSessionActive = errors.New("an event session is already active")
	// ErrNoActiveSession is returned when an operation needs an active
	// session and none exists.
	ErrNoActiveSession = errors.New("no active event session")
	// ErrPermanentlyBanned is returned when a banned user tries to join.
	ErrPermanentlyBanned = errors.New("user is permanently banned from events")
	// ErrRoleNotConfigured is returned when no event role is configured.
	ErrRoleNotConfigured = errors.New("no event role configured")
)

// JoinResult tells the caller whether the user joined now or was already
// enrolled.
type JoinResult struct {
	Session       *domain.Session
	AlreadyJoined bool
}

type EventService interface {
	// Resume reloads active sessions after a restart and re-attaches
	// their announcement references.
	Resume(ctx context.Context) error
	Publish(ctx context.Context, guildID, channelID, actorID string) (*domain.Session, error)
	Finish(ctx context.Context, guildID, actorID, reason string) (*domain.Session, error)
	Join(ctx context.Context, guildID, channelID, messageID, userID string) (*JoinResult, error)
	// RemoveFromRoster drops a user from the announcement roster after a
	// sanction removed them from the session.
	RemoveFromRoster(ctx context.Context, sessionID int64, userID string)
	ActiveSession(ctx context.Context, guildID string) (*domain.Session, error)
}

type VerificationService interface {
	// RunChecks executes one compliance sweep over all active sessions.
	RunChecks(ctx context.Context) error
}

type ReminderService interface {
	// HandleActivity processes one qualifying chat message and may
	// dispatch a join reminder once the threshold is reached.
	HandleActivity(ctx context.Context, guildID, channelID, userID string) error
	// OptOut stops reminders for a user. It reports whether the user had
	// already opted out.
	OptOut(ctx context.Context, guildID, userID string) (bool, error)
}

type AmnestyService interface {
	// ClearForReason resets sanction counters for one reason, or for all
	// reasons when reason is empty, and resets the user's participant
	// state in the active session if enrolled.
	ClearForReason(ctx context.Context, guildID, userID, moderatorID string, reason domain.Reason, note string) error
	// Unban removes the permanent-ban consequence by clearing every
	// reason's counters for the user.
	Unban(ctx context.Context, guildID, userID, moderatorID string) error
}

// AlertService notifies operators out-of-band about severe sanctions.
type AlertService interface {
	PermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error
}
