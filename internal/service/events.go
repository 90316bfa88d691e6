package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/platform"
	"eventwarden/internal/repository"
)

const rosterDisplayLimit = 20

const announcementDescription = "Keep the community tag in your display name and the invite link " +
	"in your bio while the event runs. Press the button below to join."

// sessionRef is the in-memory reference to a session's announcement
// message.
type sessionRef struct {
	guildID   string
	channelID string
	messageID string
}

type eventService struct {
	cfg          *config.Config
	client       platform.Client
	sessions     repository.SessionRepository
	participants repository.ParticipantRepository
	sanctions    repository.SanctionRepository

	// Explicit application state, populated on Resume and mutated only
	// through this service's methods.
	mu            sync.Mutex
	sessionIndex  map[int64]sessionRef
	messageIndex  map[string]int64
	activeByGuild map[string]int64
	rosters       map[int64][]string
	memSeq        int64
}

func NewEventService(cfg *config.Config, client platform.Client, store *repository.Store) EventService {
	return &eventService{
		cfg:           cfg,
		client:        client,
		sessions:      store.Sessions,
		participants:  store.Participants,
		sanctions:     store.Sanctions,
		sessionIndex:  make(map[int64]sessionRef),
		messageIndex:  make(map[string]int64),
		activeByGuild: make(map[string]int64),
		rosters:       make(map[int64][]string),
	}
}

func (s *eventService) Resume(ctx context.Context) error {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}

	for _, session := range sessions {
		s.cacheSession(&session)

		if session.MessageID == "" || session.ChannelID == "" {
			continue
		}

		roster, err := s.participants.ListCurrent(ctx, session.ID)
		if err != nil {
			logger.Warn("Failed to load roster for resumed session",
				"sessionID", session.ID, "error", err)
			continue
		}

		s.mu.Lock()
		s.rosters[session.ID] = roster
		s.mu.Unlock()

		if len(roster) > 0 {
			if err := s.refreshAnnouncement(ctx, session.ID); err != nil {
				logger.Warn("Failed to refresh announcement for resumed session",
					"sessionID", session.ID, "error", err)
			}
		}
	}

	logger.Info("Resumed active event sessions", "count", len(sessions))
	return nil
}

func (s *eventService) Publish(ctx context.Context, guildID, channelID, actorID string) (*domain.Session, error) {
	if existing, err := s.findActive(ctx, guildID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrSessionActive
	}

	session := &domain.Session{
		GuildID:   guildID,
		Name:      s.resolveSessionName(),
		Status:    domain.SessionActive,
		CreatedBy: actorID,
		CreatedAt: time.Now(),
		ChannelID: channelID,
	}

	messageID, err := s.client.PublishAnnouncement(ctx, channelID, platform.Announcement{
		Title:           session.Name,
		Description:     announcementDescription,
		JoinButtonID:    s.cfg.Event.JoinButtonID,
		JoinButtonLabel: s.cfg.Event.JoinButtonLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish event announcement: %w", err)
	}
	session.MessageID = messageID

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create event session: %w", err)
	}
	if session.ID == 0 {
		// Memory-only mode: the no-op store does not assign IDs.
		s.mu.Lock()
		s.memSeq++
		session.ID = s.memSeq
		s.mu.Unlock()
	}

	s.cacheSession(session)
	logger.Info("Event session published",
		"sessionID", session.ID, "guildID", guildID, "messageID", messageID)
	return session, nil
}

func (s *eventService) Finish(ctx context.Context, guildID, actorID, reason string) (*domain.Session, error) {
	session, err := s.findActive(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	if err := s.sessions.Finish(ctx, session.ID, actorID, reason); err != nil {
		return nil, fmt.Errorf("failed to finish session %d: %w", session.ID, err)
	}
	now := time.Now()
	session.Status = domain.SessionFinished
	session.FinishedBy = actorID
	session.FinishReason = reason
	session.FinishedAt = &now

	// Disable the join button so the announcement becomes inert.
	if session.ChannelID != "" && session.MessageID != "" {
		err := s.client.UpdateAnnouncement(ctx, session.ChannelID, session.MessageID, platform.Announcement{
			Title:           session.Name,
			Description:     announcementDescription,
			Roster:          s.rosterView(session.ID),
			RosterTotal:     s.rosterLen(session.ID),
			JoinButtonID:    s.cfg.Event.JoinButtonID,
			JoinButtonLabel: s.cfg.Event.JoinButtonLabel,
			Disabled:        true,
		})
		if err != nil {
			logger.Warn("Failed to disable announcement controls",
				"sessionID", session.ID, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.sessionIndex, session.ID)
	delete(s.messageIndex, session.MessageID)
	delete(s.rosters, session.ID)
	if s.activeByGuild[guildID] == session.ID {
		delete(s.activeByGuild, guildID)
	}
	s.mu.Unlock()

	logger.Info("Event session finished",
		"sessionID", session.ID, "guildID", guildID, "finishedBy", actorID)
	return session, nil
}

func (s *eventService) Join(ctx context.Context, guildID, channelID, messageID, userID string) (*JoinResult, error) {
	roleID := s.cfg.Event.RoleID
	if roleID == "" {
		return nil, ErrRoleNotConfigured
	}

	session, err := s.resolveSessionForMessage(ctx, guildID, channelID, messageID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	banned, err := s.sanctions.IsPermanentlyBanned(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban state: %w", err)
	}
	if banned {
		return nil, ErrPermanentlyBanned
	}

	member, err := s.client.Member(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member %s: %w", userID, err)
	}

	already := member.HasRole(roleID)
	if !already {
		// Role grant gates everything else; no partial state on failure.
		if err := s.client.GrantRole(ctx, guildID, userID, roleID); err != nil {
			return nil, fmt.Errorf("failed to grant event role: %w", err)
		}
	}

	if err := s.participants.Upsert(ctx, session.ID, guildID, userID); err != nil {
		return nil, fmt.Errorf("failed to enroll participant: %w", err)
	}

	s.addToRoster(session.ID, userID)
	if err := s.refreshAnnouncement(ctx, session.ID); err != nil {
		logger.Warn("Failed to refresh announcement roster",
			"sessionID", session.ID, "error", err)
	}

	logger.Info("User joined event session",
		"sessionID", session.ID, "userID", userID, "alreadyJoined", already)
	return &JoinResult{Session: session, AlreadyJoined: already}, nil
}

func (s *eventService) RemoveFromRoster(ctx context.Context, sessionID int64, userID string) {
	s.mu.Lock()
	roster := s.rosters[sessionID]
	found := false
	for i, id := range roster {
		if id == userID {
			s.rosters[sessionID] = append(roster[:i], roster[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return
	}
	if err := s.refreshAnnouncement(ctx, sessionID); err != nil {
		logger.Warn("Failed to refresh announcement after roster removal",
			"sessionID", sessionID, "userID", userID, "error", err)
	}
}

func (s *eventService) ActiveSession(ctx context.Context, guildID string) (*domain.Session, error) {
	return s.findActive(ctx, guildID)
}

// findActive consults the store first and falls back to the in-memory
// index so memory-only mode still enforces the one-active-session rule.
func (s *eventService) findActive(ctx context.Context, guildID string) (*domain.Session, error) {
	session, err := s.sessions.FindActive(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	if session != nil {
		s.cacheSession(session)
		return session, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.activeByGuild[guildID]
	if !ok {
		return nil, nil
	}
	ref := s.sessionIndex[id]
	return &domain.Session{
		ID:        id,
		GuildID:   ref.guildID,
		Status:    domain.SessionActive,
		ChannelID: ref.channelID,
		MessageID: ref.messageID,
	}, nil
}

// resolveSessionForMessage maps an announcement message to its session,
// re-resolving through the store when the in-memory index missed it
// (e.g. right after a restart).
func (s *eventService) resolveSessionForMessage(ctx context.Context, guildID, channelID, messageID string) (*domain.Session, error) {
	s.mu.Lock()
	id, ok := s.messageIndex[messageID]
	s.mu.Unlock()
	if ok {
		s.mu.Lock()
		ref := s.sessionIndex[id]
		s.mu.Unlock()
		return &domain.Session{
			ID:        id,
			GuildID:   ref.guildID,
			Status:    domain.SessionActive,
			ChannelID: ref.channelID,
			MessageID: ref.messageID,
		}, nil
	}

	session, err := s.findActive(ctx, guildID)
	if err != nil || session == nil {
		return session, err
	}
	if session.MessageID == "" {
		// Older sessions may predate message tracking; adopt the message
		// the interaction came from.
		session.ChannelID = channelID
		session.MessageID = messageID
		if err := s.sessions.AttachMessage(ctx, session.ID, channelID, messageID); err != nil {
			logger.Warn("Failed to attach announcement message to session",
				"sessionID", session.ID, "error", err)
		}
		s.cacheSession(session)
	}
	return session, nil
}

func (s *eventService) refreshAnnouncement(ctx context.Context, sessionID int64) error {
	s.mu.Lock()
	ref, ok := s.sessionIndex[sessionID]
	s.mu.Unlock()
	if !ok || ref.channelID == "" || ref.messageID == "" {
		return nil
	}

	return s.client.UpdateAnnouncement(ctx, ref.channelID, ref.messageID, platform.Announcement{
		Title:           s.resolveSessionName(),
		Description:     announcementDescription,
		Roster:          s.rosterView(sessionID),
		RosterTotal:     s.rosterLen(sessionID),
		JoinButtonID:    s.cfg.Event.JoinButtonID,
		JoinButtonLabel: s.cfg.Event.JoinButtonLabel,
	})
}

func (s *eventService) cacheSession(session *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionIndex[session.ID] = sessionRef{
		guildID:   session.GuildID,
		channelID: session.ChannelID,
		messageID: session.MessageID,
	}
	if session.MessageID != "" {
		s.messageIndex[session.MessageID] = session.ID
	}
	if session.Status == domain.SessionActive {
		s.activeByGuild[session.GuildID] = session.ID
	}
	if _, ok := s.rosters[session.ID]; !ok {
		s.rosters[session.ID] = nil
	}
}

func (s *eventService) addToRoster(sessionID int64, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.rosters[sessionID] {
		if id == userID {
			return
		}
	}
	s.rosters[sessionID] = append(s.rosters[sessionID], userID)
}

// rosterView returns the capped slice shown on the announcement.
func (s *eventService) rosterView(sessionID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := s.rosters[sessionID]
	if len(roster) > rosterDisplayLimit {
		roster = roster[:rosterDisplayLimit]
	}
	return append([]string(nil), roster...)
}

func (s *eventService) rosterLen(sessionID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rosters[sessionID])
}

func (s *eventService) resolveSessionName() string {
	if s.cfg.Event.SessionName != "" {
		return s.cfg.Event.SessionName
	}
	return "Event " + time.Now().Format("2006-01-02")
}
