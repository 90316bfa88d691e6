package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eventwarden/internal/config"
	"eventwarden/internal/logger"
	"eventwarden/internal/platform"
	"eventwarden/internal/queue"
	"eventwarden/internal/repository"
)

// reminderState is the volatile half of per-user reminder tracking. The
// message count and sending guard live only in memory; the cooldown
// timestamp and opt-out flag are mirrored from the store on first use.
type reminderState struct {
	count          int
	lastRemindedAt time.Time
	optedOut       bool
	hydrated       bool
	sending        bool
}

type reminderService struct {
	cfg       *config.Config
	client    platform.Client
	reminders repository.ReminderRepository
	events    EventService
	notify    *queue.Queue

	mu     sync.Mutex
	states map[string]*reminderState
	group  singleflight.Group
}

func NewReminderService(
	cfg *config.Config,
	client platform.Client,
	store *repository.Store,
	events EventService,
	notify *queue.Queue,
) ReminderService {
	return &reminderService{
		cfg:       cfg,
		client:    client,
		reminders: store.Reminders,
		events:    events,
		notify:    notify,
		states:    make(map[string]*reminderState),
	}
}

func stateKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// HandleActivity counts one qualifying chat message toward the reminder
// threshold and dispatches the reminder when it is reached. The count is
// volatile; the cooldown and opt-out survive restarts through the store.
func (s *reminderService) HandleActivity(ctx context.Context, guildID, channelID, userID string) error {
	if !s.watchedChannel(channelID) {
		return nil
	}

	session, err := s.events.ActiveSession(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to resolve active session: %w", err)
	}
	if session == nil {
		return nil
	}

	// Role holders need no invitation. Seeing one also resets their
	// counter so a later role loss starts the threshold from zero.
	if s.cfg.Event.RoleID != "" {
		member, err := s.client.Member(ctx, guildID, userID)
		if err != nil {
			return fmt.Errorf("failed to resolve member: %w", err)
		}
		if member.HasRole(s.cfg.Event.RoleID) {
			s.mu.Lock()
			delete(s.states, stateKey(guildID, userID))
			s.mu.Unlock()
			return nil
		}
	}

	state, err := s.hydrate(ctx, guildID, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if state.optedOut {
		s.mu.Unlock()
		return nil
	}
	state.count++
	if state.count < s.cfg.Event.ReminderThreshold || state.sending {
		s.mu.Unlock()
		return nil
	}
	// Messages during the cooldown still count; only the dispatch waits
	// for the cooldown to expire, so the first message after expiry
	// reminds immediately.
	if !state.lastRemindedAt.IsZero() && time.Since(state.lastRemindedAt) < s.cfg.ReminderCooldown() {
		s.mu.Unlock()
		return nil
	}
	state.sending = true
	s.mu.Unlock()

	err = s.sendReminder(ctx, guildID, userID)

	s.mu.Lock()
	state.sending = false
	if err == nil {
		state.count = 0
		state.lastRemindedAt = time.Now()
	}
	s.mu.Unlock()
	return err
}

// hydrate loads the durable reminder record into the in-memory state the
// first time a user is seen. Concurrent first messages collapse into one
// store read.
func (s *reminderService) hydrate(ctx context.Context, guildID, userID string) (*reminderState, error) {
	key := stateKey(guildID, userID)

	s.mu.Lock()
	if state, ok := s.states[key]; ok && state.hydrated {
		s.mu.Unlock()
		return state, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(key, func() (any, error) {
		rec, err := s.reminders.Get(ctx, guildID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reminder record: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		state, ok := s.states[key]
		if !ok {
			state = &reminderState{}
			s.states[key] = state
		}
		if rec != nil {
			if rec.LastRemindedAt != nil {
				state.lastRemindedAt = *rec.LastRemindedAt
			}
			state.optedOut = rec.OptedOut
		}
		state.hydrated = true
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*reminderState), nil
}

// sendReminder persists the cooldown first, then enqueues the channel
// invitation and a direct message. A failed persist keeps the counter
// armed so the next message retries.
func (s *reminderService) sendReminder(ctx context.Context, guildID, userID string) error {
	if err := s.reminders.MarkSent(ctx, guildID, userID); err != nil {
		return fmt.Errorf("failed to persist reminder: %w", err)
	}

	notice := platform.Notice{
		Title:           "Join the event",
		Description:     "You have been active here while an event is running. Join in to take part, or stop these reminders.",
		GuildID:         guildID,
		UserID:          userID,
		Mention:         true,
		JoinButtonID:    s.cfg.Event.JoinButtonID,
		JoinButtonLabel: s.cfg.Event.JoinButtonLabel,
		StopButtonID:    s.cfg.Event.StopButtonID,
		StopButtonLabel: s.cfg.Event.StopButtonLabel,
	}

	controlChannel := s.cfg.ControlChannelFor(guildID)
	if controlChannel != "" {
		if !s.notify.Push(func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.client.SendChannel(sendCtx, controlChannel, notice); err != nil {
				logger.Warn("Failed to post join reminder", "channelID", controlChannel, "error", err)
			}
		}) {
			logger.Warn("Join reminder dropped due to queue backpressure", "userID", userID)
		}
	}

	dm := notice
	dm.Mention = false
	if !s.notify.Push(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.client.SendDirect(sendCtx, userID, dm); err != nil {
			logger.Warn("Failed to DM join reminder", "userID", userID, "error", err)
		}
	}) {
		logger.Warn("Join reminder DM dropped due to queue backpressure", "userID", userID)
	}

	logger.Info("Join reminder dispatched", "guildID", guildID, "userID", userID)
	return nil
}

// OptOut durably stops reminders for the user. It reports whether the
// user had already opted out.
func (s *reminderService) OptOut(ctx context.Context, guildID, userID string) (bool, error) {
	state, err := s.hydrate(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	already := state.optedOut
	s.mu.Unlock()
	if already {
		return true, nil
	}

	if err := s.reminders.MarkOptOut(ctx, guildID, userID); err != nil {
		return false, fmt.Errorf("failed to persist opt-out: %w", err)
	}

	s.mu.Lock()
	state.optedOut = true
	state.count = 0
	s.mu.Unlock()

	logger.Info("Reminder opt-out recorded", "guildID", guildID, "userID", userID)
	return false, nil
}

func (s *reminderService) watchedChannel(channelID string) bool {
	for _, id := range s.cfg.Event.ReminderChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

