package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/platform"
	"eventwarden/internal/repository"
)

// MockSessionRepo
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSessionRepo) FindActive(ctx context.Context, guildID string) (*domain.Session, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockSessionRepo) ListActive(ctx context.Context) ([]domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}
func (m *MockSessionRepo) AttachMessage(ctx context.Context, sessionID int64, channelID, messageID string) error {
	args := m.Called(ctx, sessionID, channelID, messageID)
	return args.Error(0)
}
func (m *MockSessionRepo) Finish(ctx context.Context, sessionID int64, finishedBy, reason string) error {
	args := m.Called(ctx, sessionID, finishedBy, reason)
	return args.Error(0)
}

// MockParticipantRepo
type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Upsert(ctx context.Context, sessionID int64, guildID, userID string) error {
	args := m.Called(ctx, sessionID, guildID, userID)
	return args.Error(0)
}
func (m *MockParticipantRepo) ListForVerification(ctx context.Context, sessionID int64) ([]domain.Participant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}
func (m *MockParticipantRepo) ListCurrent(ctx context.Context, sessionID int64) ([]string, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockParticipantRepo) MarkReminder(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	args := m.Called(ctx, sessionID, userID, reason)
	return args.Error(0)
}
func (m *MockParticipantRepo) MarkWarning(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	args := m.Called(ctx, sessionID, userID, reason)
	return args.Error(0)
}
func (m *MockParticipantRepo) MarkExpulsion(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	args := m.Called(ctx, sessionID, userID, reason)
	return args.Error(0)
}
func (m *MockParticipantRepo) MarkPermanentBan(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	args := m.Called(ctx, sessionID, userID, reason)
	return args.Error(0)
}
func (m *MockParticipantRepo) ClearState(ctx context.Context, sessionID int64, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}
func (m *MockParticipantRepo) UpdateLastCheck(ctx context.Context, sessionID int64, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

// MockSanctionRepo
type MockSanctionRepo struct {
	mock.Mock
}

func (m *MockSanctionRepo) GetCounter(ctx context.Context, guildID, userID string, reason domain.Reason) (*domain.SanctionCounter, error) {
	args := m.Called(ctx, guildID, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SanctionCounter), args.Error(1)
}
func (m *MockSanctionRepo) Increment(ctx context.Context, guildID, userID string, reason domain.Reason, action domain.Action) error {
	args := m.Called(ctx, guildID, userID, reason, action)
	return args.Error(0)
}
func (m *MockSanctionRepo) MarkPermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	args := m.Called(ctx, guildID, userID, reason)
	return args.Error(0)
}
func (m *MockSanctionRepo) ClearCounters(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	args := m.Called(ctx, guildID, userID, reason)
	return args.Error(0)
}
func (m *MockSanctionRepo) IsPermanentlyBanned(ctx context.Context, guildID, userID string) (bool, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCheckRepo
type MockCheckRepo struct {
	mock.Mock
}

func (m *MockCheckRepo) RecordCheck(ctx context.Context, rec *domain.CheckRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockReminderRepo
type MockReminderRepo struct {
	mock.Mock
}

func (m *MockReminderRepo) Get(ctx context.Context, guildID, userID string) (*domain.ReminderRecord, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderRecord), args.Error(1)
}
func (m *MockReminderRepo) MarkSent(ctx context.Context, guildID, userID string) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}
func (m *MockReminderRepo) MarkOptOut(ctx context.Context, guildID, userID string) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

// MockStaffRepo
type MockStaffRepo struct {
	mock.Mock
}

func (m *MockStaffRepo) LogAmnesty(ctx context.Context, a *domain.StaffAmnesty) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockPlatformClient
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Member), args.Error(1)
}
func (m *MockPlatformClient) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}
func (m *MockPlatformClient) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Error(0)
}
func (m *MockPlatformClient) SendDirect(ctx context.Context, userID string, n platform.Notice) error {
	args := m.Called(ctx, userID, n)
	return args.Error(0)
}
func (m *MockPlatformClient) SendChannel(ctx context.Context, channelID string, n platform.Notice) error {
	args := m.Called(ctx, channelID, n)
	return args.Error(0)
}
func (m *MockPlatformClient) PublishAnnouncement(ctx context.Context, channelID string, a platform.Announcement) (string, error) {
	args := m.Called(ctx, channelID, a)
	return args.String(0), args.Error(1)
}
func (m *MockPlatformClient) UpdateAnnouncement(ctx context.Context, channelID, messageID string, a platform.Announcement) error {
	args := m.Called(ctx, channelID, messageID, a)
	return args.Error(0)
}

// MockEventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Resume(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockEventService) Publish(ctx context.Context, guildID, channelID, actorID string) (*domain.Session, error) {
	args := m.Called(ctx, guildID, channelID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockEventService) Finish(ctx context.Context, guildID, actorID, reason string) (*domain.Session, error) {
	args := m.Called(ctx, guildID, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockEventService) Join(ctx context.Context, guildID, channelID, messageID, userID string) (*JoinResult, error) {
	args := m.Called(ctx, guildID, channelID, messageID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*JoinResult), args.Error(1)
}
func (m *MockEventService) RemoveFromRoster(ctx context.Context, sessionID int64, userID string) {
	m.Called(ctx, sessionID, userID)
}
func (m *MockEventService) ActiveSession(ctx context.Context, guildID string) (*domain.Session, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// MockAlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) PermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	args := m.Called(ctx, guildID, userID, reason)
	return args.Error(0)
}

func newMockStore(
	sessions *MockSessionRepo,
	participants *MockParticipantRepo,
	sanctions *MockSanctionRepo,
	checks *MockCheckRepo,
	reminders *MockReminderRepo,
	staff *MockStaffRepo,
) *repository.Store {
	return &repository.Store{
		Sessions:     sessions,
		Participants: participants,
		Sanctions:    sanctions,
		Checks:       checks,
		Reminders:    reminders,
		StaffActions: staff,
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Discord.Token = "test-token"
	cfg.Event.RequiredTag = "[TAG]"
	cfg.Event.RequiredBioLink = "discord.gg/community"
	cfg.Event.RoleID = "role-1"
	cfg.Event.ControlChannelID = "control-1"
	cfg.Event.SessionName = "Community Event"
	cfg.Event.ReminderChannelIDs = []string{"general-1"}
	cfg.Event.ReminderThreshold = 3
	cfg.Event.ReminderCooldown = "6h"
	cfg.Event.JoinButtonID = "event_join"
	cfg.Event.JoinButtonLabel = "Join the event"
	cfg.Event.StopButtonID = "event_reminder_stop"
	cfg.Event.StopButtonLabel = "Stop reminders"
	cfg.Event.SweepIntervalMin = 60
	return cfg
}
