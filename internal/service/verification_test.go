package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventwarden/internal/domain"
	"eventwarden/internal/platform"
	"eventwarden/internal/queue"
)

type verificationFixture struct {
	sessions     *MockSessionRepo
	participants *MockParticipantRepo
	sanctions    *MockSanctionRepo
	checks       *MockCheckRepo
	client       *MockPlatformClient
	events       *MockEventService
	alerts       *MockAlertService
	queue        *queue.Queue
	svc          VerificationService
}

// newVerificationFixture builds the service around an unstarted queue so
// enqueued notifications can be counted without racing a tick loop.
func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	f := &verificationFixture{
		sessions:     new(MockSessionRepo),
		participants: new(MockParticipantRepo),
		sanctions:    new(MockSanctionRepo),
		checks:       new(MockCheckRepo),
		client:       new(MockPlatformClient),
		events:       new(MockEventService),
		alerts:       new(MockAlertService),
		queue:        queue.New(queue.Config{Interval: time.Second, Concurrency: 1, MaxQueue: 50}),
	}
	store := newMockStore(f.sessions, f.participants, f.sanctions, f.checks, new(MockReminderRepo), new(MockStaffRepo))
	f.svc = NewVerificationService(testConfig(), f.client, store, f.events, f.queue, f.alerts)
	return f
}

func (f *verificationFixture) expectSweepOver(participants ...domain.Participant) {
	f.sessions.On("ListActive", mock.Anything).Return([]domain.Session{*activeSession()}, nil)
	f.participants.On("ListForVerification", mock.Anything, int64(7)).Return(participants, nil)
	f.checks.On("RecordCheck", mock.Anything, mock.AnythingOfType("*domain.CheckRecord")).Return(nil)
	f.participants.On("UpdateLastCheck", mock.Anything, int64(7), mock.Anything).Return(nil).Maybe()
}

func enrolled(userID string) domain.Participant {
	return domain.Participant{
		SessionID: 7,
		GuildID:   "guild-1",
		UserID:    userID,
		State:     domain.ParticipantActive,
	}
}

func compliantMember(userID string) *platform.Member {
	return &platform.Member{
		UserID:      userID,
		DisplayName: "Alice [TAG]",
		Bio:         "hello discord.gg/community",
	}
}

func TestVerificationService_CompliantParticipant(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectSweepOver(enrolled("user-1"))
	f.client.On("Member", mock.Anything, "guild-1", "user-1").Return(compliantMember("user-1"), nil)

	require.NoError(t, f.svc.RunChecks(context.Background()))

	f.participants.AssertNotCalled(t, "MarkReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.sanctions.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.queue.Len())
}

func TestVerificationService_FirstOffenseReminder(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectSweepOver(enrolled("user-1"))
	f.client.On("Member", mock.Anything, "guild-1", "user-1").
		Return(&platform.Member{UserID: "user-1", DisplayName: "Alice", Bio: "hello discord.gg/community"}, nil)
	f.sanctions.On("GetCounter", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag).Return(nil, nil)
	f.participants.On("MarkReminder", mock.Anything, int64(7), "user-1", domain.ReasonMissingTag).Return(nil)
	f.sanctions.On("Increment", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag, domain.ActionReminder).Return(nil)

	require.NoError(t, f.svc.RunChecks(context.Background()))

	f.participants.AssertExpectations(t)
	f.sanctions.AssertExpectations(t)
	// One DM plus the control-channel mirror.
	assert.Equal(t, 2, f.queue.Len())
	f.client.AssertNotCalled(t, "RevokeRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationService_ExpulsionRevokesRole(t *testing.T) {
	f := newVerificationFixture(t)
	p := enrolled("user-1")
	p.State = domain.ParticipantWarned
	p.RemindersSent = 1
	p.WarningsSent = 1
	f.expectSweepOver(p)
	f.client.On("Member", mock.Anything, "guild-1", "user-1").
		Return(&platform.Member{UserID: "user-1", DisplayName: "Alice", Bio: "discord.gg/community"}, nil)
	f.sanctions.On("GetCounter", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag).Return(nil, nil)
	f.participants.On("MarkExpulsion", mock.Anything, int64(7), "user-1", domain.ReasonMissingTag).Return(nil)
	f.sanctions.On("Increment", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag, domain.ActionExpulsion).Return(nil)
	f.client.On("RevokeRole", mock.Anything, "guild-1", "user-1", "role-1").Return(nil)
	f.events.On("RemoveFromRoster", mock.Anything, int64(7), "user-1").Return()

	require.NoError(t, f.svc.RunChecks(context.Background()))

	f.client.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestVerificationService_CrossSessionBanAlerts(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectSweepOver(enrolled("user-1"))
	f.client.On("Member", mock.Anything, "guild-1", "user-1").
		Return(&platform.Member{UserID: "user-1", DisplayName: "Alice", Bio: "discord.gg/community"}, nil)
	// Fresh session, but three prior expulsions on record.
	f.sanctions.On("GetCounter", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag).
		Return(&domain.SanctionCounter{Expulsions: 3}, nil)
	f.participants.On("MarkPermanentBan", mock.Anything, int64(7), "user-1", domain.ReasonMissingTag).Return(nil)
	f.sanctions.On("MarkPermanentBan", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag).Return(nil)
	f.client.On("RevokeRole", mock.Anything, "guild-1", "user-1", "role-1").Return(nil)
	f.events.On("RemoveFromRoster", mock.Anything, int64(7), "user-1").Return()
	f.alerts.On("PermanentBan", mock.Anything, "guild-1", "user-1", domain.ReasonMissingTag).Return(nil)

	require.NoError(t, f.svc.RunChecks(context.Background()))

	f.alerts.AssertExpectations(t)
	f.sanctions.AssertExpectations(t)
}

func TestVerificationService_LeftGuild(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectSweepOver(enrolled("user-1"))
	f.client.On("Member", mock.Anything, "guild-1", "user-1").Return(nil, platform.ErrNotFound)
	f.participants.On("MarkExpulsion", mock.Anything, int64(7), "user-1", domain.ReasonLeftGuild).Return(nil)
	f.events.On("RemoveFromRoster", mock.Anything, int64(7), "user-1").Return()

	require.NoError(t, f.svc.RunChecks(context.Background()))

	f.participants.AssertExpectations(t)
	f.events.AssertExpectations(t)
	// Leaving the guild never feeds the sanction ladder or notifies.
	f.sanctions.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.queue.Len())
}

func TestVerificationService_OneFailureDoesNotAbortSweep(t *testing.T) {
	f := newVerificationFixture(t)
	f.expectSweepOver(enrolled("user-1"), enrolled("user-2"))
	f.client.On("Member", mock.Anything, "guild-1", "user-1").Return(nil, assert.AnError)
	f.client.On("Member", mock.Anything, "guild-1", "user-2").Return(compliantMember("user-2"), nil)

	require.NoError(t, f.svc.RunChecks(context.Background()))

	// The second participant was still evaluated.
	f.client.AssertCalled(t, "Member", mock.Anything, "guild-1", "user-2")
}

func TestVerificationService_NoActiveSessions(t *testing.T) {
	f := newVerificationFixture(t)
	f.sessions.On("ListActive", mock.Anything).Return([]domain.Session{}, nil)

	require.NoError(t, f.svc.RunChecks(context.Background()))
	f.participants.AssertNotCalled(t, "ListForVerification", mock.Anything, mock.Anything)
}
