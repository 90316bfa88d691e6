package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/jobs"
	"eventwarden/internal/scheduler"
	"eventwarden/internal/security"
	"eventwarden/internal/service"
)

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
func (m *MockEventService) Join(ctx context.Context, guildID, channelID, messageID, userID string) (*service.JoinResult, error) {
	args := m.Called(ctx, guildID, channelID, messageID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JoinResult), args.Error(1)
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

// MockAmnestyService
type MockAmnestyService struct {
	mock.Mock
}

func (m *MockAmnestyService) ClearForReason(ctx context.Context, guildID, userID, moderatorID string, reason domain.Reason, note string) error {
	args := m.Called(ctx, guildID, userID, moderatorID, reason, note)
	return args.Error(0)
}
func (m *MockAmnestyService) Unban(ctx context.Context, guildID, userID, moderatorID string) error {
	args := m.Called(ctx, guildID, userID, moderatorID)
	return args.Error(0)
}

type noopVerification struct{}

func (noopVerification) RunChecks(ctx context.Context) error { return nil }

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	events  *MockEventService
	amnesty *MockAmnestyService
	tokens  security.TokenManager
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.Event.SweepIntervalMin = 60

	f := &fixture{
		events:  new(MockEventService),
		amnesty: new(MockAmnestyService),
		tokens:  security.NewTokenManager(testSecret),
	}
	sched := scheduler.NewScheduler(jobs.NewJobRunner(&jobs.Services{Verification: noopVerification{}}, cfg))
	handler := NewAdminHandler(f.events, f.amnesty, sched, f.tokens)
	f.server = httptest.NewServer(handler.Router())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) request(t *testing.T, method, path, body string, authorized bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if authorized {
		token, err := f.tokens.GenerateOperatorToken("mod-1", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAdminHandler_Authentication(t *testing.T) {
	f := newFixture(t)

	t.Run("MissingToken", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/v1/guilds/guild-1/session", "", false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/v1/guilds/guild-1/session", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAdminHandler_ActiveSession(t *testing.T) {
	f := newFixture(t)

	t.Run("NotFound", func(t *testing.T) {
		f.events.On("ActiveSession", mock.Anything, "guild-1").Return(nil, nil).Once()
		resp := f.request(t, http.MethodGet, "/v1/guilds/guild-1/session", "", true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Found", func(t *testing.T) {
		f.events.On("ActiveSession", mock.Anything, "guild-1").
			Return(&domain.Session{ID: 7, GuildID: "guild-1", Status: domain.SessionActive}, nil).Once()
		resp := f.request(t, http.MethodGet, "/v1/guilds/guild-1/session", "", true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminHandler_Publish(t *testing.T) {
	f := newFixture(t)

	t.Run("Created", func(t *testing.T) {
		f.events.On("Publish", mock.Anything, "guild-1", "events-1", "mod-1").
			Return(&domain.Session{ID: 7}, nil).Once()
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/session", `{"channel_id":"events-1"}`, true)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("Conflict", func(t *testing.T) {
		f.events.On("Publish", mock.Anything, "guild-1", "events-1", "mod-1").
			Return(nil, service.ErrSessionActive).Once()
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/session", `{"channel_id":"events-1"}`, true)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("MissingChannel", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/session", `{}`, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminHandler_Finish(t *testing.T) {
	f := newFixture(t)

	t.Run("NoSession", func(t *testing.T) {
		f.events.On("Finish", mock.Anything, "guild-1", "mod-1", "").
			Return(nil, service.ErrNoActiveSession).Once()
		resp := f.request(t, http.MethodDelete, "/v1/guilds/guild-1/session", "", true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Finished", func(t *testing.T) {
		f.events.On("Finish", mock.Anything, "guild-1", "mod-1", "over").
			Return(&domain.Session{ID: 7, Status: domain.SessionFinished}, nil).Once()
		resp := f.request(t, http.MethodDelete, "/v1/guilds/guild-1/session", `{"reason":"over"}`, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminHandler_Amnesty(t *testing.T) {
	f := newFixture(t)

	t.Run("ClearReason", func(t *testing.T) {
		f.amnesty.On("ClearForReason", mock.Anything, "guild-1", "user-1", "mod-1",
			domain.ReasonMissingTag, "appealed").Return(nil).Once()
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/users/user-1/amnesty",
			`{"reason":"missing_tag","note":"appealed"}`, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		f.amnesty.AssertExpectations(t)
	})

	t.Run("UnknownReason", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/users/user-1/amnesty",
			`{"reason":"vibes"}`, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unban", func(t *testing.T) {
		f.amnesty.On("Unban", mock.Anything, "guild-1", "user-1", "mod-1").Return(nil).Once()
		resp := f.request(t, http.MethodPost, "/v1/guilds/guild-1/users/user-1/unban", "", true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminHandler_ReloadInterval(t *testing.T) {
	f := newFixture(t)

	t.Run("Valid", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/v1/sweep/interval", `{"minutes":5}`, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Invalid", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/v1/sweep/interval", `{"minutes":0}`, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
