package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventwarden/internal/domain"
)

func TestSessionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		s := &domain.Session{
			GuildID:   "guild-1",
			Name:      "Community Event",
			CreatedBy: "mod-1",
			ChannelID: "events-1",
			MessageID: "msg-1",
		}

		mock.ExpectQuery("INSERT INTO event_sessions").
			WithArgs(s.GuildID, s.Name, s.CreatedBy, s.ChannelID, s.MessageID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

		err := repo.Create(ctx, s)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), s.ID)
		assert.Equal(t, domain.SessionActive, s.Status)
	})
}

func TestSessionRepository_FindActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepository(db)
	ctx := context.Background()

	columns := []string{"id", "guild_id", "name", "status", "created_by", "created_at", "channel_id", "message_id"}

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("FROM event_sessions").
			WithArgs("guild-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), "guild-1", "Community Event", "active", "mod-1", time.Now(), "events-1", "msg-1"))

		s, err := repo.FindActive(ctx, "guild-1")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, int64(7), s.ID)
		assert.Equal(t, "msg-1", s.MessageID)
	})

	t.Run("NoneReturnsNilNil", func(t *testing.T) {
		mock.ExpectQuery("FROM event_sessions").
			WithArgs("guild-2").
			WillReturnRows(sqlmock.NewRows(columns))

		s, err := repo.FindActive(ctx, "guild-2")
		assert.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestSessionRepository_Finish(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE event_sessions").
		WithArgs("mod-1", "wrapped up", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Finish(ctx, 7, "mod-1", "wrapped up"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_AttachMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE event_sessions SET channel_id").
		WithArgs("events-1", "msg-1", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AttachMessage(ctx, 7, "events-1", "msg-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
