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

func TestParticipantRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewParticipantRepository(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO event_participants").
		WithArgs(int64(7), "guild-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Upsert(ctx, 7, "guild-1", "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepository_ListForVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewParticipantRepository(db)
	ctx := context.Background()

	columns := []string{"session_id", "guild_id", "user_id", "state", "reminders_sent",
		"warnings_sent", "expulsions_count", "last_state_reason", "last_check_at", "joined_at"}

	t.Run("SweepableStatesOnly", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("FROM event_participants").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), "guild-1", "user-1", "active", 0, 0, 0, "", nil, now).
				AddRow(int64(7), "guild-1", "user-2", "reminded", 1, 0, 0, "missing_tag", now, now))

		participants, err := repo.ListForVerification(ctx, 7)
		require.NoError(t, err)
		require.Len(t, participants, 2)
		assert.Equal(t, domain.ParticipantActive, participants[0].State)
		assert.Nil(t, participants[0].LastCheckAt)
		assert.Equal(t, 1, participants[1].RemindersSent)
		assert.NotNil(t, participants[1].LastCheckAt)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery("FROM event_participants").
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows(columns))

		participants, err := repo.ListForVerification(ctx, 8)
		require.NoError(t, err)
		assert.Empty(t, participants)
	})
}

func TestParticipantRepository_MarkExpulsion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewParticipantRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE event_participants").
		WithArgs("missing_tag", int64(7), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkExpulsion(ctx, 7, "user-1", domain.ReasonMissingTag))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepository_ClearState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewParticipantRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE event_participants").
		WithArgs(int64(7), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.ClearState(ctx, 7, "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
