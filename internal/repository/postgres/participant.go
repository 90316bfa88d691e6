package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type participantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) repository.ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Upsert(ctx context.Context, sessionID int64, guildID, userID string) error {
	// Rejoining resets the state to active but keeps the original join time.
	query := `INSERT INTO event_participants (session_id, guild_id, user_id, state, joined_at, last_state_change_at)
	          VALUES ($1, $2, $3, 'active', NOW(), NOW())
	          ON CONFLICT (session_id, user_id) DO UPDATE
	          SET state = 'active', last_state_reason = NULL, last_state_change_at = NOW()`
	logger.DatabaseCall("UPSERT", "event_participants", "sessionID", sessionID, "userID", userID)

	_, err := r.db.ExecContext(ctx, query, sessionID, guildID, userID)
	logger.DatabaseResult("UPSERT", err, "sessionID", sessionID, "userID", userID)
	return err
}

func (r *participantRepository) ListForVerification(ctx context.Context, sessionID int64) ([]domain.Participant, error) {
	query := `SELECT session_id, guild_id, user_id, state, reminders_sent, warnings_sent,
	                 expulsions_count, COALESCE(last_state_reason, ''), last_check_at, joined_at
	          FROM event_participants
	          WHERE session_id = $1 AND state IN ('active', 'reminded', 'warned')`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var lastCheck sql.NullTime
		if err := rows.Scan(&p.SessionID, &p.GuildID, &p.UserID, &p.State, &p.RemindersSent,
			&p.WarningsSent, &p.ExpulsionsCount, &p.LastStateReason, &lastCheck, &p.JoinedAt); err != nil {
			return nil, err
		}
		if lastCheck.Valid {
			p.LastCheckAt = &lastCheck.Time
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) ListCurrent(ctx context.Context, sessionID int64) ([]string, error) {
	query := `SELECT user_id FROM event_participants
	          WHERE session_id = $1 AND state IN ('active', 'reminded', 'warned')
	          ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

func (r *participantRepository) MarkReminder(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	query := `UPDATE event_participants
	          SET reminders_sent = reminders_sent + 1, state = 'reminded',
	              last_state_reason = $1, last_state_change_at = NOW()
	          WHERE session_id = $2 AND user_id = $3`
	return r.mark(ctx, "MarkReminder", query, reason, sessionID, userID)
}

func (r *participantRepository) MarkWarning(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	query := `UPDATE event_participants
	          SET warnings_sent = warnings_sent + 1, state = 'warned',
	              last_state_reason = $1, last_state_change_at = NOW()
	          WHERE session_id = $2 AND user_id = $3`
	return r.mark(ctx, "MarkWarning", query, reason, sessionID, userID)
}

func (r *participantRepository) MarkExpulsion(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	query := `UPDATE event_participants
	          SET expulsions_count = expulsions_count + 1, state = 'expelled',
	              last_state_reason = $1, last_state_change_at = NOW()
	          WHERE session_id = $2 AND user_id = $3`
	return r.mark(ctx, "MarkExpulsion", query, reason, sessionID, userID)
}

func (r *participantRepository) MarkPermanentBan(ctx context.Context, sessionID int64, userID string, reason domain.Reason) error {
	query := `UPDATE event_participants
	          SET state = 'banned', last_state_reason = $1, last_state_change_at = NOW()
	          WHERE session_id = $2 AND user_id = $3`
	return r.mark(ctx, "MarkPermanentBan", query, reason, sessionID, userID)
}

func (r *participantRepository) mark(ctx context.Context, op, query string, reason domain.Reason, sessionID int64, userID string) error {
	logger.DatabaseCall("UPDATE", "event_participants", "op", op, "sessionID", sessionID, "userID", userID, "reason", reason)
	_, err := r.db.ExecContext(ctx, query, string(reason), sessionID, userID)
	logger.DatabaseResult("UPDATE", err, "op", op, "userID", userID)
	return err
}

func (r *participantRepository) ClearState(ctx context.Context, sessionID int64, userID string) error {
	query := `UPDATE event_participants
	          SET state = 'active', last_state_reason = NULL,
	              reminders_sent = 0, warnings_sent = 0, expulsions_count = 0,
	              last_state_change_at = NOW()
	          WHERE session_id = $1 AND user_id = $2`
	logger.DatabaseCall("UPDATE", "event_participants", "op", "ClearState", "sessionID", sessionID, "userID", userID)

	_, err := r.db.ExecContext(ctx, query, sessionID, userID)
	logger.DatabaseResult("UPDATE", err, "op", "ClearState", "userID", userID)
	return err
}

func (r *participantRepository) UpdateLastCheck(ctx context.Context, sessionID int64, userID string) error {
	query := `UPDATE event_participants SET last_check_at = NOW() WHERE session_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, sessionID, userID)
	return err
}
