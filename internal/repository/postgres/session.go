package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO event_sessions (guild_id, name, status, created_by, channel_id, message_id)
	          VALUES ($1, $2, 'active', $3, $4, $5) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "event_sessions", "guildID", s.GuildID, "name", s.Name)

	err := r.db.QueryRowContext(ctx, query, s.GuildID, s.Name, s.CreatedBy, s.ChannelID, s.MessageID).
		Scan(&s.ID, &s.CreatedAt)
	logger.DatabaseResult("INSERT", err, "sessionID", s.ID)
	if err == nil {
		s.Status = domain.SessionActive
	}
	return err
}

func (r *sessionRepository) FindActive(ctx context.Context, guildID string) (*domain.Session, error) {
	query := `SELECT id, guild_id, name, status, created_by, created_at,
	                 COALESCE(channel_id, ''), COALESCE(message_id, '')
	          FROM event_sessions
	          WHERE guild_id = $1 AND status = 'active'
	          ORDER BY id DESC LIMIT 1`

	var s domain.Session
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(
		&s.ID, &s.GuildID, &s.Name, &s.Status, &s.CreatedBy, &s.CreatedAt,
		&s.ChannelID, &s.MessageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) ListActive(ctx context.Context) ([]domain.Session, error) {
	query := `SELECT id, guild_id, name, status, created_by, created_at,
	                 COALESCE(channel_id, ''), COALESCE(message_id, '')
	          FROM event_sessions
	          WHERE status = 'active'`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.GuildID, &s.Name, &s.Status, &s.CreatedBy,
			&s.CreatedAt, &s.ChannelID, &s.MessageID); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) AttachMessage(ctx context.Context, sessionID int64, channelID, messageID string) error {
	query := `UPDATE event_sessions SET channel_id = $1, message_id = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, channelID, messageID, sessionID)
	return err
}

func (r *sessionRepository) Finish(ctx context.Context, sessionID int64, finishedBy, reason string) error {
	query := `UPDATE event_sessions
	          SET status = 'finished', finished_at = NOW(), finished_by = $1, finish_reason = $2
	          WHERE id = $3 AND status = 'active'`
	logger.DatabaseCall("UPDATE", "event_sessions", "sessionID", sessionID, "finishedBy", finishedBy)

	_, err := r.db.ExecContext(ctx, query, finishedBy, reason, sessionID)
	logger.DatabaseResult("UPDATE", err, "sessionID", sessionID)
	return err
}
