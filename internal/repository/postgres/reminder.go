package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Get(ctx context.Context, guildID, userID string) (*domain.ReminderRecord, error) {
	query := `SELECT last_reminded_at, opted_out_at FROM event_reminders
	          WHERE guild_id = $1 AND user_id = $2`

	var lastRemindedAt, optedOutAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, guildID, userID).Scan(&lastRemindedAt, &optedOutAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &domain.ReminderRecord{GuildID: guildID, UserID: userID, OptedOut: optedOutAt.Valid}
	if lastRemindedAt.Valid {
		rec.LastRemindedAt = &lastRemindedAt.Time
	}
	return rec, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, guildID, userID string) error {
	query := `INSERT INTO event_reminders (guild_id, user_id, last_reminded_at, opted_out_at)
	          VALUES ($1, $2, NOW(), NULL)
	          ON CONFLICT (guild_id, user_id) DO UPDATE
	          SET last_reminded_at = NOW(), opted_out_at = NULL`
	logger.DatabaseCall("UPSERT", "event_reminders", "op", "MarkSent", "userID", userID)

	_, err := r.db.ExecContext(ctx, query, guildID, userID)
	logger.DatabaseResult("UPSERT", err, "op", "MarkSent", "userID", userID)
	return err
}

func (r *reminderRepository) MarkOptOut(ctx context.Context, guildID, userID string) error {
	query := `INSERT INTO event_reminders (guild_id, user_id, last_reminded_at, opted_out_at)
	          VALUES ($1, $2, NULL, NOW())
	          ON CONFLICT (guild_id, user_id) DO UPDATE
	          SET opted_out_at = NOW()`
	logger.DatabaseCall("UPSERT", "event_reminders", "op", "MarkOptOut", "userID", userID)

	_, err := r.db.ExecContext(ctx, query, guildID, userID)
	logger.DatabaseResult("UPSERT", err, "op", "MarkOptOut", "userID", userID)
	return err
}
