package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type verificationLogRepository struct {
	db *sql.DB
}

func NewVerificationLogRepository(db *sql.DB) repository.VerificationLogRepository {
	return &verificationLogRepository{db: db}
}

func (r *verificationLogRepository) RecordCheck(ctx context.Context, rec *domain.CheckRecord) error {
	query := `INSERT INTO event_verification_checks
	          (run_id, session_id, guild_id, user_id, tag_ok, bio_ok, action_taken, details)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "event_verification_checks",
		"userID", rec.UserID, "action", rec.Action)

	_, err := r.db.ExecContext(ctx, query, rec.RunID, rec.SessionID, rec.GuildID,
		rec.UserID, rec.TagOK, rec.BioOK, string(rec.Action), rec.Details)
	logger.DatabaseResult("INSERT", err, "userID", rec.UserID)
	return err
}
