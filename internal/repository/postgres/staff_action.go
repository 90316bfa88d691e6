package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

type staffActionRepository struct {
	db *sql.DB
}

func NewStaffActionRepository(db *sql.DB) repository.StaffActionRepository {
	return &staffActionRepository{db: db}
}

func (r *staffActionRepository) LogAmnesty(ctx context.Context, a *domain.StaffAmnesty) error {
	query := `INSERT INTO staff_amnesties (guild_id, moderator_id, user_id, action, reason, note, target_reference)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	logger.DatabaseCall("INSERT", "staff_amnesties",
		"moderatorID", a.ModeratorID, "userID", a.UserID, "action", a.Action)

	err := r.db.QueryRowContext(ctx, query, a.GuildID, a.ModeratorID, a.UserID,
		string(a.Action), a.Reason, a.Note, a.Reference).Scan(&a.ID, &a.CreatedAt)
	logger.DatabaseResult("INSERT", err, "amnestyID", a.ID)
	return err
}
