package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/repository"
)

var actionColumns = map[domain.Action]string{
	domain.ActionReminder:  "reminders",
	domain.ActionWarning:   "warnings",
	domain.ActionExpulsion: "expulsions",
}

type sanctionRepository struct {
	db *sql.DB
}

func NewSanctionRepository(db *sql.DB) repository.SanctionRepository {
	return &sanctionRepository{db: db}
}

func (r *sanctionRepository) GetCounter(ctx context.Context, guildID, userID string, reason domain.Reason) (*domain.SanctionCounter, error) {
	query := `SELECT guild_id, user_id, reason, reminders, warnings, expulsions,
	                 permanent_ban_at, COALESCE(last_action, ''), last_action_at
	          FROM event_sanction_counters
	          WHERE guild_id = $1 AND user_id = $2 AND reason = $3`

	var c domain.SanctionCounter
	var bannedAt, lastActionAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, guildID, userID, string(reason)).Scan(
		&c.GuildID, &c.UserID, &c.Reason, &c.Reminders, &c.Warnings, &c.Expulsions,
		&bannedAt, &c.LastAction, &lastActionAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bannedAt.Valid {
		c.PermanentBanAt = &bannedAt.Time
	}
	if lastActionAt.Valid {
		c.LastActionAt = &lastActionAt.Time
	}
	return &c, nil
}

func (r *sanctionRepository) Increment(ctx context.Context, guildID, userID string, reason domain.Reason, action domain.Action) error {
	column, ok := actionColumns[action]
	if !ok {
		return fmt.Errorf("no sanction column for action %q", action)
	}

	// Atomic insert-or-increment so concurrent sweeps and joins cannot
	// lose an update.
	query := fmt.Sprintf(`INSERT INTO event_sanction_counters (guild_id, user_id, reason, %[1]s, last_action, last_action_at)
	          VALUES ($1, $2, $3, 1, $4, NOW())
	          ON CONFLICT (guild_id, user_id, reason) DO UPDATE
	          SET %[1]s = event_sanction_counters.%[1]s + 1,
	              last_action = EXCLUDED.last_action,
	              last_action_at = EXCLUDED.last_action_at`, column)
	logger.DatabaseCall("UPSERT", "event_sanction_counters", "userID", userID, "reason", reason, "action", action)

	_, err := r.db.ExecContext(ctx, query, guildID, userID, string(reason), string(action))
	logger.DatabaseResult("UPSERT", err, "userID", userID, "action", action)
	return err
}

func (r *sanctionRepository) MarkPermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	query := `INSERT INTO event_sanction_counters (guild_id, user_id, reason, permanent_ban_at, last_action, last_action_at)
	          VALUES ($1, $2, $3, NOW(), 'permanent_ban', NOW())
	          ON CONFLICT (guild_id, user_id, reason) DO UPDATE
	          SET permanent_ban_at = NOW(), last_action = 'permanent_ban', last_action_at = NOW()`
	logger.DatabaseCall("UPSERT", "event_sanction_counters", "userID", userID, "reason", reason, "action", "permanent_ban")

	_, err := r.db.ExecContext(ctx, query, guildID, userID, string(reason))
	logger.DatabaseResult("UPSERT", err, "userID", userID, "action", "permanent_ban")
	return err
}

func (r *sanctionRepository) ClearCounters(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	logger.DatabaseCall("UPDATE", "event_sanction_counters", "op", "ClearCounters", "userID", userID, "reason", reason)

	var err error
	if reason != "" {
		query := `UPDATE event_sanction_counters
		          SET reminders = 0, warnings = 0, expulsions = 0, permanent_ban_at = NULL,
		              last_action = 'amnesty', last_action_at = NOW()
		          WHERE guild_id = $1 AND user_id = $2 AND reason = $3`
		_, err = r.db.ExecContext(ctx, query, guildID, userID, string(reason))
	} else {
		query := `UPDATE event_sanction_counters
		          SET reminders = 0, warnings = 0, expulsions = 0, permanent_ban_at = NULL,
		              last_action = 'amnesty', last_action_at = NOW()
		          WHERE guild_id = $1 AND user_id = $2`
		_, err = r.db.ExecContext(ctx, query, guildID, userID)
	}
	logger.DatabaseResult("UPDATE", err, "op", "ClearCounters", "userID", userID)
	return err
}

func (r *sanctionRepository) IsPermanentlyBanned(ctx context.Context, guildID, userID string) (bool, error) {
	query := `SELECT 1 FROM event_sanction_counters
	          WHERE guild_id = $1 AND user_id = $2 AND permanent_ban_at IS NOT NULL
	          LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, guildID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
