package postgres

import (
	"context"
	"database/sql"

	"eventwarden/internal/repository"

	_ "github.com/lib/pq"
)

// NewStore wires every repository to the given database handle.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Sessions:     NewSessionRepository(db),
		Participants: NewParticipantRepository(db),
		Sanctions:    NewSanctionRepository(db),
		Checks:       NewVerificationLogRepository(db),
		Reminders:    NewReminderRepository(db),
		StaffActions: NewStaffActionRepository(db),
	}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS event_sessions (
		id BIGSERIAL PRIMARY KEY,
		guild_id VARCHAR(20) NOT NULL,
		name TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		created_by VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_by VARCHAR(20),
		finish_reason TEXT,
		finished_at TIMESTAMPTZ,
		channel_id VARCHAR(20),
		message_id VARCHAR(20)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_session_per_guild
		ON event_sessions (guild_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS event_participants (
		session_id BIGINT NOT NULL REFERENCES event_sessions(id),
		guild_id VARCHAR(20) NOT NULL,
		user_id VARCHAR(20) NOT NULL,
		state VARCHAR(16) NOT NULL DEFAULT 'active',
		reminders_sent INT NOT NULL DEFAULT 0,
		warnings_sent INT NOT NULL DEFAULT 0,
		expulsions_count INT NOT NULL DEFAULT 0,
		last_state_reason VARCHAR(32),
		last_check_at TIMESTAMPTZ,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_state_change_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_sanction_counters (
		guild_id VARCHAR(20) NOT NULL,
		user_id VARCHAR(20) NOT NULL,
		reason VARCHAR(32) NOT NULL,
		reminders INT NOT NULL DEFAULT 0,
		warnings INT NOT NULL DEFAULT 0,
		expulsions INT NOT NULL DEFAULT 0,
		permanent_ban_at TIMESTAMPTZ,
		last_action VARCHAR(32),
		last_action_at TIMESTAMPTZ,
		PRIMARY KEY (guild_id, user_id, reason)
	)`,
	`CREATE TABLE IF NOT EXISTS event_verification_checks (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		session_id BIGINT NOT NULL,
		guild_id VARCHAR(20) NOT NULL,
		user_id VARCHAR(20) NOT NULL,
		tag_ok BOOLEAN NOT NULL,
		bio_ok BOOLEAN NOT NULL,
		action_taken VARCHAR(32) NOT NULL,
		details TEXT,
		checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS event_reminders (
		guild_id VARCHAR(20) NOT NULL,
		user_id VARCHAR(20) NOT NULL,
		last_reminded_at TIMESTAMPTZ,
		opted_out_at TIMESTAMPTZ,
		PRIMARY KEY (guild_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS staff_amnesties (
		id BIGSERIAL PRIMARY KEY,
		guild_id VARCHAR(20) NOT NULL,
		moderator_id VARCHAR(20) NOT NULL,
		user_id VARCHAR(20) NOT NULL,
		action VARCHAR(40) NOT NULL,
		reason VARCHAR(32),
		note TEXT,
		target_reference TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
