package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"eventwarden/internal/config"
	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
)

type alertService struct {
	cfg config.AlertConfig

	disabledOnce sync.Once
}

// NewAlertService wires operator alert mail. With no SMTP host configured
// the service stays constructed but silently drops alerts after one
// warning.
func NewAlertService(cfg config.AlertConfig) AlertService {
	return &alertService{cfg: cfg}
}

func (s *alertService) enabled() bool {
	if s.cfg.Host == "" || len(s.cfg.To) == 0 {
		s.disabledOnce.Do(func() {
			logger.Warn("Operator alert mail disabled, no SMTP host or recipients configured")
		})
		return false
	}
	return true
}

func (s *alertService) PermanentBan(ctx context.Context, guildID, userID string, reason domain.Reason) error {
	if !s.enabled() {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", fmt.Sprintf("Event permanent ban issued in guild %s", guildID))

	body := fmt.Sprintf(
		"A participant was permanently banned from events.\n\nGuild: %s\nUser: %s\nReason: %s\nTime: %s\n\nUse the admin unban endpoint to lift the ban if it was issued in error.",
		guildID, userID, reason, time.Now().UTC().Format(time.RFC3339))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send permanent ban alert: %w", err)
	}

	logger.Info("Permanent ban alert sent", "guildID", guildID, "userID", userID)
	return nil
}
