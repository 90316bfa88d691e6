package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Database DatabaseConfig `yaml:"database"`
	Event    EventConfig    `yaml:"event"`
	Queue    QueueConfig    `yaml:"queue"`
	Admin    AdminConfig    `yaml:"admin"`
	Alert    AlertConfig    `yaml:"alert"`
	Log      LogConfig      `yaml:"log"`
}

// DiscordConfig contains gateway connection settings
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// An empty host disables persistence; the bot then runs memory-only
// with audit and cross-session counters degraded to no-ops.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// EventConfig contains event session and verification settings
type EventConfig struct {
	RequiredTag        string   `yaml:"required_tag"`
	RequiredBioLink    string   `yaml:"required_bio_link"`
	RoleID             string   `yaml:"role_id"`
	EventsChannelID    string   `yaml:"events_channel_id"`
	ControlChannelID   string   `yaml:"control_channel_id"`
	SessionName        string   `yaml:"session_name"`
	SweepIntervalMin   int      `yaml:"sweep_interval_minutes"`
	ReminderChannelIDs []string `yaml:"reminder_channel_ids"`
	ReminderThreshold  int      `yaml:"reminder_message_threshold"`
	ReminderCooldown   string   `yaml:"reminder_cooldown"`
	JoinButtonID       string   `yaml:"join_button_id"`
	JoinButtonLabel    string   `yaml:"join_button_label"`
	StopButtonID       string   `yaml:"stop_button_id"`
	StopButtonLabel    string   `yaml:"stop_button_label"`

	// Per-guild overrides for the settings that moderators tune most often.
	Guilds map[string]GuildOverride `yaml:"guilds"`
}

// GuildOverride carries per-guild settings that take precedence over
// the global event configuration.
type GuildOverride struct {
	RequiredTag      string `yaml:"required_tag"`
	ControlChannelID string `yaml:"control_channel_id"`
}

// QueueConfig contains rate-limited notification queue settings
type QueueConfig struct {
	IntervalMs  int `yaml:"interval_ms"`
	Concurrency int `yaml:"concurrency"`
	MaxQueue    int `yaml:"max_queue"`
}

// AdminConfig contains the admin HTTP API settings
type AdminConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// AlertConfig contains SMTP settings for operator alert mail.
// An empty host disables alerts.
type AlertConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Discord
	if val := os.Getenv("DISCORD_TOKEN"); val != "" {
		c.Discord.Token = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Event
	if val := os.Getenv("EVENT_REQUIRED_TAG"); val != "" {
		c.Event.RequiredTag = val
	}
	if val := os.Getenv("EVENT_REQUIRED_BIO_LINK"); val != "" {
		c.Event.RequiredBioLink = val
	}
	if val := os.Getenv("EVENT_ROLE_ID"); val != "" {
		c.Event.RoleID = val
	}
	if val := os.Getenv("EVENT_SWEEP_INTERVAL_MINUTES"); val != "" {
		fmt.Sscanf(val, "%d", &c.Event.SweepIntervalMin)
	}
	if val := os.Getenv("EVENT_REMINDER_CHANNEL_IDS"); val != "" {
		c.Event.ReminderChannelIDs = strings.Split(val, ",")
	}

	// Admin
	if val := os.Getenv("ADMIN_JWT_SECRET"); val != "" {
		c.Admin.JWTSecret = val
	}
	if val := os.Getenv("ADMIN_LISTEN_ADDR"); val != "" {
		c.Admin.ListenAddr = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required")
	}

	// Database is optional (memory-only mode), but a partial section is a
	// misconfiguration rather than an intent to disable persistence.
	if c.Database.Host != "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}

	// Sweep interval: minimum one minute
	if c.Event.SweepIntervalMin < 1 {
		c.Event.SweepIntervalMin = 60
	}

	// Reminder defaults
	if c.Event.ReminderThreshold <= 0 {
		c.Event.ReminderThreshold = 10
	}
	if c.Event.ReminderCooldown == "" {
		c.Event.ReminderCooldown = "6h"
	}
	if _, err := time.ParseDuration(c.Event.ReminderCooldown); err != nil {
		return fmt.Errorf("invalid reminder cooldown: %w", err)
	}

	// Button defaults
	if c.Event.JoinButtonID == "" {
		c.Event.JoinButtonID = "event_join"
	}
	if c.Event.JoinButtonLabel == "" {
		c.Event.JoinButtonLabel = "Join the event"
	}
	if c.Event.StopButtonID == "" {
		c.Event.StopButtonID = "event_reminder_stop"
	}
	if c.Event.StopButtonLabel == "" {
		c.Event.StopButtonLabel = "Stop reminders"
	}

	// Queue defaults
	if c.Queue.IntervalMs < 250 {
		c.Queue.IntervalMs = 1000
	}
	if c.Queue.Concurrency < 1 {
		c.Queue.Concurrency = 1
	}
	if c.Queue.MaxQueue < 1 {
		c.Queue.MaxQueue = 100
	}

	// Admin API is optional, but if exposed it must be protected
	if c.Admin.ListenAddr != "" && len(c.Admin.JWTSecret) < 32 {
		return fmt.Errorf("admin JWT secret must be at least 32 characters")
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// SweepInterval returns the verification sweep interval as a duration
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Event.SweepIntervalMin) * time.Minute
}

// ReminderCooldown returns the reminder cooldown as a duration
func (c *Config) ReminderCooldown() time.Duration {
	d, err := time.ParseDuration(c.Event.ReminderCooldown)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// RequiredTagFor returns the required tag for a guild, honoring overrides
func (c *Config) RequiredTagFor(guildID string) string {
	if g, ok := c.Event.Guilds[guildID]; ok && g.RequiredTag != "" {
		return g.RequiredTag
	}
	return c.Event.RequiredTag
}

// ControlChannelFor returns the control channel for a guild, honoring overrides
func (c *Config) ControlChannelFor(guildID string) string {
	if g, ok := c.Event.Guilds[guildID]; ok && g.ControlChannelID != "" {
		return g.ControlChannelID
	}
	return c.Event.ControlChannelID
}
