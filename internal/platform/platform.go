package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a guild, member, channel or message cannot
// be resolved on the chat platform. During a sweep it means the member
// left the guild.
var ErrNotFound = errors.New("platform: not found")

// Member is the live view of a guild member used for compliance checks.
type Member struct {
	UserID      string
	DisplayName string
	Bio         string
	RoleIDs     []string
}

// HasRole reports whether the member holds the given role.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Notice is the declarative payload handed to the renderer for a single
// outbound message. The core never constructs platform-specific rich
// content itself.
type Notice struct {
	Title       string
	Description string
	GuildID     string
	UserID      string
	Mention     bool

	// Optional interactive actions rendered as buttons.
	JoinButtonID    string
	JoinButtonLabel string
	StopButtonID    string
	StopButtonLabel string
}

// Announcement is the declarative payload for an event announcement
// message carrying the join action and the visible roster.
type Announcement struct {
	Title           string
	Description     string
	Roster          []string
	RosterTotal     int
	JoinButtonID    string
	JoinButtonLabel string
	Disabled        bool
}

// Client is the narrow chat-platform surface the core consumes. All calls
// are fallible; callers treat them as best-effort except role mutation,
// which gates further side effects on success.
type Client interface {
	// Member resolves a guild member with live display name, bio and
	// roles. Returns ErrNotFound when the user is no longer a member.
	Member(ctx context.Context, guildID, userID string) (*Member, error)

	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID string) error

	SendDirect(ctx context.Context, userID string, n Notice) error
	SendChannel(ctx context.Context, channelID string, n Notice) error

	// PublishAnnouncement posts the announcement and returns the new
	// message ID.
	PublishAnnouncement(ctx context.Context, channelID string, a Announcement) (string, error)
	// UpdateAnnouncement re-renders an existing announcement, including
	// disabling its controls when a.Disabled is set.
	UpdateAnnouncement(ctx context.Context, channelID, messageID string, a Announcement) error
}
