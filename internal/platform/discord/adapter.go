package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"eventwarden/internal/logger"
	"eventwarden/internal/platform"
)

// Adapter implements platform.Client on top of the Discord REST API.
type Adapter struct {
	session *discordgo.Session
}

func NewAdapter(session *discordgo.Session) *Adapter {
	return &Adapter{session: session}
}

// userProfile is the slice of the user object the compliance check needs.
type userProfile struct {
	Bio string `json:"bio"`
}

func (a *Adapter) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	logger.PlatformCall("GuildMember", "guildID", guildID, "userID", userID)
	member, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	logger.PlatformResult("GuildMember", err)
	if isNotFound(err) {
		return nil, platform.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}

	m := &platform.Member{
		UserID:      userID,
		DisplayName: displayName(member),
		RoleIDs:     member.Roles,
	}

	// The bio is not part of the member payload; fetch the user object
	// separately. A failure here degrades to an empty bio rather than
	// failing the whole check.
	if bio, err := a.fetchBio(ctx, userID); err != nil {
		logger.Warn("Failed to fetch user bio", "userID", userID, "error", err)
	} else {
		m.Bio = bio
	}
	return m, nil
}

func (a *Adapter) fetchBio(ctx context.Context, userID string) (string, error) {
	logger.PlatformCall("User", "userID", userID)
	body, err := a.session.RequestWithBucketID(
		http.MethodGet,
		discordgo.EndpointUser(userID),
		nil,
		discordgo.EndpointUsers,
		discordgo.WithContext(ctx),
	)
	logger.PlatformResult("User", err)
	if err != nil {
		return "", err
	}
	var profile userProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("failed to decode user payload: %w", err)
	}
	return profile.Bio, nil
}

func (a *Adapter) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	logger.PlatformCall("GuildMemberRoleAdd", "guildID", guildID, "userID", userID, "roleID", roleID)
	err := a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	logger.PlatformResult("GuildMemberRoleAdd", err)
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

func (a *Adapter) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	logger.PlatformCall("GuildMemberRoleRemove", "guildID", guildID, "userID", userID, "roleID", roleID)
	err := a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	logger.PlatformResult("GuildMemberRoleRemove", err)
	if isNotFound(err) {
		// The member or role is already gone; revocation is moot.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

func (a *Adapter) SendDirect(ctx context.Context, userID string, n platform.Notice) error {
	channel, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	// No mention inside a DM.
	n.Mention = false
	_, err = a.session.ChannelMessageSendComplex(channel.ID, renderNotice(n), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

func (a *Adapter) SendChannel(ctx context.Context, channelID string, n platform.Notice) error {
	_, err := a.session.ChannelMessageSendComplex(channelID, renderNotice(n), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send channel message: %w", err)
	}
	return nil
}

func (a *Adapter) PublishAnnouncement(ctx context.Context, channelID string, ann platform.Announcement) (string, error) {
	msg, err := a.session.ChannelMessageSendComplex(channelID, renderAnnouncement(ann), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to publish announcement: %w", err)
	}
	return msg.ID, nil
}

func (a *Adapter) UpdateAnnouncement(ctx context.Context, channelID, messageID string, ann platform.Announcement) error {
	_, err := a.session.ChannelMessageEditComplex(renderAnnouncementEdit(channelID, messageID, ann), discordgo.WithContext(ctx))
	if isNotFound(err) {
		return platform.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
