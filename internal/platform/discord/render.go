package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"eventwarden/internal/platform"
)

const (
	colorNotice       = 0xe67e22
	colorAnnouncement = 0x2ecc71
)

// renderNotice turns a declarative notice into a Discord message with an
// embed and optional action buttons.
func renderNotice(n platform.Notice) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       n.Title,
			Description: n.Description,
			Color:       colorNotice,
		}},
	}
	if n.Mention && n.UserID != "" {
		msg.Content = fmt.Sprintf("<@%s>", n.UserID)
	}
	if row := noticeButtons(n); row != nil {
		msg.Components = []discordgo.MessageComponent{*row}
	}
	return msg
}

func noticeButtons(n platform.Notice) *discordgo.ActionsRow {
	var buttons []discordgo.MessageComponent
	if n.JoinButtonID != "" {
		buttons = append(buttons, discordgo.Button{
			Label:    n.JoinButtonLabel,
			Style:    discordgo.PrimaryButton,
			CustomID: n.JoinButtonID,
		})
	}
	if n.StopButtonID != "" {
		buttons = append(buttons, discordgo.Button{
			Label:    n.StopButtonLabel,
			Style:    discordgo.SecondaryButton,
			CustomID: n.StopButtonID,
		})
	}
	if len(buttons) == 0 {
		return nil
	}
	return &discordgo.ActionsRow{Components: buttons}
}

func renderAnnouncement(a platform.Announcement) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{announcementEmbed(a)},
		Components: announcementComponents(a),
	}
}

func renderAnnouncementEdit(channelID, messageID string, a platform.Announcement) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	embeds := []*discordgo.MessageEmbed{announcementEmbed(a)}
	components := announcementComponents(a)
	edit.Embeds = &embeds
	edit.Components = &components
	return edit
}

func announcementEmbed(a platform.Announcement) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       colorAnnouncement,
	}
	embed.Fields = []*discordgo.MessageEmbedField{{
		Name:  fmt.Sprintf("Participants (%d)", a.RosterTotal),
		Value: rosterValue(a),
	}}
	return embed
}

func rosterValue(a platform.Announcement) string {
	if len(a.Roster) == 0 {
		return "No one yet. Be the first!"
	}
	mentions := make([]string, 0, len(a.Roster))
	for _, userID := range a.Roster {
		mentions = append(mentions, fmt.Sprintf("<@%s>", userID))
	}
	value := strings.Join(mentions, " ")
	if extra := a.RosterTotal - len(a.Roster); extra > 0 {
		value += fmt.Sprintf(" +%d more", extra)
	}
	return value
}

func announcementComponents(a platform.Announcement) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    a.JoinButtonLabel,
				Style:    discordgo.SuccessButton,
				CustomID: a.JoinButtonID,
				Disabled: a.Disabled,
			},
		}},
	}
}
