package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"eventwarden/internal/config"
	"eventwarden/internal/logger"
	"eventwarden/internal/service"
)

const handlerTimeout = 15 * time.Second

// Handlers wires gateway events to the services: chat messages feed the
// activity reminder engine, component interactions drive join and
// reminder opt-out.
type Handlers struct {
	cfg       *config.Config
	events    service.EventService
	reminders service.ReminderService
}

func NewHandlers(cfg *config.Config, events service.EventService, reminders service.ReminderService) *Handlers {
	return &Handlers{
		cfg:       cfg,
		events:    events,
		reminders: reminders,
	}
}

func (h *Handlers) Register(s *discordgo.Session) {
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onInteractionCreate)
}

func (h *Handlers) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := h.reminders.HandleActivity(ctx, m.GuildID, m.ChannelID, m.Author.ID); err != nil {
		logger.Warn("Failed to process chat activity",
			"guildID", m.GuildID, "userID", m.Author.ID, "error", err)
	}
}

func (h *Handlers) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	switch i.MessageComponentData().CustomID {
	case h.cfg.Event.JoinButtonID:
		h.handleJoin(s, i, userID)
	case h.cfg.Event.StopButtonID:
		h.handleStopReminders(s, i, userID)
	}
}

func (h *Handlers) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	messageID := ""
	if i.Message != nil {
		messageID = i.Message.ID
	}

	result, err := h.events.Join(ctx, i.GuildID, i.ChannelID, messageID, userID)
	switch {
	case errors.Is(err, service.ErrPermanentlyBanned):
		respondEphemeral(s, i, "You are permanently banned from community events.")
	case errors.Is(err, service.ErrNoActiveSession):
		respondEphemeral(s, i, "This event is no longer running.")
	case err != nil:
		logger.Error("Join failed", "guildID", i.GuildID, "userID", userID, "error", err)
		respondEphemeral(s, i, "Something went wrong, please try again.")
	case result.AlreadyJoined:
		respondEphemeral(s, i, "You are already taking part in this event.")
	default:
		respondEphemeral(s, i, "You are in! Keep your tag and bio compliant for the duration of the event.")
	}
}

func (h *Handlers) handleStopReminders(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	already, err := h.reminders.OptOut(ctx, i.GuildID, userID)
	switch {
	case err != nil:
		logger.Error("Opt-out failed", "guildID", i.GuildID, "userID", userID, "error", err)
		respondEphemeral(s, i, "Something went wrong, please try again.")
	case already:
		respondEphemeral(s, i, "You had already stopped event reminders.")
	default:
		respondEphemeral(s, i, "You will no longer receive event reminders.")
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Warn("Failed to respond to interaction", "error", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
