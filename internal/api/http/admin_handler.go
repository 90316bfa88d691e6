package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"eventwarden/internal/domain"
	"eventwarden/internal/logger"
	"eventwarden/internal/scheduler"
	"eventwarden/internal/security"
	"eventwarden/internal/service"
)

// AdminHandler exposes moderator operations over HTTP: session lifecycle
// control, amnesty grants and sweep tuning. Every route requires a
// bearer token issued for a moderator.
type AdminHandler struct {
	events    service.EventService
	amnesty   service.AmnestyService
	scheduler *scheduler.Scheduler
	tokens    security.TokenManager
}

func NewAdminHandler(
	events service.EventService,
	amnesty service.AmnestyService,
	sched *scheduler.Scheduler,
	tokens security.TokenManager,
) *AdminHandler {
	return &AdminHandler{
		events:    events,
		amnesty:   amnesty,
		scheduler: sched,
		tokens:    tokens,
	}
}

// Router builds the admin API router with authentication applied.
func (h *AdminHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.authenticate)

	r.HandleFunc("/v1/guilds/{guildID}/session", h.handleActiveSession).Methods(http.MethodGet)
	r.HandleFunc("/v1/guilds/{guildID}/session", h.handlePublish).Methods(http.MethodPost)
	r.HandleFunc("/v1/guilds/{guildID}/session", h.handleFinish).Methods(http.MethodDelete)
	r.HandleFunc("/v1/guilds/{guildID}/users/{userID}/amnesty", h.handleAmnesty).Methods(http.MethodPost)
	r.HandleFunc("/v1/guilds/{guildID}/users/{userID}/unban", h.handleUnban).Methods(http.MethodPost)
	r.HandleFunc("/v1/sweep/interval", h.handleReloadInterval).Methods(http.MethodPut)

	return r
}

type contextKey string

const moderatorKey contextKey = "moderator"

func (h *AdminHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := contextWithModerator(r.Context(), claims.ModeratorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *AdminHandler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	session, err := h.events.ActiveSession(r.Context(), guildID)
	if err != nil {
		logger.Error("Failed to look up active session", "guildID", guildID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type publishRequest struct {
	ChannelID string `json:"channel_id"`
}

func (h *AdminHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]
	moderatorID := moderatorFrom(r)

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" {
		writeError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	session, err := h.events.Publish(r.Context(), guildID, req.ChannelID, moderatorID)
	if errors.Is(err, service.ErrSessionActive) {
		writeError(w, http.StatusConflict, "an event session is already active")
		return
	}
	if err != nil {
		logger.Error("Failed to publish session", "guildID", guildID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type finishRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) handleFinish(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]
	moderatorID := moderatorFrom(r)

	var req finishRequest
	// Body is optional for finish.
	_ = json.NewDecoder(r.Body).Decode(&req)

	session, err := h.events.Finish(r.Context(), guildID, moderatorID, req.Reason)
	if errors.Is(err, service.ErrNoActiveSession) {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	if err != nil {
		logger.Error("Failed to finish session", "guildID", guildID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to finish session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type amnestyRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (h *AdminHandler) handleAmnesty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guildID, userID := vars["guildID"], vars["userID"]
	moderatorID := moderatorFrom(r)

	var req amnestyRequest
	// Empty body clears every reason.
	_ = json.NewDecoder(r.Body).Decode(&req)

	reason := domain.Reason(req.Reason)
	switch reason {
	case "", domain.ReasonMissingTag, domain.ReasonMissingBio, domain.ReasonLeftGuild:
	default:
		writeError(w, http.StatusBadRequest, "unknown reason")
		return
	}

	if err := h.amnesty.ClearForReason(r.Context(), guildID, userID, moderatorID, reason, req.Note); err != nil {
		logger.Error("Failed to grant amnesty", "guildID", guildID, "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to grant amnesty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *AdminHandler) handleUnban(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	guildID, userID := vars["guildID"], vars["userID"]
	moderatorID := moderatorFrom(r)

	if err := h.amnesty.Unban(r.Context(), guildID, userID, moderatorID); err != nil {
		logger.Error("Failed to lift event ban", "guildID", guildID, "userID", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to lift ban")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unbanned"})
}

type intervalRequest struct {
	Minutes int `json:"minutes"`
}

func (h *AdminHandler) handleReloadInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Minutes < 1 {
		writeError(w, http.StatusBadRequest, "minutes must be a positive integer")
		return
	}

	if err := h.scheduler.ReloadInterval(time.Duration(req.Minutes) * time.Minute); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"minutes": req.Minutes})
}

func contextWithModerator(ctx context.Context, moderatorID string) context.Context {
	return context.WithValue(ctx, moderatorKey, moderatorID)
}

func moderatorFrom(r *http.Request) string {
	id, _ := r.Context().Value(moderatorKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
