package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/analysis/redflag"
	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	chatService "github.com/zhouzirui/scam-shield/backend/internal/service/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/conversation"
	"github.com/zhouzirui/scam-shield/backend/pkg/utils"
)

// Handler streams assistant replies via Server-Sent Events
type Handler struct {
	chatSvc *chatService.Service
	logger  zerolog.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger zerolog.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes 注册流式消息路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/sessions/{sessionID}/messages", h.handleSubmit)
}

type submitRequest struct {
	Text string `json:"text"`
}

// handleSubmit accepts one user message and streams the turn. Validation
// failures are answered with plain JSON before the stream opens.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	html := r.URL.Query().Get("format") == "html"
	report := redflag.Analyze(payload.Text)

	started := false
	onEvent := func(e conversation.Event) {
		if !started {
			started = true
			utils.SetupSSEHeaders(w)
			w.WriteHeader(http.StatusOK)
		}
		name, data := Frame(e, html)
		if name == "" {
			return
		}
		utils.SendSSEEvent(w, flusher, name, data)
		if _, ok := e.(conversation.EventUserMessage); ok && report.Warning != "" {
			utils.SendSSEEvent(w, flusher, EventWarning, report)
		}
	}

	// the turn runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	err := h.chatSvc.Submit(ctx, sessionID, payload.Text, conversation.WithEventHandler(onEvent))

	if !started {
		h.respondSubmitError(w, err)
		return
	}

	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
	}

	session, getErr := h.chatSvc.GetSession(r.Context(), sessionID)
	if getErr == nil {
		utils.SendSSEEvent(w, flusher, EventEnd, EndPayload{State: session.State})
	}
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fault.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, fault.ErrBusy):
		utils.RespondError(w, http.StatusConflict, "a response is already in progress")
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	default:
		h.logger.Error().Err(err).Msg("submit failed before streaming")
		utils.RespondError(w, http.StatusInternalServerError, "submit failed")
	}
}
