package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/middleware"
	"github.com/lalitkumar100/mediCude-backend/internal/service"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// ChatHandler handles the session listing and history endpoints.
type ChatHandler struct {
	service *service.ChatService
	errors  errorResponder
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, debug bool, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		errors:  errorResponder{debug: debug, logger: log},
	}
}

// Menu handles GET /ai/chatMenu
func (h *ChatHandler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Menu(r.Context(), middleware.GetLoginID(r.Context()))
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Open handles GET /ai/openChat/{id}
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")
	if err := middleware.ValidateChatID(chatID); err != nil {
		h.errors.respond(w, r, apperr.ErrSessionNotFound)
		return
	}

	history, err := h.service.Open(r.Context(), middleware.GetLoginID(r.Context()), chatID)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
