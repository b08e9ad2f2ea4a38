package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/middleware"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/internal/service"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// PipelineHandler handles analytics turns.
type PipelineHandler struct {
	service        *service.PipelineService
	maxUploadBytes int64
	errors         errorResponder
}

// NewPipelineHandler creates a new pipeline handler.
func NewPipelineHandler(svc *service.PipelineService, maxUploadBytes int64, debug bool, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		errors:         errorResponder{debug: debug, logger: log},
	}
}

// Run handles POST /ai/pipeline and POST /ai/pipeline/{id}
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	form, attachment, err := decodePipelineForm(r, "image", h.maxUploadBytes)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	if err := validate.Struct(form); err != nil {
		h.errors.respond(w, r, apperr.Wrap(apperr.KindBadRequest, "Prompt or summary is too long", err))
		return
	}
	if err := middleware.ValidatePrompt(form.Prompt); err != nil {
		h.errors.respond(w, r, apperr.BadRequest(err.Error()))
		return
	}

	user, _ := middleware.GetUser(ctx)
	req := &model.PipelineRequest{
		User:         user,
		SessionID:    chi.URLParam(r, "id"),
		Prompt:       form.Prompt,
		PriorSummary: form.NextGenSummary,
		NewChat:      bool(form.NewChat),
		Attachment:   attachment,
	}

	if !req.StartsNewSession() && middleware.ValidateChatID(req.SessionID) != nil {
		h.errors.respond(w, r, apperr.ErrSessionNotFound)
		return
	}

	resp, err := h.service.Run(ctx, req)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
