package handler

import (
	"net/http"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/service"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// InvoiceHandler handles purchase invoice extraction.
type InvoiceHandler struct {
	service        *service.InvoiceService
	maxUploadBytes int64
	errors         errorResponder
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(svc *service.InvoiceService, maxUploadBytes int64, debug bool, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		errors:         errorResponder{debug: debug, logger: log},
	}
}

// Process handles POST /ai/process-invoice
func (h *InvoiceHandler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, err := readUpload(r, "invoice")
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}
	if file == nil {
		h.errors.respond(w, r, apperr.ErrNoFile)
		return
	}

	out, err := h.service.Process(r.Context(), file)
	if err != nil {
		h.errors.respond(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
