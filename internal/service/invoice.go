package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// DocumentExtractor reads structured data out of a document.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, data []byte, mediaType string) (*model.InvoiceExtraction, error)
}

// InvoiceService turns an uploaded purchase invoice into line items.
type InvoiceService struct {
	extractor DocumentExtractor
	logger    *logger.Logger
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(extractor DocumentExtractor, log *logger.Logger) *InvoiceService {
	return &InvoiceService{
		extractor: extractor,
		logger:    log,
	}
}

// Process extracts the invoice. Nothing is persisted.
func (s *InvoiceService) Process(ctx context.Context, file *model.Attachment) (*model.InvoiceExtraction, error) {
	if file.Empty() {
		return nil, apperr.ErrNoFile
	}

	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(file.Data)
	}

	out, err := s.extractor.ExtractDocument(ctx, file.Data, mediaType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice extracted",
		zap.String("filename", file.Filename),
		zap.String("media_type", mediaType),
		zap.Int("medicines", len(out.Medicines)),
	)
	return out, nil
}
