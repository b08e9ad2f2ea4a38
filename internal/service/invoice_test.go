package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/internal/service"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

type fakeExtractor struct {
	out       *model.InvoiceExtraction
	err       error
	mediaType string
	calls     int
}

func (e *fakeExtractor) ExtractDocument(_ context.Context, _ []byte, mediaType string) (*model.InvoiceExtraction, error) {
	e.calls++
	e.mediaType = mediaType
	return e.out, e.err
}

func TestInvoiceProcess(t *testing.T) {
	ex := &fakeExtractor{out: &model.InvoiceExtraction{
		Wholesaler: "Apex Distributors",
		Medicines:  []model.ExtractedMedicine{{MedicineName: "Azithromycin 500", MRP: model.NewAmount(decimal.RequireFromString("84.50"))}},
	}}
	svc := service.NewInvoiceService(ex, logger.NewNop())

	out, err := svc.Process(context.Background(), &model.Attachment{Data: []byte("%PDF-1.7\n"), MediaType: "application/pdf", Filename: "inv.pdf"})
	require.NoError(t, err)
	assert.Equal(t, model.Text("Apex Distributors"), out.Wholesaler)
	assert.Equal(t, "application/pdf", ex.mediaType)
}

func TestInvoiceProcessSniffsMissingMediaType(t *testing.T) {
	ex := &fakeExtractor{out: &model.InvoiceExtraction{}}
	svc := service.NewInvoiceService(ex, logger.NewNop())

	_, err := svc.Process(context.Background(), &model.Attachment{Data: []byte("%PDF-1.7\n")})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ex.mediaType)
}

func TestInvoiceProcessNoFile(t *testing.T) {
	ex := &fakeExtractor{}
	svc := service.NewInvoiceService(ex, logger.NewNop())

	for _, file := range []*model.Attachment{nil, {}} {
		_, err := svc.Process(context.Background(), file)
		require.ErrorIs(t, err, apperr.ErrNoFile)
	}
	assert.Zero(t, ex.calls)
}

func TestInvoiceProcessPassesFailureThrough(t *testing.T) {
	ex := &fakeExtractor{err: apperr.DocumentUnreadable(errors.New("blurry"))}
	svc := service.NewInvoiceService(ex, logger.NewNop())

	_, err := svc.Process(context.Background(), &model.Attachment{Data: []byte{1}, MediaType: "image/png"})
	assert.Equal(t, apperr.KindDocumentUnreadable, apperr.KindOf(err))
}
