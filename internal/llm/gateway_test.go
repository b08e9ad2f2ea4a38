package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

type scriptedClient struct {
	replies  []string
	errs     []error
	requests []*GenerateRequest
}

func (c *scriptedClient) Generate(_ context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	text := ""
	if i < len(c.replies) {
		text = c.replies[i]
	}
	return &GenerateResponse{Text: text, Model: "scripted", StopReason: "STOP", LatencyMs: 12}, nil
}

func (c *scriptedClient) Name() string     { return "scripted" }
func (c *scriptedClient) Models() []string { return []string{"scripted"} }

func newTestGateway(client Client, attempts int) (*Gateway, *[]time.Duration) {
	g := NewGateway(client, GatewayConfig{
		Model:        "m",
		SystemPrompt: "system",
		MaxAttempts:  attempts,
		BaseDelay:    time.Second,
	}, nil)
	var waits []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return g, &waits
}

func TestGenerateWithRetrySucceedsOnThirdAttempt(t *testing.T) {
	boom := errors.New("503 overloaded")
	client := &scriptedClient{
		errs:    []error{boom, boom, nil},
		replies: []string{"", "", `{"ok":true}`},
	}
	g, waits := newTestGateway(client, 3)

	text, err := g.GenerateWithRetry(context.Background(), &GenerateRequest{Parts: []Part{TextPart("hi")}})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Len(t, client.requests, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestGenerateWithRetryExhausts(t *testing.T) {
	last := errors.New("third failure")
	client := &scriptedClient{errs: []error{errors.New("first"), errors.New("second"), last}}
	g, waits := newTestGateway(client, 3)

	_, err := g.GenerateWithRetry(context.Background(), &GenerateRequest{})
	require.Error(t, err)

	assert.Len(t, client.requests, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits, "no wait after the final failure")
	assert.Equal(t, apperr.KindGatewayExhausted, apperr.KindOf(err))
	assert.ErrorIs(t, err, last)
}

func TestGenerateWithRetryStopsOnCancelledWait(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	g, _ := newTestGateway(client, 3)
	g.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateWithRetry(ctx, &GenerateRequest{})
	require.Error(t, err)
	assert.Len(t, client.requests, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatUsesSystemPromptAndJSONMode(t *testing.T) {
	client := &scriptedClient{replies: []string{"{}"}}
	g, _ := newTestGateway(client, 3)

	_, err := g.Chat(context.Background(), []Part{TextPart("[USER_QUERY] x"), BinaryPart([]byte{1}, "image/jpeg")})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "system", req.SystemInstruction)
	assert.True(t, req.JSONResponse)
	assert.Equal(t, "m", req.Model)
	require.Len(t, req.Parts, 2)
	assert.True(t, req.Parts[1].IsBinary())
}

func TestGatewayPassesSamplingSettings(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &scriptedClient{replies: []string{"{}", `{"medicines": []}`}}
	g := NewGateway(client, GatewayConfig{
		Model:       "m",
		MaxTokens:   2048,
		Temperature: 0.2,
	}, &logger.Logger{Logger: zap.New(core)})

	_, err := g.Chat(context.Background(), []Part{TextPart("q")})
	require.NoError(t, err)
	_, err = g.ExtractDocument(context.Background(), []byte{0xff}, "image/png")
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	for _, req := range client.requests {
		assert.Equal(t, 2048, req.MaxTokens)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	}

	finished := logs.FilterMessage("model call finished").All()
	require.Len(t, finished, 2)
	fields := finished[0].ContextMap()
	assert.Equal(t, "STOP", fields["stop_reason"])
	assert.EqualValues(t, 12, fields["latency_ms"])
	assert.Equal(t, "scripted", fields["model"])
}

func TestExtractDocument(t *testing.T) {
	client := &scriptedClient{replies: []string{"```json\n" + `{
		"wholesaler": "Apex Distributors",
		"invoiceNumber": "INV-2231",
		"date": "2026-09-30",
		"medicines": [{"medicine_name": "Azithromycin 500", "stock_quantity": "30", "purchase_price": 61.2, "mrp": null, "batch_no": "AZ9"}]
	}` + "\n```"}}
	g, waits := newTestGateway(client, 3)

	out, err := g.ExtractDocument(context.Background(), []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, model.Text("Apex Distributors"), out.Wholesaler)
	require.Len(t, out.Medicines, 1)
	assert.Equal(t, "30", out.Medicines[0].StockQuantity.Decimal.String())
	assert.False(t, out.Medicines[0].MRP.Valid)

	req := client.requests[0]
	assert.Empty(t, req.SystemInstruction)
	assert.Equal(t, "application/pdf", req.Parts[1].MIMEType)
	assert.Empty(t, *waits)
}

func TestExtractDocumentAcceptsLooseFieldTypes(t *testing.T) {
	client := &scriptedClient{replies: []string{`{
		"wholesaler": "Apex Distributors",
		"invoiceNumber": 88412,
		"date": "2026-09-30",
		"medicines": [{"medicine_name": "Cetirizine 10", "batch_no": 55012, "stock_quantity": "10 strips", "mrp": 42}]
	}`}}
	g, _ := newTestGateway(client, 3)

	out, err := g.ExtractDocument(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, model.Text("88412"), out.InvoiceNumber)
	require.Len(t, out.Medicines, 1)
	assert.Equal(t, model.Text("55012"), out.Medicines[0].BatchNo)
	assert.Equal(t, "10 strips", out.Medicines[0].StockQuantity.Raw)
	assert.Equal(t, "42", out.Medicines[0].MRP.Decimal.String())
}

func TestExtractDocumentFailuresAreGeneric(t *testing.T) {
	cases := map[string]*scriptedClient{
		"provider error": {errs: []error{errors.New("quota exceeded")}},
		"malformed":      {replies: []string{"I could not read this invoice"}},
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			g, _ := newTestGateway(client, 3)

			_, err := g.ExtractDocument(context.Background(), []byte{0xff}, "image/png")
			require.Error(t, err)
			assert.Len(t, client.requests, 1, "single shot")
			assert.Equal(t, apperr.KindDocumentUnreadable, apperr.KindOf(err))
			assert.Equal(t, "Failed to process invoice. The AI model could not read the document.", apperr.PublicMessage(err))
		})
	}
}
