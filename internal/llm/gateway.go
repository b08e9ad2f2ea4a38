package llm

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/envelope"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
	"github.com/lalitkumar100/mediCude-backend/pkg/metrics"
)

// invoicePrompt is sent alongside an uploaded purchase invoice.
const invoicePrompt = `You are reading a pharmacy purchase invoice. Extract the following and return ONLY a JSON object:
{
  "wholesaler": "name of the wholesaler or distributor",
  "invoiceNumber": "invoice number",
  "date": "invoice date as YYYY-MM-DD",
  "medicines": [
    {
      "medicine_name": "generic or product name",
      "brand_name": "brand",
      "mfg_date": "YYYY-MM-DD",
      "expiry_date": "YYYY-MM-DD",
      "packed_type": "strip, bottle, tube, box ...",
      "stock_quantity": 0,
      "purchase_price": 0,
      "mrp": 0,
      "batch_no": "batch number"
    }
  ]
}
If a field is missing on the invoice, use null or an empty string.`

var tracer = otel.Tracer("github.com/lalitkumar100/mediCude-backend/internal/llm")

// GatewayConfig tunes the gateway.
type GatewayConfig struct {
	Model        string
	SystemPrompt string
	// MaxAttempts counts the first call; values below 1 mean 1.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles after each further failure.
	BaseDelay time.Duration
	// MaxTokens and Temperature are passed through; zero leaves the provider default.
	MaxTokens   int
	Temperature float64
}

// Gateway wraps a provider client with retry and the two request shapes the service uses.
type Gateway struct {
	client Client
	cfg    GatewayConfig
	logger *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway over client.
func NewGateway(client Client, cfg GatewayConfig, log *logger.Logger) *Gateway {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: log,
		sleep:  sleepContext,
	}
}

// Chat sends a turn with the system instruction in JSON response mode and returns the raw text.
func (g *Gateway) Chat(ctx context.Context, parts []Part) (string, error) {
	return g.GenerateWithRetry(ctx, &GenerateRequest{
		Model:             g.cfg.Model,
		SystemInstruction: g.cfg.SystemPrompt,
		Parts:             parts,
		JSONResponse:      true,
		MaxTokens:         g.cfg.MaxTokens,
		Temperature:       g.cfg.Temperature,
	})
}

// GenerateWithRetry calls the provider up to MaxAttempts times, waiting BaseDelay, 2*BaseDelay, ...
// between attempts. Errors are not classified. Exhaustion returns a GatewayExhausted error
// wrapping the last failure.
func (g *Gateway) GenerateWithRetry(ctx context.Context, req *GenerateRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.client.Name()),
		attribute.String("llm.model", req.Model),
	)

	delay := g.cfg.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		resp, err := g.call(ctx, req)
		if err == nil {
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return resp.Text, nil
		}
		lastErr = err

		if attempt == g.cfg.MaxAttempts {
			break
		}

		g.logger.Warn("model call failed, retrying",
			zap.String("provider", g.client.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		metrics.LLMRetriesTotal.WithLabelValues(g.client.Name()).Inc()

		if err := g.sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
		delay *= 2
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "model call exhausted")
	g.logger.Error("model call failed",
		zap.String("provider", g.client.Name()),
		zap.Int("attempts", g.cfg.MaxAttempts),
		zap.Error(lastErr),
	)
	return "", apperr.GatewayExhausted(lastErr)
}

// ExtractDocument reads a purchase invoice in one attempt. Every failure is reported as
// DocumentUnreadable; the cause is only logged.
func (g *Gateway) ExtractDocument(ctx context.Context, data []byte, mediaType string) (*model.InvoiceExtraction, error) {
	ctx, span := tracer.Start(ctx, "llm.extract_document")
	defer span.End()
	span.SetAttributes(attribute.String("document.media_type", mediaType), attribute.Int("document.bytes", len(data)))

	fail := func(err error) (*model.InvoiceExtraction, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "document extraction failed")
		metrics.InvoiceExtractionsTotal.WithLabelValues("failed").Inc()
		g.logger.Error("invoice extraction failed", zap.String("media_type", mediaType), zap.Error(err))
		return nil, apperr.DocumentUnreadable(err)
	}

	resp, err := g.call(ctx, &GenerateRequest{
		Model:       g.cfg.Model,
		Parts:       []Part{TextPart(invoicePrompt), BinaryPart(data, mediaType)},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return fail(err)
	}

	var out model.InvoiceExtraction
	if err := envelope.Decode(resp.Text, &out); err != nil {
		return fail(err)
	}

	metrics.InvoiceExtractionsTotal.WithLabelValues("ok").Inc()
	return &out, nil
}

func (g *Gateway) call(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	resp, err := g.client.Generate(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	var in, out int
	modelName := req.Model
	if resp != nil {
		in, out = resp.TokensIn, resp.TokensOut
		if resp.Model != "" {
			modelName = resp.Model
		}
		g.logger.Debug("model call finished",
			zap.String("provider", g.client.Name()),
			zap.String("model", modelName),
			zap.String("stop_reason", resp.StopReason),
			zap.Int64("latency_ms", resp.LatencyMs),
			zap.Int("tokens_in", in),
			zap.Int("tokens_out", out),
		)
	}
	metrics.RecordLLMCall(g.client.Name(), modelName, status, time.Since(start).Seconds(), in, out)
	return resp, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
