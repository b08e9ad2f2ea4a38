// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Part is one piece of user content: text, or inline binary with its media type.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BinaryPart builds an inline binary part.
func BinaryPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsBinary reports whether the part carries inline data.
func (p Part) IsBinary() bool {
	return len(p.Data) > 0
}

// GenerateRequest represents a single-turn generation request.
type GenerateRequest struct {
	Model             string
	SystemInstruction string
	Parts             []Part
	JSONResponse      bool
	MaxTokens         int
	Temperature       float64
}

// GenerateResponse represents a generation response.
type GenerateResponse struct {
	Text       string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Generate sends a request and returns the model's text.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ClientConfig selects and configures a provider.
type ClientConfig struct {
	Provider Provider
	APIKey   string
	// BaseURL overrides the provider endpoint; only Gemini honours it.
	BaseURL string
}

// NewClient creates a new LLM client based on provider.
func NewClient(cfg ClientConfig) (Client, error) {
	switch Provider(strings.ToLower(string(cfg.Provider))) {
	case ProviderGemini, "":
		return NewGeminiClient(cfg.APIKey, cfg.BaseURL)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
