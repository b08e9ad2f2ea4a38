package llm

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientSelectsProvider(t *testing.T) {
	cases := map[Provider]string{
		"":                "gemini",
		"Gemini":          "gemini",
		"GEMINI":          "gemini",
		ProviderAnthropic: "anthropic",
		ProviderOpenAI:    "openai",
	}
	for provider, want := range cases {
		c, err := NewClient(ClientConfig{Provider: provider, APIKey: "k"})
		require.NoError(t, err, provider)
		assert.Equal(t, want, c.Name())
	}

	for _, provider := range []Provider{"mistral", "bard"} {
		_, err := NewClient(ClientConfig{Provider: provider, APIKey: "k"})
		assert.Error(t, err, provider)
	}

	_, err := NewClient(ClientConfig{Provider: ProviderGemini})
	assert.Error(t, err, "missing gemini key")

	_, err = NewClient(ClientConfig{Provider: ProviderOpenAI})
	assert.Error(t, err, "missing key")
}

func TestOpenAIUserMessage(t *testing.T) {
	msg, err := toOpenAIUserMessage([]Part{TextPart("a"), TextPart("b")})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", msg.Content)
	assert.Empty(t, msg.MultiContent)

	msg, err = toOpenAIUserMessage([]Part{TextPart("look"), BinaryPart([]byte("img"), "image/png")})
	require.NoError(t, err)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, msg.MultiContent[1].Type)
	assert.Equal(t, "data:image/png;base64,aW1n", msg.MultiContent[1].ImageURL.URL)

	_, err = toOpenAIUserMessage([]Part{BinaryPart([]byte("%PDF"), "application/pdf")})
	assert.Error(t, err)
}
