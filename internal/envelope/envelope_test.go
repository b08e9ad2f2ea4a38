package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
)

const answer = `{
  "title": "Expiring stock",
  "ai_text": {"intro_message": "Here is what expires soon.", "outro_message": "Reorder early.", "to_canvas": true},
  "query_list": [{"sql": "SELECT name FROM medicine_stock", "label": "Stock"}],
  "next_gen_summary": "User asked about expiring stock.",
  "intent_explanation": "inventory lookup"
}`

func TestParseFencedAndUnfencedAreEqual(t *testing.T) {
	plain, err := Parse(answer)
	require.NoError(t, err)

	fenced, err := Parse("```json\n" + answer + "\n```")
	require.NoError(t, err)

	upper, err := Parse("  ```JSON" + answer + "```  ")
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
	assert.Equal(t, plain, upper)
	assert.Equal(t, "Expiring stock", *plain.Title)
	assert.True(t, plain.AIText.Canvas())
	require.Len(t, plain.Queries(), 1)
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           "Sure! Here are your results: SELECT * FROM invoices",
		"empty":              "```json\n```",
		"missing ai_text":    `{"next_gen_summary": "x"}`,
		"missing summary":    `{"ai_text": {"intro_message": "a", "outro_message": "b"}}`,
		"ai_text wrong type": `{"ai_text": "hello", "next_gen_summary": "x"}`,
		"query wrong type":   `{"ai_text": {"intro_message": "a"}, "next_gen_summary": "x", "sql_query": 12}`,
		"empty ai_text":      `{"ai_text": {}, "next_gen_summary": "x"}`,
		"blank intro":        `{"ai_text": {"intro_message": "", "outro_message": "b"}, "next_gen_summary": "x"}`,
		"truncated":          `{"ai_text": {"intro_message": "a"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			env, err := Parse(raw)
			assert.Nil(t, env)
			require.Error(t, err)
			assert.Equal(t, apperr.KindMalformedOutput, apperr.KindOf(err))
			assert.NotContains(t, apperr.PublicMessage(err), "SELECT")
		})
	}
}

func TestDecodeGeneric(t *testing.T) {
	var out struct {
		Wholesaler string `json:"wholesaler"`
	}
	require.NoError(t, Decode("```json\n{\"wholesaler\": \"Apex Pharma\"}\n```", &out))
	assert.Equal(t, "Apex Pharma", out.Wholesaler)
}
