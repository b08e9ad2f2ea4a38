package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", ErrPromptRequired, http.StatusBadRequest},
		{"not found wrapped", fmt.Errorf("resolve: %w", ErrSessionNotFound), http.StatusNotFound},
		{"malformed", MalformedOutput(errors.New("eof")), http.StatusInternalServerError},
		{"exhausted", GatewayExhausted(errors.New("503")), http.StatusInternalServerError},
		{"plain", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := MalformedOutput(errors.New(`invalid character 'S' looking for beginning of value: "SELECT secret"`))
	assert.NotContains(t, PublicMessage(err), "SELECT")
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("load: %w", ErrSessionNotFound)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.False(t, errors.Is(err, ErrPromptRequired))
	assert.Equal(t, KindNotFound, KindOf(err))
}
