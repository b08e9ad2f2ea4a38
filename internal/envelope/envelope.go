// Package envelope decodes the JSON contract returned by the language model.
package envelope

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
)

var (
	fencePattern = regexp.MustCompile("(?i)```(json)?")
	validate     = validator.New()
)

// Clean removes code fences anywhere in the text and trims surrounding whitespace.
func Clean(raw string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
}

// Decode cleans raw model text and unmarshals it into v.
func Decode(raw string, v any) error {
	cleaned := Clean(raw)
	if cleaned == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// Parse decodes and validates a chat answer. Every failure is a MalformedOutput error.
func Parse(raw string) (*model.Envelope, error) {
	var env model.Envelope
	if err := Decode(raw, &env); err != nil {
		return nil, apperr.MalformedOutput(err)
	}
	if err := validate.Struct(&env); err != nil {
		return nil, apperr.MalformedOutput(fmt.Errorf("validate model output: %w", err))
	}
	return &env, nil
}
