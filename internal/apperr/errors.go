// Package apperr defines the error kinds surfaced to API callers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindInternal           Kind = "internal"
	KindBadRequest         Kind = "bad_request"
	KindNotFound           Kind = "not_found"
	KindMalformedOutput    Kind = "malformed_model_output"
	KindGatewayExhausted   Kind = "gateway_exhausted"
	KindDocumentUnreadable Kind = "document_unreadable"
)

// Error carries a public message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	// ErrSessionNotFound is returned when a chat session is absent or owned by someone else.
	ErrSessionNotFound = &Error{Kind: KindNotFound, Message: "Chat session not found or access denied."}

	// ErrPromptRequired is returned when a pipeline request has no prompt.
	ErrPromptRequired = &Error{Kind: KindBadRequest, Message: "Prompt is required"}

	// ErrNoFile is returned when an upload endpoint receives no file.
	ErrNoFile = &Error{Kind: KindBadRequest, Message: "No file uploaded."}
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// BadRequest creates a caller error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// MalformedOutput wraps a model output decode failure. The raw model text is never part of the message.
func MalformedOutput(err error) *Error {
	return Wrap(KindMalformedOutput, "AI response could not be understood, please try again", err)
}

// GatewayExhausted wraps the last provider error after all attempts failed.
func GatewayExhausted(err error) *Error {
	return Wrap(KindGatewayExhausted, "AI service is unavailable, please try again later", err)
}

// DocumentUnreadable wraps any document extraction failure.
func DocumentUnreadable(err error) *Error {
	return Wrap(KindDocumentUnreadable, "Failed to process invoice. The AI model could not read the document.", err)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API callers.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
