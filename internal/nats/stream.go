package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
)

const (
	// StreamName is the name of the AI turn stream.
	StreamName = "AI_TURNS"

	// SubjectPrefix is the prefix for all turn subjects.
	SubjectPrefix = "ai"
)

// TurnPublisher writes committed turns to JetStream.
type TurnPublisher struct {
	client *Client
}

// NewTurnPublisher creates a new publisher.
func NewTurnPublisher(client *Client) *TurnPublisher {
	return &TurnPublisher{client: client}
}

// EnsureStream creates the turn stream if it does not exist.
func (p *TurnPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Committed AI analytics turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject for a turn event.
func TurnSubject(loginID, chatID string) string {
	return fmt.Sprintf("%s.%s.%s.turn", SubjectPrefix, subjectToken(loginID), subjectToken(chatID))
}

// subjectToken keeps ids from introducing extra subject levels or wildcards.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// PublishTurn publishes a committed turn. The event id doubles as the JetStream dedupe id.
func (p *TurnPublisher) PublishTurn(ctx context.Context, event *model.TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	_, err = p.client.JetStream().Publish(ctx, TurnSubject(event.LoginID, event.ChatID), data,
		jetstream.WithMsgID(event.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to publish turn event: %w", err)
	}
	return nil
}
