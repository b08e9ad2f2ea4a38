package model

import (
	"time"
)

// EventType represents the type of a published pipeline event.
type EventType string

const (
	EventTypeTurnCompleted EventType = "turn_completed"
)

// TurnEvent is published after a pipeline turn commits.
type TurnEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	ChatID           string    `json:"chat_id"`
	LoginID          string    `json:"login_id"`
	NewSession       bool      `json:"new_session"`
	HasImage         bool      `json:"has_image"`
	Statements       int       `json:"statements"`
	FailedStatements int       `json:"failed_statements"`
	TotalRows        int64     `json:"total_rows"`
	CreatedAt        time.Time `json:"created_at"`
}
