// Package model defines data structures for the AI analytics service.
package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultSessionSummary is stored on a freshly created session.
	DefaultSessionSummary = "New conversation started"

	// UntitledSession is used when the model supplies no title for a new session.
	UntitledSession = "Untitled Chat"

	// SessionTitleRunes is how much of the first prompt becomes the provisional title.
	SessionTitleRunes = 40
)

// ChatSession is a multi-turn conversation owned by one login.
type ChatSession struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	LoginID       string         `gorm:"column:login_id;type:varchar(64);not null;index" json:"-"`
	Title         string         `gorm:"type:text;not null" json:"title"`
	Summary       string         `gorm:"type:text;not null" json:"summary"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	LastMessageAt time.Time      `gorm:"not null;index" json:"last_message_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the gorm table name.
func (ChatSession) TableName() string {
	return "chats"
}

// ProvisionalTitle derives a session title from the opening prompt.
func ProvisionalTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > SessionTitleRunes {
		runes = runes[:SessionTitleRunes]
	}
	return string(runes) + "..."
}

// ChatMenuItem is one entry of the session listing.
type ChatMenuItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// ChatHistory is a session with its stored turns.
type ChatHistory struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Messages []HistoryEntry `json:"messages"`
}

// HistoryEntry is one decoded turn of a session.
type HistoryEntry struct {
	ID        string            `json:"id"`
	UserQuery string            `json:"userQuery"`
	Response  *PipelineResponse `json:"response"`
}
