package model

import (
	"time"

	"gorm.io/datatypes"
)

// RoleUser is the fallback author role when the token carries none.
const RoleUser = "user"

// ChatMessage is one persisted turn. Content holds a TurnContent JSON document.
type ChatMessage struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatID    string         `gorm:"column:chat_id;type:varchar(36);not null;index" json:"chat_id"`
	Role      string         `gorm:"type:varchar(32);not null" json:"role"`
	Content   datatypes.JSON `gorm:"not null" json:"content"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`

	Chat *ChatSession `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the gorm table name.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// TurnContent is the stored body of a ChatMessage.
type TurnContent struct {
	UserQuery string            `json:"userQuery"`
	Response  *PipelineResponse `json:"response"`
	HasImage  bool              `json:"hasImage"`
}
