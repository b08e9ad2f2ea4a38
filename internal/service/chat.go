package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/internal/store"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// ChatService reads a login's stored sessions.
type ChatService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(st *store.Store, log *logger.Logger) *ChatService {
	return &ChatService{
		store:  st,
		logger: log,
	}
}

// Menu lists the login's sessions, most recently active first.
func (s *ChatService) Menu(ctx context.Context, loginID string) ([]model.ChatMenuItem, error) {
	return s.store.Sessions().List(ctx, loginID)
}

// Open returns an owned session with its turns decoded. A session owned by someone
// else is reported as not found.
func (s *ChatService) Open(ctx context.Context, loginID, chatID string) (*model.ChatHistory, error) {
	session, messages, err := s.store.Sessions().Load(ctx, chatID, loginID)
	if err != nil {
		return nil, err
	}

	history := &model.ChatHistory{
		ID:       session.ID,
		Title:    session.Title,
		Messages: make([]model.HistoryEntry, 0, len(messages)),
	}
	for _, msg := range messages {
		var content model.TurnContent
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			s.logger.Warn("skipping unreadable chat message",
				zap.String("chat_id", session.ID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		history.Messages = append(history.Messages, model.HistoryEntry{
			ID:        msg.ID,
			UserQuery: content.UserQuery,
			Response:  content.Response,
		})
	}
	return history, nil
}
