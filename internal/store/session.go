package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
)

// SessionStore reads and writes chat sessions and their messages.
type SessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func newSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// ResolveOrCreate opens a new session when isNew is set, otherwise loads the owner's existing one.
// The bool result reports whether a session was created.
func (s *SessionStore) ResolveOrCreate(ctx context.Context, requestedID string, isNew bool, ownerID, prompt string) (*model.ChatSession, bool, error) {
	if !isNew {
		session, err := s.Get(ctx, requestedID, ownerID)
		return session, false, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := &model.ChatSession{
		ID:            id.String(),
		LoginID:       ownerID,
		Title:         model.ProvisionalTitle(prompt),
		Summary:       model.DefaultSessionSummary,
		LastMessageAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create chat session: %w", err)
	}
	return session, true, nil
}

// Get loads a live session owned by ownerID.
func (s *SessionStore) Get(ctx context.Context, id, ownerID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND login_id = ?", id, ownerID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &session, nil
}

// AppendMessage stores one turn.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID, role string, content *model.TurnContent) (*model.ChatMessage, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode turn content: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	if role == "" {
		role = model.RoleUser
	}

	msg := &model.ChatMessage{
		ID:      id.String(),
		ChatID:  sessionID,
		Role:    role,
		Content: datatypes.JSON(body),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to append chat message: %w", err)
	}
	return msg, nil
}

// Touch records activity on a session. The title is only written when non-nil.
// last_message_at never moves backwards.
func (s *SessionStore) Touch(ctx context.Context, sessionID, summary string, title *string) error {
	now := s.now()
	updates := map[string]any{
		"last_message_at": gorm.Expr("CASE WHEN last_message_at > ? THEN last_message_at ELSE ? END", now, now),
		"summary":         summary,
	}
	if title != nil {
		updates["title"] = *title
	}

	res := s.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", sessionID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update chat session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrSessionNotFound
	}
	return nil
}

// List returns the owner's sessions, most recently active first.
func (s *SessionStore) List(ctx context.Context, ownerID string) ([]model.ChatMenuItem, error) {
	var sessions []model.ChatSession
	err := s.db.WithContext(ctx).
		Select("id", "title", "created_at").
		Where("login_id = ?", ownerID).
		Order("last_message_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	items := make([]model.ChatMenuItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, model.ChatMenuItem{
			ID:    session.ID,
			Title: session.Title,
			Date:  session.CreatedAt.Format(time.DateOnly),
		})
	}
	return items, nil
}

// Load returns an owned session and its messages in the order they were written.
func (s *SessionStore) Load(ctx context.Context, sessionID, ownerID string) (*model.ChatSession, []model.ChatMessage, error) {
	session, err := s.Get(ctx, sessionID, ownerID)
	if err != nil {
		return nil, nil, err
	}

	var messages []model.ChatMessage
	err = s.db.WithContext(ctx).
		Where("chat_id = ?", session.ID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chat messages: %w", err)
	}
	return session, messages, nil
}
