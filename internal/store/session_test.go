package store_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/internal/store/storetest"
)

func TestResolveOrCreateNewSession(t *testing.T) {
	ctx := context.Background()
	s, _ := storetest.NewStore(t)

	prompt := "Which medicines expire before the end of next month across all racks?"
	session, created, err := s.Sessions().ResolveOrCreate(ctx, "", true, "7", prompt)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Len(t, session.ID, 36)
	assert.Equal(t, prompt[:40]+"...", session.Title)
	assert.Equal(t, model.DefaultSessionSummary, session.Summary)
	assert.False(t, session.LastMessageAt.IsZero())

	stored, err := s.Sessions().Get(ctx, session.ID, "7")
	require.NoError(t, err)
	assert.Equal(t, session.Title, stored.Title)
}

func TestResolveOrCreateChecksOwnership(t *testing.T) {
	ctx := context.Background()
	s, _ := storetest.NewStore(t)

	session, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "owner", "stock report")
	require.NoError(t, err)

	resumed, created, err := s.Sessions().ResolveOrCreate(ctx, session.ID, false, "owner", "next question")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, session.ID, resumed.ID)

	_, _, err = s.Sessions().ResolveOrCreate(ctx, session.ID, false, "intruder", "next question")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)

	_, _, err = s.Sessions().ResolveOrCreate(ctx, "does-not-exist", false, "owner", "next question")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}

func TestSoftDeletedSessionIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, db := storetest.NewStore(t)

	session, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "owner", "old chat")
	require.NoError(t, err)
	require.NoError(t, db.Delete(&model.ChatSession{}, "id = ?", session.ID).Error)

	_, err = s.Sessions().Get(ctx, session.ID, "owner")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)

	items, err := s.Sessions().List(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTouchUpdatesTitleOnlyWhenGiven(t *testing.T) {
	ctx := context.Background()
	s, _ := storetest.NewStore(t)

	session, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "owner", "sales this week")
	require.NoError(t, err)

	title := "Weekly sales"
	require.NoError(t, s.Sessions().Touch(ctx, session.ID, "User asked for weekly sales.", &title))

	got, err := s.Sessions().Get(ctx, session.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Weekly sales", got.Title)
	assert.Equal(t, "User asked for weekly sales.", got.Summary)
	assert.False(t, got.LastMessageAt.Before(session.LastMessageAt))

	require.NoError(t, s.Sessions().Touch(ctx, session.ID, "Then asked for returns.", nil))
	got, err = s.Sessions().Get(ctx, session.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Weekly sales", got.Title)
	assert.Equal(t, "Then asked for returns.", got.Summary)

	assert.ErrorIs(t, s.Sessions().Touch(ctx, "missing", "x", nil), apperr.ErrSessionNotFound)
}

func TestListOrdersByLastActivity(t *testing.T) {
	ctx := context.Background()
	s, db := storetest.NewStore(t)

	var ids []string
	for _, prompt := range []string{"first", "second", "third"} {
		session, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "owner", prompt)
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}
	_, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "someone-else", "not mine")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	activity := map[string]time.Time{
		ids[0]: base.Add(2 * time.Hour),
		ids[1]: base,
		ids[2]: base.Add(time.Hour),
	}
	for id, at := range activity {
		require.NoError(t, db.Model(&model.ChatSession{}).Where("id = ?", id).Update("last_message_at", at).Error)
	}

	items, err := s.Sessions().List(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{ids[0], ids[2], ids[1]}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "first...", items[0].Title)
	assert.Len(t, items[0].Date, len("2006-01-02"))
	assert.Equal(t, 2, strings.Count(items[0].Date, "-"))
}

func TestAppendAndLoadMessages(t *testing.T) {
	ctx := context.Background()
	s, _ := storetest.NewStore(t)

	session, _, err := s.Sessions().ResolveOrCreate(ctx, "", true, "owner", "expiring stock")
	require.NoError(t, err)

	for _, q := range []string{"expiring stock", "only antibiotics", "sorted by batch"} {
		_, err := s.Sessions().AppendMessage(ctx, session.ID, "admin", &model.TurnContent{
			UserQuery: q,
			Response:  &model.PipelineResponse{ChatID: session.ID, NextGenSummary: q},
		})
		require.NoError(t, err)
	}

	loaded, messages, err := s.Sessions().Load(ctx, session.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	require.Len(t, messages, 3)

	var first model.TurnContent
	require.NoError(t, json.Unmarshal(messages[0].Content, &first))
	assert.Equal(t, "expiring stock", first.UserQuery)
	assert.Equal(t, "admin", messages[0].Role)

	var last model.TurnContent
	require.NoError(t, json.Unmarshal(messages[2].Content, &last))
	assert.Equal(t, "sorted by batch", last.UserQuery)

	_, _, err = s.Sessions().Load(ctx, session.ID, "intruder")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
}
