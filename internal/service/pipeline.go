// Package service implements the AI analytics use cases.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/apperr"
	"github.com/lalitkumar100/mediCude-backend/internal/envelope"
	"github.com/lalitkumar100/mediCude-backend/internal/llm"
	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/internal/store"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
	"github.com/lalitkumar100/mediCude-backend/pkg/metrics"
)

var tracer = otel.Tracer("github.com/lalitkumar100/mediCude-backend/internal/service")

// ModelGateway sends a chat turn to the language model.
type ModelGateway interface {
	Chat(ctx context.Context, parts []llm.Part) (string, error)
}

// TurnPublisher announces committed turns.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) error
}

// PipelineService runs one analytics turn: resolve the session, ask the model, run its SQL,
// store the turn. Everything between resolve and store shares one transaction.
type PipelineService struct {
	store   *store.Store
	gateway ModelGateway
	events  TurnPublisher
	logger  *logger.Logger
}

// NewPipelineService creates a new pipeline service. events may be nil.
func NewPipelineService(st *store.Store, gateway ModelGateway, events TurnPublisher, log *logger.Logger) *PipelineService {
	return &PipelineService{
		store:   st,
		gateway: gateway,
		events:  events,
		logger:  log,
	}
}

type turnOutcome struct {
	session  *model.ChatSession
	created  bool
	results  []model.QueryResult
	response *model.PipelineResponse
}

// Run executes a turn and returns the caller-facing response.
func (s *PipelineService) Run(ctx context.Context, req *model.PipelineRequest) (*model.PipelineResponse, error) {
	ctx, span := tracer.Start(ctx, "pipeline.turn")
	defer span.End()

	if strings.TrimSpace(req.Prompt) == "" {
		metrics.PipelineTurnsTotal.WithLabelValues(string(apperr.KindBadRequest)).Inc()
		return nil, apperr.ErrPromptRequired
	}

	uow := s.store.NewUnitOfWork()
	if err := uow.Begin(ctx); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err := uow.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Error("rollback failed", zap.Error(err))
		}
	}()

	out, err := s.runTurn(ctx, uow, req)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to commit turn: %w", err))
	}

	failed := countFailed(out.results)
	span.SetAttributes(
		attribute.String("chat.id", out.session.ID),
		attribute.Bool("chat.created", out.created),
		attribute.Int("pipeline.statements", len(out.results)),
		attribute.Int("pipeline.failed_statements", failed),
	)
	metrics.PipelineTurnsTotal.WithLabelValues("committed").Inc()
	if out.created {
		metrics.SessionsCreatedTotal.Inc()
	}
	s.logger.Info("pipeline turn committed",
		zap.String("chat_id", out.session.ID),
		zap.String("login_id", req.User.LoginID),
		zap.Bool("new_session", out.created),
		zap.Int("statements", len(out.results)),
		zap.Int("failed_statements", failed),
	)

	s.publish(ctx, req, out)
	return out.response, nil
}

func (s *PipelineService) runTurn(ctx context.Context, uow *store.UnitOfWork, req *model.PipelineRequest) (*turnOutcome, error) {
	sessions := uow.Sessions()

	session, created, err := sessions.ResolveOrCreate(ctx, req.SessionID, req.StartsNewSession(), req.User.LoginID, req.Prompt)
	if err != nil {
		return nil, err
	}

	prior := req.PriorSummary
	if prior == "" && !created {
		prior = session.Summary
	}

	userText, err := composeUserText(req, prior, created)
	if err != nil {
		return nil, err
	}
	parts := []llm.Part{llm.TextPart(userText)}
	if !req.Attachment.Empty() {
		parts = append(parts, llm.BinaryPart(req.Attachment.Data, req.Attachment.MediaType))
	}

	raw, err := s.gateway.Chat(ctx, parts)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		s.logger.Warn("model output rejected",
			zap.String("chat_id", session.ID),
			zap.Int("raw_bytes", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}

	results := uow.Queries().Execute(ctx, env.Queries())

	aiText := *env.AIText
	if model.TotalRows(results) == 0 && env.EmptyResultFallback != "" {
		aiText.OutroMessage = env.EmptyResultFallback
	}

	var title *string
	if env.Title != nil && *env.Title != "" {
		title = env.Title
	}

	resp := &model.PipelineResponse{
		ChatID:            session.ID,
		Title:             title,
		AIText:            aiText,
		FromDatabase:      results,
		Canvas:            aiText.Canvas(),
		NextGenSummary:    env.NextGenSummary,
		IntentExplanation: env.IntentExplanation,
	}

	content := &model.TurnContent{
		UserQuery: req.Prompt,
		Response:  resp,
		HasImage:  !req.Attachment.Empty(),
	}
	if _, err := sessions.AppendMessage(ctx, session.ID, req.User.Role, content); err != nil {
		return nil, err
	}

	var newTitle *string
	if created {
		t := model.UntitledSession
		if title != nil {
			t = *title
		}
		newTitle = &t
	}
	if err := sessions.Touch(ctx, session.ID, env.NextGenSummary, newTitle); err != nil {
		return nil, err
	}

	return &turnOutcome{
		session:  session,
		created:  created,
		results:  results,
		response: resp,
	}, nil
}

// composeUserText builds the tagged text block the system prompt expects.
func composeUserText(req *model.PipelineRequest, prior string, newSession bool) (string, error) {
	userCtx, err := json.Marshal(req.User)
	if err != nil {
		return "", fmt.Errorf("failed to encode user context: %w", err)
	}
	if prior == "" {
		prior = "None"
	}
	titleInstruction := "title is not required old chat"
	if newSession {
		titleInstruction = "new chat so please provide title"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[USER_CONTEXT] %s\n", userCtx)
	fmt.Fprintf(&b, "[PREVIOUS_SUMMARY] %s\n", prior)
	fmt.Fprintf(&b, "[USER_QUERY] %s\n", req.Prompt)
	fmt.Fprintf(&b, "[new_chat ]:%s", titleInstruction)
	return b.String(), nil
}

func (s *PipelineService) publish(ctx context.Context, req *model.PipelineRequest, out *turnOutcome) {
	if s.events == nil {
		return
	}

	event := &model.TurnEvent{
		ID:               uuid.Must(uuid.NewV7()).String(),
		Type:             model.EventTypeTurnCompleted,
		ChatID:           out.session.ID,
		LoginID:          req.User.LoginID,
		NewSession:       out.created,
		HasImage:         !req.Attachment.Empty(),
		Statements:       len(out.results),
		FailedStatements: countFailed(out.results),
		TotalRows:        model.TotalRows(out.results),
		CreatedAt:        time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.events.PublishTurn(pubCtx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		s.logger.Warn("failed to publish turn event", zap.String("chat_id", event.ChatID), zap.Error(err))
	}
}

func (s *PipelineService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	metrics.PipelineTurnsTotal.WithLabelValues(string(apperr.KindOf(err))).Inc()
	return err
}

func countFailed(results []model.QueryResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}
