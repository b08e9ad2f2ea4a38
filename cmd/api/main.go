// Package main is the entry point for the AI analytics API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lalitkumar100/mediCude-backend/internal/config"
	"github.com/lalitkumar100/mediCude-backend/internal/handler"
	"github.com/lalitkumar100/mediCude-backend/internal/llm"
	"github.com/lalitkumar100/mediCude-backend/internal/middleware"
	natsclient "github.com/lalitkumar100/mediCude-backend/internal/nats"
	"github.com/lalitkumar100/mediCude-backend/internal/service"
	"github.com/lalitkumar100/mediCude-backend/internal/store"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
	"github.com/lalitkumar100/mediCude-backend/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("env", cfg.Environment), zap.String("llm_provider", cfg.LLMProvider))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "medicude-ai", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.Shutdown(context.Background(), tp) }()
		}
	}

	// Database
	db, err := store.Open(store.Config{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        cfg.DBLogLevel,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	st := store.New(db, log)
	if cfg.DBAutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// Model gateway
	systemPrompt, err := config.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		log.Error("system prompt unavailable, continuing without one", zap.Error(err))
	}

	llmClient, err := llm.NewClient(llm.ClientConfig{
		Provider: llm.Provider(cfg.LLMProvider),
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.GeminiBaseURL,
	})
	if err != nil {
		log.Fatal("failed to create model client", zap.Error(err))
	}
	gateway := llm.NewGateway(llmClient, llm.GatewayConfig{
		Model:        cfg.LLMModel,
		SystemPrompt: systemPrompt,
		MaxAttempts:  cfg.ModelMaxAttempts,
		BaseDelay:    cfg.ModelRetryBaseDelay,
		MaxTokens:    cfg.ModelMaxTokens,
		Temperature:  cfg.ModelTemperature,
	}, log)

	// Turn events are optional
	var (
		natsClient *natsclient.Client
		events     service.TurnPublisher
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		publisher := natsclient.NewTurnPublisher(natsClient)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		events = publisher
	}

	// Services
	pipelineSvc := service.NewPipelineService(st, gateway, events, log)
	chatSvc := service.NewChatService(st, log)
	invoiceSvc := service.NewInvoiceService(gateway, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(st, natsClient)
	pipelineHandler := handler.NewPipelineHandler(pipelineSvc, cfg.MaxUploadBytes, cfg.Debug(), log)
	chatHandler := handler.NewChatHandler(chatSvc, cfg.Debug(), log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, cfg.MaxUploadBytes, cfg.Debug(), log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/ai", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/pipeline", pipelineHandler.Run)
		r.Post("/pipeline/{id}", pipelineHandler.Run)
		r.Post("/process-invoice", invoiceHandler.Process)
		r.Get("/chatMenu", chatHandler.Menu)
		r.Get("/openChat/{id}", chatHandler.Open)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server stopped")
}
