// Package app wires configuration, store, assistant and HTTP server
// together for the dbpilot commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dbpilot/dbpilot/internal/assistant"
	"github.com/dbpilot/dbpilot/internal/config"
	"github.com/dbpilot/dbpilot/internal/store"
	"github.com/dbpilot/dbpilot/internal/web"
)

// App encapsulates the application dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	assistant *assistant.Client
	server    *http.Server
}

// New initializes the store and assistant from the provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Database.URL(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	asst, err := assistant.New(ctx, assistant.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.GetLLMTimeout(),
	}, assistant.DatabaseTools(st), logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		assistant: asst,
	}, nil
}

// Assistant returns the assistant client.
func (a *App) Assistant() *assistant.Client {
	return a.assistant
}

// Close releases the database pool.
func (a *App) Close() {
	a.store.Close()
}

// StartServer builds the web frontend and starts the HTTP server in a
// goroutine.
func (a *App) StartServer() error {
	if err := a.cfg.RequireWeb(); err != nil {
		return err
	}

	sessions := web.NewManager(a.cfg.Server.SecretKey, a.cfg.GetSessionTTL())
	handler, err := web.NewHandler(a.assistant, sessions, a.logger)
	if err != nil {
		return err
	}
	router := web.NewRouter(handler, a.logger,
		web.WithRateLimit(a.cfg.Server.RateLimitRPS, a.cfg.Server.RateLimitBurst),
	)

	addr := a.cfg.Server.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: a.cfg.GetReadHeaderTimeout(),
		WriteTimeout:      a.cfg.GetWriteTimeout(),
		IdleTimeout:       a.cfg.GetIdleTimeout(),
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling. Nil until
// StartServer has run.
func (a *App) Server() *http.Server {
	return a.server
}
