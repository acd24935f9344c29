package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"ResultViewer/internal/config"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/infrastructure/backend"
	"ResultViewer/internal/infrastructure/llm"
	"ResultViewer/internal/infrastructure/memo"
	"ResultViewer/internal/infrastructure/scheduler"
	"ResultViewer/internal/infrastructure/storage"
	"ResultViewer/internal/logging"
	"ResultViewer/internal/ports"
	"ResultViewer/internal/transport/httpapi"
	"ResultViewer/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	sessions *usecase.Sessions
	janitor  *usecase.Janitor
	server   *http.Server

	db    *sql.DB
	redis *redis.Client
}

// New builds a runnable application instance, connecting to Postgres and Redis
// when they are configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	client := backend.NewClient(cfg.Backend.Endpoint, cfg.Backend.APIKey, cfg.Backend.Timeout)

	var translator ports.Translator = client
	if cfg.ChatGPT.APIKey != "" {
		baseLogger.Info("translating through chat api", "model", cfg.ChatGPT.Model)
		translator = llm.NewChatGPTClient(cfg.ChatGPT)
	}
	if cfg.Redis.Addr != "" {
		rdb, err := memo.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			baseLogger.Warn("translation memo disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.redis = rdb
			translator = memo.NewTranslator(translator, rdb, cfg.Redis.TTL, logging.Component(baseLogger, "memo"))
		}
	}

	var results ports.ResultRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		repo := storage.NewPostgresRepository(db)
		if cfg.Database.CreateSchema {
			if err := repo.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
		results = repo
	} else {
		baseLogger.Info("no database configured, keeping results in memory")
		results = storage.NewMemoryRepository()
	}

	a.sessions = usecase.NewSessions(usecase.SessionDeps{
		Results:     results,
		Analyzer:    client,
		Translator:  translator,
		Catalog:     i18n.Default(),
		MaxRating:   cfg.Languages.MaxRating,
		ContentOnly: cfg.Languages.ContentOnly,
		Logger:      logging.Component(baseLogger, "sessions"),
	})
	a.janitor = usecase.NewJanitor(
		scheduler.NewTickerScheduler(cfg.Sessions.SweepInterval),
		a.sessions,
		cfg.Sessions.IdleTimeout,
		logging.Component(baseLogger, "janitor"),
	)

	handler := httpapi.NewHandler(a.sessions, cfg.Languages.DefaultUILocale, logging.Component(baseLogger, "http"))
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.SetupRouter(handler, cfg.Server.GinMode),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.janitor.Start(ctx); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.janitor.Stop(shutdownCtx); err != nil {
		a.logger.Warn("janitor stop", "error", err)
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Close releases sessions and external connections.
func (a *Application) Close() {
	if a.sessions != nil {
		a.sessions.Shutdown()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
		a.db = nil
	}
}
