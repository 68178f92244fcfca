package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"feedbackrelay/internal/retention"
	"feedbackrelay/pkg/config"
	"feedbackrelay/pkg/hub"
	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/state"
	"feedbackrelay/pkg/store"
)

// App encapsulates the relay components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	st  *store.Store
	hub *hub.Hub

	retCancel context.CancelFunc
	srv       *http.Server
}

// New initializes resources that do not require a running context (state
// dirs, the backing file, the hub). It does not start the scheduler or the
// HTTP server; call Run to start those and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	if dd := eff.Config.Store.DataDir; dd != "" {
		if err := state.EnsureStateDirs(dd); err != nil {
			return nil, fmt.Errorf("failed to prepare data dir %s: %w", dd, err)
		}
	}

	filePath := eff.FilePath
	if filePath == "" {
		filePath = "./messages.json"
	}
	st := store.New(filePath)
	if err := st.Load(); err != nil {
		return nil, fmt.Errorf("failed to load message file %s: %w", filePath, err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		st:        st,
		hub:       hub.New(st, eff.Config.Security.CORS.AllowedOrigin),
	}
	return a, nil
}

// Store exposes the backing store for tooling.
func (a *App) Store() *store.Store { return a.st }

// Run starts the hub loop, the retention scheduler (if enabled) and the
// HTTP server, and blocks until ctx is canceled or a fatal server error
// occurs.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)

	retCancel, err := retention.Start(ctx, a.eff.Config.Retention, a.st)
	if err != nil {
		return fmt.Errorf("failed to start retention: %w", err)
	}
	a.retCancel = retCancel

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// shutdown stops the scheduler and drains the HTTP server.
func (a *App) shutdown() {
	if a.retCancel != nil {
		a.retCancel()
	}
	if a.srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
		}
	}
	logger.Info("shutdown_complete")
}
