package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rorical/LawAgent/internal/config"
	"github.com/Rorical/LawAgent/internal/core"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/session"
	"github.com/Rorical/LawAgent/internal/speech"
	"github.com/Rorical/LawAgent/internal/store"
	"github.com/Rorical/LawAgent/internal/tools"
)

// Application manages the complete application lifecycle
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	eventBus *eventbus.EventBus
	results  *eventbus.ResultBus
	sessions *session.Store
	watcher  *session.Watcher
	speech   *speech.Adapter
	history  store.History
	service  *core.CommandService
	model    *AppModel
}

func NewApplication(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		logger.Warn("event bus error", zap.String("op", e.Operation), zap.Error(e.Err))
	})
	results := eventbus.NewResultBus()
	sessions := NewSessionStore(cfg, logger)

	watcher, err := session.NewWatcher(sessions, cfg.SessionPath(), logger.Named("session"))
	if err != nil {
		return nil, fmt.Errorf("failed to watch session: %w", err)
	}

	// History is optional; a broken database must not block the client.
	var history store.History
	if h, err := store.NewSQLite(cfg.HistoryPath()); err != nil {
		logger.Warn("command history disabled", zap.Error(err))
	} else {
		history = h
	}

	adapter := NewSpeechAdapter(cfg, "", logger)

	service := core.NewCommandService(core.Options{
		Bus:             eb,
		Results:         results,
		Sessions:        sessions,
		Dispatcher:      NewDispatcher(cfg, sessions, logger),
		Registry:        tools.NewBackendRegistry(),
		Speech:          adapter,
		History:         history,
		Logger:          logger.Named("core"),
		LandingView:     cfg.GetLandingView(),
		NavigateDelay:   cfg.GetNavigateDelay(),
		AutoSubmitVoice: cfg.AutoSubmitVoice(),
		AutoSubmitDelay: cfg.GetAutoSubmitDelay(),
		Welcome:         welcomeLines(cfg, adapter.Available()),
	})

	sess, signedIn := sessions.Get()
	initial := models.AppModel{
		Messages: make([]models.Message, 0), // Core sends messages
		Status:   "Ready",
		View:     models.ViewHome,
		Debug:    cfg.Debug(),
		Session:  sess,
		SignedIn: signedIn,
	}
	if signedIn {
		initial.View = models.ViewDashboard
	}

	return &Application{
		config:   cfg,
		logger:   logger,
		eventBus: eb,
		results:  results,
		sessions: sessions,
		watcher:  watcher,
		speech:   adapter,
		history:  history,
		service:  service,
		model:    NewAppModel(initial, eb, results),
	}, nil
}

func welcomeLines(cfg *config.Config, voice bool) []string {
	lines := []string{
		"LawAgent: " + cfg.GetBaseURL(),
		"ctrl+k command  ctrl+r voice  ctrl+d debug  ctrl+l sign out  esc close",
	}
	if !voice {
		lines = append(lines, "Voice input is off: set OPENAI_API_KEY to enable it.")
	}
	return lines
}

// Start runs the UI until it exits. The session watcher runs alongside it.
func (app *Application) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if err := app.watcher.Start(gctx); err != nil {
		app.logger.Warn("session watcher disabled", zap.Error(err))
	}
	app.service.Start()

	g.Go(func() error {
		<-gctx.Done()
		app.watcher.Stop()
		return nil
	})
	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(app.model, tea.WithAltScreen(), tea.WithContext(gctx))
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}

func (app *Application) Stop() {
	app.service.Stop()
	app.speech.Close()
	app.watcher.Stop()
	if app.history != nil {
		if err := app.history.Close(); err != nil {
			app.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	app.eventBus.Close()
	_ = app.logger.Sync()
}
