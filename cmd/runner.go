package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/app"
	"github.com/Rorical/LawAgent/internal/dispatcher"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/router"
	"github.com/Rorical/LawAgent/internal/store"
	"github.com/Rorical/LawAgent/internal/tools"
	"github.com/Rorical/LawAgent/internal/utils"
)

// printer stands in for the UI surfaces when a command runs outside the
// terminal client.
type printer struct {
	out io.Writer
}

func (p printer) Navigate(target string) {
	fmt.Fprintf(p.out, "-> %s\n", target)
}

func (p printer) Notify(title, message string, level eventbus.ToastLevel) {
	mark := "*"
	if level == eventbus.ToastError {
		mark = "!"
	}
	if message == "" {
		fmt.Fprintf(p.out, "%s %s\n", mark, title)
		return
	}
	fmt.Fprintf(p.out, "%s %s: %s\n", mark, title, message)
}

func (p printer) CloseSurface() {}

// executeCommand submits one command and routes its result to out.
func executeCommand(ctx context.Context, out io.Writer, text string, source eventbus.SubmitSource) error {
	cmd := models.Command(text)
	if !cmd.Valid() {
		return dispatcher.ErrEmptyCommand
	}

	sessions := app.NewSessionStore(cfg, logger)
	results := eventbus.NewResultBus()
	p := printer{out: out}
	r := router.New(
		router.Config{LandingView: cfg.GetLandingView()},
		sessions, results, tools.NewBackendRegistry(),
		router.WithNavigator(p),
		router.WithNotifier(p),
		router.WithSurface(p),
		// Nothing to wait for without a UI.
		router.WithScheduler(func(_ time.Duration, f func()) { f() }),
		router.WithLogger(logger.Named("router")),
	)

	submitter := app.NewDispatcher(cfg, sessions, logger).NewSubmitter("cli")
	resp, err := submitter.Submit(ctx, cmd)

	var d router.Decision
	if err != nil {
		d = r.Fail(err)
	} else {
		d = r.Route(resp)
	}

	renderResults(out, results)
	recordHistory(ctx, store.Entry{
		Command: cmd.Text(),
		Source:  source.String(),
		Outcome: d.Outcome(),
		Tools:   resp.Tools(),
		Error:   d.LastError(),
	})

	if err != nil {
		return err
	}
	if len(d.Errors) > 0 && !d.Actionable() {
		return errors.New(d.LastError())
	}
	return nil
}

func renderResults(out io.Writer, results *eventbus.ResultBus) {
	md := utils.NewMarkdownRenderer(100)
	if search, ok := results.Search.Take(); ok {
		fmt.Fprintf(out, "\nQuery: %s\n", search.Query)
		for _, answer := range []struct{ name, text string }{
			{"Open source", search.Responses.Opensource},
			{"LawGPT", search.Responses.LawGPT},
			{"Proprietary", search.Responses.Proprietary},
		} {
			if answer.text != "" {
				fmt.Fprintf(out, "\n## %s\n%s\n", answer.name, md.Render(answer.text))
			}
		}
	}
	// Error events are returned as the command error.
	if event, ok := results.Event.Take(); ok && event.Kind != models.EventError && event.Message != "" {
		if event.Kind == models.EventHelp {
			fmt.Fprintln(out, md.Render(event.Message))
			return
		}
		fmt.Fprintf(out, "* %s: %s\n", eventTitle(event.Kind), event.Message)
	}
}

func eventTitle(kind models.EventKind) string {
	switch kind {
	case models.EventProfileUpdate:
		return "Profile updated"
	case models.EventSettingsUpdate:
		return "Settings updated"
	case models.EventThemeChange:
		return "Theme changed"
	}
	return string(kind)
}

func recordHistory(ctx context.Context, entry store.Entry) {
	h, err := store.NewSQLite(cfg.HistoryPath())
	if err != nil {
		logger.Warn("command history disabled", zap.Error(err))
		return
	}
	defer h.Close()
	if _, err := h.Record(ctx, entry); err != nil {
		logger.Warn("failed to record command history", zap.Error(err))
	}
}
