// Package router turns a CommandResponse into side effects: session changes,
// result bus publications, navigation and notices.
package router

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/dispatcher"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/tools"
)

const (
	DefaultLandingView   = "dashboard"
	DefaultNavigateDelay = 1500 * time.Millisecond

	noActionMessage = "Something happened but nothing actionable was found."
)

// SessionWriter is the part of the session store the router mutates.
type SessionWriter interface {
	Set(models.Session)
	Clear()
}

// Navigator switches the active view.
type Navigator interface {
	Navigate(target string)
}

// Notifier shows a toast.
type Notifier interface {
	Notify(title, message string, level eventbus.ToastLevel)
}

// SurfaceCloser closes the command surface that issued the command.
type SurfaceCloser interface {
	CloseSurface()
}

// Scheduler runs f after d. Navigation is always deferred through it.
type Scheduler func(d time.Duration, f func())

// Config holds the router's tunables.
type Config struct {
	LandingView   string
	NavigateDelay time.Duration
}

// Router classifies command responses and applies their side effects.
type Router struct {
	cfg      Config
	sessions SessionWriter
	bus      *eventbus.ResultBus
	registry *tools.Registry

	navigator Navigator
	notifier  Notifier
	surface   SurfaceCloser
	schedule  Scheduler
	logger    *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

func WithNavigator(n Navigator) Option {
	return func(r *Router) { r.navigator = n }
}

func WithNotifier(n Notifier) Option {
	return func(r *Router) { r.notifier = n }
}

func WithSurface(s SurfaceCloser) Option {
	return func(r *Router) { r.surface = s }
}

func WithScheduler(s Scheduler) Option {
	return func(r *Router) { r.schedule = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a router. A nil registry means the backend catalogue.
func New(cfg Config, sessions SessionWriter, bus *eventbus.ResultBus, registry *tools.Registry, opts ...Option) *Router {
	if cfg.LandingView == "" {
		cfg.LandingView = DefaultLandingView
	}
	if cfg.NavigateDelay < 0 {
		cfg.NavigateDelay = 0
	}
	if registry == nil {
		registry = tools.NewBackendRegistry()
	}
	r := &Router{
		cfg:      cfg,
		sessions: sessions,
		bus:      bus,
		registry: registry,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify decides what resp means without touching any state. Steps are
// visited once, in order; flags accumulate so per-step notices still fire.
func (r *Router) Classify(resp models.CommandResponse) Decision {
	var (
		d            Decision
		authNavigate bool
		explicitNav  string
	)

	for i, step := range resp.Steps {
		sd := StepDecision{Index: i, Tool: step.Tool, Category: r.registry.Category(step.Tool)}

		switch {
		case step.Malformed:
			// Kept in the raw echo only.
		case step.Failed():
			sd.Action = ActionFailure
			d.Errors = append(d.Errors, step.FailureMessage())
		case step.HasStatus && step.Success:
			sd.Action = r.classifySuccess(step, sd.Category, &d, &authNavigate, &explicitNav)
		}

		d.Steps = append(d.Steps, sd)
	}

	switch {
	case authNavigate:
		d.Navigate = r.cfg.LandingView
	case explicitNav != "":
		d.Navigate = explicitNav
	}

	actionable := d.Actionable()
	if actionable {
		d.CloseSurface = true
	}

	switch {
	case !actionable && len(d.Errors) > 0:
		d.Event = &models.AgenticEvent{Kind: models.EventError, Message: d.LastError()}
	case actionable && len(d.Errors) > 0:
		d.Notices = append(d.Notices, Notice{Title: "Partially failed", Message: d.LastError(), Level: eventbus.ToastError})
	case !actionable && len(d.Notices) == 0:
		d.NoAction = true
		d.Notices = append(d.Notices, Notice{Title: "No action found", Message: noActionMessage, Level: eventbus.ToastInfo})
	}

	return d
}

func (r *Router) classifySuccess(step models.StepResult, category tools.Category, d *Decision, authNavigate *bool, explicitNav *string) Action {
	payload := step.Result
	action := ActionSkipped

	if payload.HasCredentials() {
		d.Session = &models.Session{Token: payload.Token, Email: payload.UserEmail}
		d.SignOut = false
		*authNavigate = true
		action = ActionAuthenticate
	} else if category == tools.CategorySignout {
		d.Session = nil
		d.SignOut = true
		action = ActionSignOut
	}

	if search, ok := payload.Search(); ok {
		d.Searches = append(d.Searches, search)
		if action == ActionSkipped {
			action = ActionSearch
		}
	}

	if payload != nil && payload.Navigate != "" {
		if *explicitNav == "" {
			*explicitNav = payload.Navigate
		}
		if action == ActionSkipped {
			action = ActionNavigate
		}
	}

	message := stepMessage(step)
	if kind, ok := category.EventKind(); ok {
		var data []byte
		if payload != nil {
			data = payload.Data
		}
		d.Event = &models.AgenticEvent{Kind: kind, Message: message, Data: data}
		if action == ActionSkipped {
			action = ActionEvent
		}
		// The published event carries the message.
		return action
	}

	if message != "" {
		d.Notices = append(d.Notices, Notice{Title: noticeTitle(step.Tool), Message: message, Level: eventbus.ToastSuccess})
		if action == ActionSkipped {
			action = ActionNotice
		}
	}
	return action
}

// Route classifies resp and applies the result exactly once.
func (r *Router) Route(resp models.CommandResponse) Decision {
	d := r.Classify(resp)
	r.apply(d)
	return d
}

func (r *Router) apply(d Decision) {
	switch {
	case d.Session != nil:
		r.sessions.Set(*d.Session)
		r.logger.Info("session established", zap.String("email", d.Session.Email))
	case d.SignOut:
		r.sessions.Clear()
		r.logger.Info("session cleared by command")
	}

	for _, search := range d.Searches {
		r.bus.Search.Publish(search)
	}
	if d.Event != nil {
		r.bus.Event.Publish(*d.Event)
	}

	if r.notifier != nil {
		for _, n := range d.Notices {
			r.notifier.Notify(n.Title, n.Message, n.Level)
		}
	}

	if d.CloseSurface && r.surface != nil {
		r.surface.CloseSurface()
	}

	if d.Navigate != "" && r.navigator != nil {
		target := d.Navigate
		r.logger.Debug("navigation scheduled", zap.String("target", target), zap.Duration("delay", r.cfg.NavigateDelay))
		r.schedule(r.cfg.NavigateDelay, func() {
			r.navigator.Navigate(target)
		})
	}
}

// Fail reports a submission that produced no usable response with exactly
// one notice. Coalesced and empty submissions are not failures.
func (r *Router) Fail(err error) Decision {
	var d Decision
	if err == nil || errors.Is(err, dispatcher.ErrSubmissionPending) || errors.Is(err, dispatcher.ErrEmptyCommand) {
		return d
	}

	message := err.Error()
	var malformed *dispatcher.MalformedResponseError
	if errors.As(err, &malformed) {
		message = "The server returned a response that could not be understood."
	}
	d.Errors = []string{message}
	d.Notices = []Notice{{Title: "Command failed", Message: message, Level: eventbus.ToastError}}

	r.logger.Warn("command failed", zap.Error(err))
	if r.notifier != nil {
		r.notifier.Notify(d.Notices[0].Title, d.Notices[0].Message, d.Notices[0].Level)
	}
	return d
}

func stepMessage(step models.StepResult) string {
	if p := step.Result; p != nil {
		switch {
		case p.Message != "":
			return p.Message
		case p.HelpText != "":
			return p.HelpText
		}
	}
	return step.Message
}

func noticeTitle(tool string) string {
	if tool == "" {
		return "Done"
	}
	return tool
}
