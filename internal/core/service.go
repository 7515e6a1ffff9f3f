package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/dispatcher"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/router"
	"github.com/Rorical/LawAgent/internal/session"
	"github.com/Rorical/LawAgent/internal/speech"
	"github.com/Rorical/LawAgent/internal/store"
	"github.com/Rorical/LawAgent/internal/tools"
)

// LoginView is where an explicit logout lands.
const LoginView = "login"

// Options wires a CommandService. Dispatcher, Sessions, Bus and Results are
// required.
type Options struct {
	Bus        *eventbus.EventBus
	Results    *eventbus.ResultBus
	Sessions   *session.Store
	Dispatcher *dispatcher.Dispatcher
	Registry   *tools.Registry
	Speech     *speech.Adapter
	History    store.History
	Logger     *zap.Logger

	LandingView     string
	NavigateDelay   time.Duration
	AutoSubmitVoice bool
	AutoSubmitDelay time.Duration

	// Scheduler defers navigation and voice auto-submit. Defaults to
	// time.AfterFunc.
	Scheduler router.Scheduler

	// Welcome lines shown before the first command.
	Welcome []string
}

type submission struct {
	command models.Command
	source  eventbus.SubmitSource
	resp    models.CommandResponse
	err     error
}

// CommandService owns the command surface: it submits commands, routes
// responses and drives voice capture. It runs a single event loop; HTTP
// submissions complete on their own goroutine and report back to the loop.
type CommandService struct {
	eventBus  *eventbus.EventBus
	results   *eventbus.ResultBus
	sessions  *session.Store
	submitter *dispatcher.Submitter
	router    *router.Router
	speech    *speech.Adapter
	history   store.History
	logger    *zap.Logger
	state     *CommandState
	schedule  router.Scheduler

	autoSubmit      bool
	autoSubmitDelay time.Duration

	completed     chan submission
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	started       atomic.Bool
	lastSentCount int

	// voiceGeneration is owned by the event loop. Each capture and each
	// accepted manual submit bumps it.
	voiceGeneration uint64
}

// voiceSubmitEvent is the deferred auto-submit of a captured transcript.
type voiceSubmitEvent struct {
	command    models.Command
	generation uint64
}

func (voiceSubmitEvent) UIEvent() {}

func NewCommandService(opts Options) *CommandService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule := opts.Scheduler
	if schedule == nil {
		schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs := &CommandService{
		eventBus:        opts.Bus,
		results:         opts.Results,
		sessions:        opts.Sessions,
		submitter:       opts.Dispatcher.NewSubmitter("command-surface"),
		speech:          opts.Speech,
		history:         opts.History,
		logger:          logger,
		state:           NewCommandState(),
		schedule:        schedule,
		autoSubmit:      opts.AutoSubmitVoice,
		autoSubmitDelay: opts.AutoSubmitDelay,
		completed:       make(chan submission, 1),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}

	cs.router = router.New(
		router.Config{LandingView: opts.LandingView, NavigateDelay: opts.NavigateDelay},
		opts.Sessions, opts.Results, opts.Registry,
		router.WithNavigator(cs),
		router.WithNotifier(cs),
		router.WithSurface(cs),
		router.WithScheduler(schedule),
		router.WithLogger(logger.Named("router")),
	)

	opts.Sessions.OnChange(func(s models.Session, signedIn bool) {
		cs.sendToUI(eventbus.SessionEvent{Session: s, SignedIn: signedIn})
	})

	for _, line := range opts.Welcome {
		cs.state.AddProgramMessage(line)
	}
	return cs
}

// Start runs the core logic in a goroutine
func (cs *CommandService) Start() {
	if !cs.started.CompareAndSwap(false, true) {
		return
	}
	cs.pushStateToUI()
	go cs.eventLoop()
}

// Stop ends the event loop and waits for it. In-flight submissions are not
// cancelled; their results are dropped.
func (cs *CommandService) Stop() {
	select {
	case <-cs.ctx.Done():
		return
	default:
	}
	cs.cancel()
	if cs.started.Load() {
		<-cs.done
	}
}

// Router exposes the service's router, e.g. for the debug view.
func (cs *CommandService) Router() *router.Router {
	return cs.router
}

// IsPending reports whether a command is in flight.
func (cs *CommandService) IsPending() bool {
	return cs.submitter.IsPending()
}

// GetInitialMessages returns the messages present before the loop started.
func (cs *CommandService) GetInitialMessages() []models.Message {
	return cs.state.GetMessages()
}

func (cs *CommandService) eventLoop() {
	defer close(cs.done)

	var speechEvents <-chan speech.Event
	if cs.speech != nil {
		speechEvents = cs.speech.Events()
	}

	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		case result := <-cs.completed:
			cs.finishSubmission(result)
		case ev, ok := <-speechEvents:
			if !ok {
				speechEvents = nil
				continue
			}
			cs.handleSpeechEvent(ev)
		}
	}
}

func (cs *CommandService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SubmitCommandEvent:
		cs.submitCommand(models.Command(e.Command), e.Source)
	case voiceSubmitEvent:
		// A manual submit since the capture supersedes it.
		if e.generation != cs.voiceGeneration {
			cs.logger.Debug("stale voice auto-submit dropped")
			return
		}
		cs.submitCommand(e.command, eventbus.SourceVoice)
	case eventbus.StartVoiceEvent:
		cs.startVoice()
	case eventbus.StopVoiceEvent:
		cs.stopVoice()
	case eventbus.LogoutEvent:
		cs.logout()
	}
}

func (cs *CommandService) submitCommand(cmd models.Command, source eventbus.SubmitSource) {
	err := cs.submitter.SubmitAsync(cs.ctx, cmd, func(resp models.CommandResponse, err error) {
		select {
		case cs.completed <- submission{command: cmd, source: source, resp: resp, err: err}:
		case <-cs.ctx.Done():
		}
	})
	switch {
	case errors.Is(err, dispatcher.ErrEmptyCommand):
		return
	case errors.Is(err, dispatcher.ErrSubmissionPending):
		cs.logger.Debug("submission ignored while another is pending", zap.Stringer("source", source))
		return
	case err != nil:
		cs.logger.Error("submit failed", zap.Error(err))
		return
	}

	if source == eventbus.SourceManual {
		cs.voiceGeneration++
	}
	cs.logger.Info("command submitted", zap.Stringer("source", source))
	cs.state.StartProcessingWithCommand(cmd.Text(), source.String())
	cs.pushStateToUI()
}

func (cs *CommandService) finishSubmission(s submission) {
	var d router.Decision
	if s.err != nil {
		d = cs.router.Fail(s.err)
		var raw []byte
		var malformed *dispatcher.MalformedResponseError
		if errors.As(s.err, &malformed) {
			raw = malformed.Body
		}
		cs.state.FinishProcessingWithError(s.err, raw)
	} else {
		d = cs.router.Route(s.resp)
		cs.state.FinishProcessingWithDecision(s.resp, d)
	}
	cs.pushStateToUI()
	cs.record(s, d)
}

func (cs *CommandService) record(s submission, d router.Decision) {
	if cs.history == nil {
		return
	}
	entry := store.Entry{
		Command: s.command.Text(),
		Source:  s.source.String(),
		Outcome: d.Outcome(),
		Tools:   s.resp.Tools(),
		Error:   d.LastError(),
	}
	if _, err := cs.history.Record(cs.ctx, entry); err != nil {
		cs.logger.Warn("failed to record command history", zap.Error(err))
	}
}

func (cs *CommandService) startVoice() {
	if cs.speech == nil {
		cs.Notify("Voice unavailable", speech.ErrCapabilityMissing.Error(), eventbus.ToastError)
		return
	}
	if err := cs.speech.Start(cs.ctx); err != nil {
		switch {
		case errors.Is(err, speech.ErrAlreadyListening):
			return
		case errors.Is(err, speech.ErrCapabilityMissing):
			cs.Notify("Voice unavailable", err.Error(), eventbus.ToastError)
		default:
			cs.Notify("Voice capture failed", err.Error(), eventbus.ToastError)
		}
		return
	}
	cs.state.SetListening(true)
	cs.Notify("Listening...", "Speak your command.", eventbus.ToastInfo)
	cs.pushStateToUI()
}

func (cs *CommandService) stopVoice() {
	if cs.speech == nil {
		return
	}
	cs.speech.Stop()
	cs.state.SetListening(false)
	cs.pushStateToUI()
}

func (cs *CommandService) handleSpeechEvent(ev speech.Event) {
	switch ev.Kind {
	case speech.EventInterim:
		cs.sendToUI(eventbus.TranscriptEvent{Text: ev.Text})
		return
	case speech.EventCaptured:
		cs.sendToUI(eventbus.TranscriptEvent{Text: ev.Text, Final: true})
		cs.Notify("Voice captured", ev.Text, eventbus.ToastSuccess)
		if cs.autoSubmit {
			cs.voiceGeneration++
			pending := voiceSubmitEvent{command: models.Command(ev.Text), generation: cs.voiceGeneration}
			cs.schedule(cs.autoSubmitDelay, func() {
				if err := cs.eventBus.SendToCore(pending); err != nil {
					cs.logger.Warn("voice auto-submit dropped", zap.Error(err))
				}
			})
		}
	case speech.EventCaptureFailed:
		cs.Notify("Voice capture failed", ev.Reason.Message(), eventbus.ToastError)
	}
	cs.state.SetListening(false)
	cs.pushStateToUI()
}

func (cs *CommandService) logout() {
	cs.sessions.Clear()
	cs.Notify("Signed out", "You have been signed out.", eventbus.ToastSuccess)
	cs.Navigate(LoginView)
}

// Navigate implements router.Navigator.
func (cs *CommandService) Navigate(target string) {
	cs.sendToUI(eventbus.NavigateEvent{Target: target})
}

// Notify implements router.Notifier.
func (cs *CommandService) Notify(title, message string, level eventbus.ToastLevel) {
	text := title
	if message != "" {
		text = fmt.Sprintf("%s: %s", title, message)
	}
	cs.state.AddNotice(text, level == eventbus.ToastError)
	cs.sendToUI(eventbus.ToastEvent{Title: title, Message: message, Level: level})
}

// CloseSurface implements router.SurfaceCloser.
func (cs *CommandService) CloseSurface() {
	cs.sendToUI(eventbus.SurfaceEvent{Open: false})
}

func (cs *CommandService) pushStateToUI() {
	allMessages := cs.state.GetMessages()

	// Only send new messages to reduce resource usage
	newMessages := allMessages[cs.lastSentCount:]
	cs.lastSentCount = len(allMessages)

	cs.sendToUI(eventbus.StateUpdateEvent{
		Messages:     newMessages,
		IsProcessing: cs.state.IsProcessing(),
		Listening:    cs.state.IsListening(),
		Error:        cs.state.GetLastError(),
		LastRaw:      cs.state.LastRaw(),
	})
}

func (cs *CommandService) sendToUI(event eventbus.CoreEvent) {
	if err := cs.eventBus.SendToUI(event); err != nil {
		cs.logger.Warn("error sending event to UI", zap.Error(err))
	}
}
