package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrCapabilityMissing is returned by Start when no engine is configured.
	ErrCapabilityMissing = errors.New("speech recognition is not available")
	// ErrAlreadyListening is returned by Start during an active session.
	ErrAlreadyListening = errors.New("speech capture already in progress")
)

// State of the adapter.
type State int

const (
	StateUnavailable State = iota
	StateIdle
	StateListening
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateFinalizing:
		return "finalizing"
	}
	return "unavailable"
}

// EventKind tags an adapter Event.
type EventKind int

const (
	EventInterim EventKind = iota
	EventCaptured
	EventCaptureFailed
	EventEnded
)

// Event is emitted by the adapter. EventEnded means the session finished
// without a transcript or failure.
type Event struct {
	Kind   EventKind
	Text   string
	Reason Reason
}

// Adapter turns an Engine's raw events into at most one Captured or
// CaptureFailed per session. It never submits commands itself.
type Adapter struct {
	mu      sync.Mutex
	engine  Engine
	state   State
	session uint64
	cancel  context.CancelFunc

	events chan Event
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewAdapter wraps engine. A nil engine leaves the adapter Unavailable.
func NewAdapter(engine Engine, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		engine: engine,
		state:  StateUnavailable,
		events: make(chan Event, 16),
		closed: make(chan struct{}),
		logger: logger,
	}
	if engine != nil {
		a.state = StateIdle
	}
	return a
}

// Events delivers adapter events. It is closed by Close.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Available reports whether an engine is configured.
func (a *Adapter) Available() bool {
	return a.engine != nil
}

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Listening reports whether a session is active.
func (a *Adapter) Listening() bool {
	s := a.State()
	return s == StateListening || s == StateFinalizing
}

// Start begins a capture session.
func (a *Adapter) Start(ctx context.Context) error {
	if a.engine == nil {
		return ErrCapabilityMissing
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.closed:
		return ErrCapabilityMissing
	default:
	}
	if a.state != StateIdle {
		return ErrAlreadyListening
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	ch, err := a.engine.Start(sessionCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("start speech engine: %w", err)
	}

	a.session++
	a.state = StateListening
	a.cancel = cancel

	a.wg.Add(1)
	go a.pump(sessionCtx, a.session, ch)

	a.logger.Debug("speech capture started", zap.Uint64("session", a.session))
	return nil
}

// Stop ends the current session without a Captured event. Late engine
// events for that session are dropped.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if a.state != StateListening {
		a.mu.Unlock()
		return
	}
	a.endSession()
	a.mu.Unlock()

	a.engine.Stop()
	a.logger.Debug("speech capture stopped")
}

// Close stops any active session, waits for the session goroutine and closes
// the Events channel.
func (a *Adapter) Close() {
	a.once.Do(func() {
		a.Stop()
		close(a.closed)
		a.wg.Wait()
		close(a.events)
	})
}

// endSession must be called with mu held.
func (a *Adapter) endSession() {
	a.session++
	a.state = StateIdle
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Adapter) pump(ctx context.Context, session uint64, ch <-chan EngineEvent) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			a.expire(session)
			return
		case ev, ok := <-ch:
			if !ok {
				a.expire(session)
				return
			}
			out, done := a.handle(session, ev)
			if out != nil {
				a.emit(*out)
			}
			if done {
				return
			}
		}
	}
}

// handle applies one engine event and returns the adapter event to emit.
func (a *Adapter) handle(session uint64, ev EngineEvent) (*Event, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if session != a.session || a.state != StateListening {
		return nil, true
	}

	switch ev.Kind {
	case EngineResult:
		if !ev.Final {
			return &Event{Kind: EventInterim, Text: ev.Text}, false
		}
		a.state = StateFinalizing
		text := strings.TrimSpace(ev.Text)
		a.endSession()
		if text == "" {
			return &Event{Kind: EventCaptureFailed, Reason: ReasonFromCode(CodeNoSpeech)}, true
		}
		return &Event{Kind: EventCaptured, Text: text}, true

	case EngineError:
		a.endSession()
		reason := ReasonFromCode(ev.Code)
		a.logger.Info("speech capture failed", zap.Stringer("reason", reason))
		return &Event{Kind: EventCaptureFailed, Reason: reason}, true

	default:
		a.endSession()
		return &Event{Kind: EventEnded}, true
	}
}

// expire ends session if it is still current, e.g. when the engine closed
// its channel without a final event.
func (a *Adapter) expire(session uint64) {
	a.mu.Lock()
	current := session == a.session && a.state == StateListening
	if current {
		a.endSession()
	}
	a.mu.Unlock()

	if current {
		a.emit(Event{Kind: EventEnded})
	}
}

func (a *Adapter) emit(ev Event) {
	select {
	case a.events <- ev:
	case <-a.closed:
	}
}
