package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/LawAgent/internal/dispatcher"
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/session"
	"github.com/Rorical/LawAgent/internal/speech"
	"github.com/Rorical/LawAgent/internal/store"
)

type scriptedEngine struct {
	mu     sync.Mutex
	events chan speech.EngineEvent
}

func (e *scriptedEngine) Start(ctx context.Context) (<-chan speech.EngineEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = make(chan speech.EngineEvent, 4)
	return e.events, nil
}

func (e *scriptedEngine) Stop() {}

func (e *scriptedEngine) send(ev speech.EngineEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events <- ev
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []store.Entry
}

func (m *memoryHistory) Record(_ context.Context, e store.Entry) (store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryHistory) Recent(context.Context, int) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Entry(nil), m.entries...), nil
}

func (m *memoryHistory) Clear(context.Context) error { return nil }
func (m *memoryHistory) Close() error                { return nil }

type fixture struct {
	service  *CommandService
	bus      *eventbus.EventBus
	results  *eventbus.ResultBus
	sessions *session.Store
	engine   *scriptedEngine
	history  *memoryHistory
	hits     *atomic.Int32

	mu     sync.Mutex
	events []eventbus.CoreEvent
}

type backend struct {
	body    string
	status  int
	release chan struct{}
	// schedule replaces the immediate scheduler.
	schedule func(time.Duration, func())
}

func newFixture(t *testing.T, be backend) *fixture {
	t.Helper()

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if be.release != nil {
			<-be.release
		}
		if be.status != 0 {
			w.WriteHeader(be.status)
		}
		_, _ = w.Write([]byte(be.body))
	}))
	t.Cleanup(srv.Close)

	f := &fixture{
		bus:      eventbus.NewEventBus(),
		results:  eventbus.NewResultBus(),
		sessions: session.NewStore(),
		engine:   &scriptedEngine{},
		history:  &memoryHistory{},
		hits:     hits,
	}
	adapter := speech.NewAdapter(f.engine, nil)
	schedule := be.schedule
	if schedule == nil {
		schedule = func(_ time.Duration, fn func()) { fn() }
	}

	f.service = NewCommandService(Options{
		Bus:             f.bus,
		Results:         f.results,
		Sessions:        f.sessions,
		Dispatcher:      dispatcher.New(srv.URL, f.sessions),
		Speech:          adapter,
		History:         f.history,
		AutoSubmitVoice: true,
		Scheduler:       schedule,
		Welcome:         []string{"-- LAWAGENT --"},
	})

	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case ev := <-f.bus.CoreToUI():
				f.mu.Lock()
				f.events = append(f.events, ev)
				f.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()

	f.service.Start()
	t.Cleanup(func() {
		f.service.Stop()
		adapter.Close()
		close(stop)
		<-drained
	})
	return f
}

func (f *fixture) toasts() []eventbus.ToastEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []eventbus.ToastEvent
	for _, ev := range f.events {
		if toast, ok := ev.(eventbus.ToastEvent); ok {
			out = append(out, toast)
		}
	}
	return out
}

func (f *fixture) navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		if nav, ok := ev.(eventbus.NavigateEvent); ok {
			out = append(out, nav.Target)
		}
	}
	return out
}

func (f *fixture) submit(t *testing.T, cmd string, source eventbus.SubmitSource) {
	t.Helper()
	require.NoError(t, f.bus.SendToCore(eventbus.SubmitCommandEvent{Command: cmd, Source: source}))
}

func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !f.service.IsPending() && len(f.history.entriesSnapshot()) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func (m *memoryHistory) entriesSnapshot() []store.Entry {
	entries, _ := m.Recent(context.Background(), 0)
	return entries
}

func TestLoginCommandEstablishesSession(t *testing.T) {
	f := newFixture(t, backend{body: `{"results":[{"tool":"login","success":true,"result":{"token":"T1","user_email":"a@b.com"}}]}`})

	f.submit(t, "login email=a@b.com password=x", eventbus.SourceManual)
	f.waitIdle(t)

	sess, ok := f.sessions.Get()
	require.True(t, ok)
	assert.Equal(t, models.Session{Token: "T1", Email: "a@b.com"}, sess)
	assert.Eventually(t, func() bool { return len(f.navigations()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"dashboard"}, f.navigations())

	entries := f.history.entriesSnapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "authenticated", entries[0].Outcome)
	assert.Equal(t, "manual", entries[0].Source)
	assert.Equal(t, []string{"login"}, entries[0].Tools)
}

func TestWhitespaceCommandNeverDispatched(t *testing.T) {
	f := newFixture(t, backend{body: `{"results":[]}`})

	f.submit(t, "   ", eventbus.SourceManual)
	f.submit(t, "asdkjasd", eventbus.SourceManual)
	f.waitIdle(t)

	assert.Equal(t, int32(1), f.hits.Load())
	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)
	toasts := f.toasts()
	assert.Equal(t, "No action found", toasts[0].Title)
}

func TestTransportErrorSingleNotification(t *testing.T) {
	f := newFixture(t, backend{status: http.StatusInternalServerError, body: `{"error":"database offline"}`})

	f.submit(t, "search bail", eventbus.SourceManual)
	f.waitIdle(t)

	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	toasts := f.toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, eventbus.ToastError, toasts[0].Level)
	assert.Contains(t, toasts[0].Message, "database offline")
	assert.Equal(t, "failed", f.history.entriesSnapshot()[0].Outcome)
}

func TestPermissionDeniedNeverDispatches(t *testing.T) {
	f := newFixture(t, backend{body: `{"results":[]}`})

	require.NoError(t, f.bus.SendToCore(eventbus.StartVoiceEvent{}))
	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Listening...", f.toasts()[0].Title)

	f.engine.send(speech.Failure(speech.CodeNotAllowed))

	require.Eventually(t, func() bool { return len(f.toasts()) == 2 }, time.Second, 5*time.Millisecond)
	failure := f.toasts()[1]
	assert.Equal(t, "Voice capture failed", failure.Title)
	assert.Equal(t, speech.ReasonFromCode(speech.CodeNotAllowed).Message(), failure.Message)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.toasts(), 2)
	assert.Zero(t, f.hits.Load())
}

func TestVoiceAndManualRaceDispatchOnce(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, backend{
		body:    `{"results":[{"tool":"search","success":true,"result":{"search_results":{"query":"Article 370","responses":{}}}}]}`,
		release: release,
	})

	require.NoError(t, f.bus.SendToCore(eventbus.StartVoiceEvent{}))
	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)

	f.submit(t, "search for Article 370", eventbus.SourceManual)
	require.Eventually(t, func() bool { return f.hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	// The spoken copy of the same command arrives while the manual one is in flight.
	f.engine.send(speech.Result(true, "search for Article 370"))
	time.Sleep(50 * time.Millisecond)
	close(release)
	f.waitIdle(t)

	assert.Equal(t, int32(1), f.hits.Load())
	assert.Len(t, f.history.entriesSnapshot(), 1)
	got, ok := f.results.Search.Take()
	require.True(t, ok)
	assert.Equal(t, "Article 370", got.Query)
}

func TestVoiceAutoSubmit(t *testing.T) {
	f := newFixture(t, backend{body: `{"results":[{"tool":"help","success":true,"result":{"help_text":"Try: search for ..."}}]}`})

	require.NoError(t, f.bus.SendToCore(eventbus.StartVoiceEvent{}))
	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)
	f.engine.send(speech.Result(true, "help"))
	f.waitIdle(t)

	entries := f.history.entriesSnapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "voice", entries[0].Source)
	ev, ok := f.results.Event.Take()
	require.True(t, ok)
	assert.Equal(t, models.EventHelp, ev.Kind)
}

func TestManualSubmitCancelsVoiceAutoSubmit(t *testing.T) {
	var mu sync.Mutex
	var deferred []func()
	f := newFixture(t, backend{
		body: `{"results":[{"tool":"help","success":true,"result":{"help_text":"Try: search for ..."}}]}`,
		schedule: func(_ time.Duration, fn func()) {
			mu.Lock()
			defer mu.Unlock()
			deferred = append(deferred, fn)
		},
	})

	require.NoError(t, f.bus.SendToCore(eventbus.StartVoiceEvent{}))
	require.Eventually(t, func() bool { return len(f.toasts()) == 1 }, time.Second, 5*time.Millisecond)
	f.engine.send(speech.Result(true, "help"))
	require.Eventually(t, func() bool { return len(f.toasts()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Voice captured", f.toasts()[1].Title)
	assert.Equal(t, "help", f.toasts()[1].Message)

	// The user confirms the transcript before the auto-submit delay ends.
	f.submit(t, "help", eventbus.SourceManual)
	f.waitIdle(t)

	mu.Lock()
	pending := append([]func(){}, deferred...)
	mu.Unlock()
	require.Len(t, pending, 1)
	pending[0]()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), f.hits.Load())
	entries := f.history.entriesSnapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "manual", entries[0].Source)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, backend{body: `{"results":[]}`})
	f.sessions.Set(models.Session{Token: "T", Email: "e@x.io"})

	require.NoError(t, f.bus.SendToCore(eventbus.LogoutEvent{}))
	require.Eventually(t, func() bool { return len(f.navigations()) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{LoginView}, f.navigations())
	_, ok := f.sessions.Get()
	assert.False(t, ok)
}

func TestVoiceUnavailable(t *testing.T) {
	bus := eventbus.NewEventBus()
	defer bus.Close()
	sessions := session.NewStore()
	cs := NewCommandService(Options{
		Bus:        bus,
		Results:    eventbus.NewResultBus(),
		Sessions:   sessions,
		Dispatcher: dispatcher.New("http://127.0.0.1:0", sessions),
		Speech:     speech.NewAdapter(nil, nil),
	})
	cs.Start()
	defer cs.Stop()

	require.NoError(t, bus.SendToCore(eventbus.StartVoiceEvent{}))
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-bus.CoreToUI():
			if toast, ok := ev.(eventbus.ToastEvent); ok {
				assert.Equal(t, "Voice unavailable", toast.Title)
				return
			}
		case <-deadline:
			t.Fatal("no toast")
		}
	}
}
