package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeEngine hands each session a channel the test drives directly.
type fakeEngine struct {
	mu       sync.Mutex
	sessions []chan EngineEvent
	startErr error
	stops    int
}

func (f *fakeEngine) Start(ctx context.Context) (<-chan EngineEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	ch := make(chan EngineEvent, 8)
	f.sessions = append(f.sessions, ch)
	return ch, nil
}

func (f *fakeEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeEngine) session(i int) chan EngineEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i]
}

func next(t *testing.T, a *Adapter) Event {
	t.Helper()
	select {
	case ev := <-a.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no adapter event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, a *Adapter) {
	t.Helper()
	select {
	case ev := <-a.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitState(t *testing.T, a *Adapter, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return a.State() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestCapabilityMissing(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewAdapter(nil, nil)
	defer a.Close()

	assert.Equal(t, StateUnavailable, a.State())
	assert.ErrorIs(t, a.Start(context.Background()), ErrCapabilityMissing)
	assert.Equal(t, StateUnavailable, a.State())
	assert.False(t, a.Available())
}

func TestNilWhisperIsUnavailable(t *testing.T) {
	assert.Nil(t, NewEngine(WhisperConfig{}, nil))
	a := NewAdapter(NewEngine(WhisperConfig{}, nil), nil)
	defer a.Close()
	assert.ErrorIs(t, a.Start(context.Background()), ErrCapabilityMissing)
}

func TestInterimThenFinal(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	assert.Equal(t, StateListening, a.State())
	assert.ErrorIs(t, a.Start(context.Background()), ErrAlreadyListening)

	ch := eng.session(0)
	ch <- Result(false, "search for")
	ch <- Result(false, "search for article")
	ch <- Result(true, " search for article 370 ")
	ch <- Result(true, "duplicate final")

	assert.Equal(t, Event{Kind: EventInterim, Text: "search for"}, next(t, a))
	assert.Equal(t, Event{Kind: EventInterim, Text: "search for article"}, next(t, a))
	assert.Equal(t, Event{Kind: EventCaptured, Text: "search for article 370"}, next(t, a))
	assertNoEvent(t, a)
	waitState(t, a, StateIdle)
}

func TestErrorCodesMapToReasons(t *testing.T) {
	defer goleak.VerifyNone(t)

	cases := map[string]Reason{
		"no-speech":     {Kind: ReasonNoSpeech, Code: CodeNoSpeech},
		"audio-capture": {Kind: ReasonAudioCaptureUnavailable, Code: CodeAudioCapture},
		"not-allowed":   {Kind: ReasonPermissionDenied, Code: CodeNotAllowed},
		"network":       {Kind: ReasonNetwork, Code: CodeNetwork},
		"aborted":       {Kind: ReasonOther, Code: "aborted"},
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			eng := &fakeEngine{}
			a := NewAdapter(eng, nil)
			defer a.Close()

			require.NoError(t, a.Start(context.Background()))
			eng.session(0) <- Failure(code)
			eng.session(0) <- Failure("network")

			assert.Equal(t, Event{Kind: EventCaptureFailed, Reason: want}, next(t, a))
			assertNoEvent(t, a)
			waitState(t, a, StateIdle)
		})
	}
}

func TestStopDiscardsLateEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	a.Stop()
	assert.Equal(t, StateIdle, a.State())
	assert.Equal(t, 1, eng.stops)

	eng.session(0) <- Result(true, "too late")
	assertNoEvent(t, a)

	// A new session is unaffected by the stale one.
	require.NoError(t, a.Start(context.Background()))
	eng.session(0) <- Result(true, "still too late")
	eng.session(1) <- Result(true, "help")
	assert.Equal(t, Event{Kind: EventCaptured, Text: "help"}, next(t, a))
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	defer a.Close()

	a.Stop()
	assert.Zero(t, eng.stops)
}

func TestBlankFinalIsNoSpeech(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	eng.session(0) <- Result(true, "   ")
	ev := next(t, a)
	assert.Equal(t, EventCaptureFailed, ev.Kind)
	assert.Equal(t, ReasonNoSpeech, ev.Reason.Kind)
}

func TestEndWithoutResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	close(eng.session(0))
	assert.Equal(t, Event{Kind: EventEnded}, next(t, a))
	waitState(t, a, StateIdle)
}

func TestEngineStartError(t *testing.T) {
	eng := &fakeEngine{startErr: errors.New("device busy")}
	a := NewAdapter(eng, nil)
	defer a.Close()

	err := a.Start(context.Background())
	assert.ErrorContains(t, err, "device busy")
	assert.Equal(t, StateIdle, a.State())
}

func TestCloseClosesEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := &fakeEngine{}
	a := NewAdapter(eng, nil)
	require.NoError(t, a.Start(context.Background()))
	a.Close()
	a.Close()

	_, ok := <-a.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, a.Start(context.Background()), ErrCapabilityMissing)
}

func TestReasonStrings(t *testing.T) {
	assert.Equal(t, "PermissionDenied", ReasonFromCode("not-allowed").String())
	assert.Equal(t, "Other(aborted)", ReasonFromCode("aborted").String())
	assert.NotEmpty(t, ReasonFromCode("network").Message())
}
