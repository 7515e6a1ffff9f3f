package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDelivers(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	require.NoError(t, eb.SendToCore(SubmitCommandEvent{Command: "help", Source: SourceVoice}))
	require.NoError(t, eb.SendToUI(NavigateEvent{Target: "dashboard"}))

	select {
	case ev := <-eb.UIToCore():
		submit, ok := ev.(SubmitCommandEvent)
		require.True(t, ok)
		assert.Equal(t, "help", submit.Command)
		assert.Equal(t, "voice", submit.Source.String())
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected ui event")
	}

	select {
	case ev := <-eb.CoreToUI():
		assert.Equal(t, NavigateEvent{Target: "dashboard"}, ev)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected core event")
	}
}

func TestEventBusCircuitOpensWhenFull(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	var reported []EventBusError
	eb.SetErrorCallback(func(err EventBusError) { reported = append(reported, err) })

	for i := 0; i < cap(eb.coreToUI); i++ {
		require.NoError(t, eb.SendToUI(SurfaceEvent{}))
	}
	for i := 0; i < 5; i++ {
		assert.Error(t, eb.SendToUI(SurfaceEvent{}))
	}

	assert.Equal(t, CircuitOpen, eb.GetCircuitBreakerState())
	assert.ErrorIs(t, eb.SendToUI(SurfaceEvent{}), ErrCircuitOpen)
	assert.NotEmpty(t, reported)
}

func TestEventBusSendAfterClose(t *testing.T) {
	eb := NewEventBus()
	eb.Close()
	eb.Close()

	assert.ErrorIs(t, eb.SendToUI(SurfaceEvent{}), ErrBusClosed)
	assert.ErrorIs(t, eb.SendToCore(LogoutEvent{}), ErrBusClosed)
}

func TestCircuitBreakerHalfOpens(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Millisecond)
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	time.Sleep(5 * time.Millisecond)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}
