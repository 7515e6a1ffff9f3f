package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/router"
	"github.com/Rorical/LawAgent/internal/session"
)

func newTestRouterDecision(t *testing.T, resp models.CommandResponse) router.Decision {
	t.Helper()
	r := router.New(router.Config{}, session.NewStore(), eventbus.NewResultBus(), nil)
	return r.Classify(resp)
}

func TestStateRecordsStepsAndRaw(t *testing.T) {
	state := NewCommandState()
	resp, err := models.ParseCommandResponse([]byte(`{"results":[{"tool":"update_setting","success":false,"error":"Unknown setting"}]}`), "")
	require.NoError(t, err)

	state.StartProcessingWithCommand("set fontsize to 12", "voice")
	assert.True(t, state.IsProcessing())

	state.FinishProcessingWithDecision(resp, newTestRouterDecision(t, resp))

	msgs := state.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "[voice] set fontsize to 12", msgs[0].Content)
	assert.Equal(t, models.Step, msgs[1].Type)
	assert.Equal(t, "update_setting", msgs[1].ToolName)
	assert.Equal(t, "Unknown setting", msgs[1].Content)
	assert.Contains(t, state.LastRaw(), "\n  \"results\"")
	assert.False(t, state.IsProcessing())
}
