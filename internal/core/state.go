package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/router"
)

// CommandState is the transcript of commands and outcomes shown by the UI.
type CommandState struct {
	mu           sync.RWMutex
	messages     []models.Message
	isProcessing bool
	listening    bool
	lastError    error
	lastRaw      string
}

func NewCommandState() *CommandState {
	return &CommandState{
		messages: make([]models.Message, 0),
	}
}

// GetMessages returns a copy of all messages.
func (cs *CommandState) GetMessages() []models.Message {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	result := make([]models.Message, len(cs.messages))
	copy(result, cs.messages)
	return result
}

func (cs *CommandState) IsProcessing() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.isProcessing
}

func (cs *CommandState) SetListening(listening bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listening = listening
}

func (cs *CommandState) IsListening() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.listening
}

func (cs *CommandState) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}

// LastRaw is the indented body of the last command response.
func (cs *CommandState) LastRaw() string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastRaw
}

// AddProgramMessage adds a program message (system notifications)
func (cs *CommandState) AddProgramMessage(content string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = append(cs.messages, models.Message{Content: content, Type: models.Program})
}

// AddNotice records a toast in the transcript.
func (cs *CommandState) AddNotice(content string, failure bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	msgType := models.Notice
	if failure {
		msgType = models.Failure
	}
	cs.messages = append(cs.messages, models.Message{Content: content, Type: msgType})
}

func (cs *CommandState) StartProcessingWithCommand(command, source string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = true
	cs.lastError = nil
	content := command
	if source != "" && source != "manual" {
		content = fmt.Sprintf("[%s] %s", source, command)
	}
	cs.messages = append(cs.messages, models.Message{Content: content, Type: models.User})
}

// FinishProcessingWithDecision records one message per step and keeps the
// raw response for the debug view.
func (cs *CommandState) FinishProcessingWithDecision(resp models.CommandResponse, d router.Decision) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = false
	cs.lastError = nil
	cs.lastRaw = indentRaw(resp.Raw)

	for i, sd := range d.Steps {
		content := sd.Action.String()
		if i < len(resp.Steps) && resp.Steps[i].Failed() {
			content = resp.Steps[i].FailureMessage()
		}
		cs.messages = append(cs.messages, models.Message{
			Content:  content,
			Type:     models.Step,
			ToolName: displayTool(sd.Tool),
			Category: string(sd.Category),
		})
	}
}

func (cs *CommandState) FinishProcessingWithError(err error, raw []byte) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = false
	cs.lastError = err
	if len(raw) > 0 {
		cs.lastRaw = indentRaw(raw)
	}
}

func displayTool(name string) string {
	if name == "" {
		return "(unnamed step)"
	}
	return name
}

func indentRaw(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
