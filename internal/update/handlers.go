package update

import (
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
)

const toastTTL = 4 * time.Second

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, w Widgets, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+k":
		appModel.SurfaceOpen = true
		return w.Input.Focus()
	case "esc":
		closeSurface(appModel, w)
		return nil
	case "ctrl+d":
		appModel.Debug = !appModel.Debug
		return nil
	case "ctrl+l":
		sendToCore(appModel, eb, eventbus.LogoutEvent{})
		return nil
	case "ctrl+r":
		appModel.SurfaceOpen = true
		if appModel.Listening {
			sendToCore(appModel, eb, eventbus.StopVoiceEvent{})
		} else {
			sendToCore(appModel, eb, eventbus.StartVoiceEvent{})
		}
		return w.Input.Focus()
	case "enter":
		if !appModel.SurfaceOpen {
			return nil
		}
		text := w.Input.Value()
		if !models.Command(text).Valid() {
			return nil
		}
		if sendToCore(appModel, eb, eventbus.SubmitCommandEvent{Command: text, Source: eventbus.SourceManual}) {
			w.Input.SetValue("")
		}
		return nil
	}

	if !appModel.SurfaceOpen {
		return nil
	}
	var cmd tea.Cmd
	*w.Input, cmd = w.Input.Update(keyMsg)
	return cmd
}

func sendToCore(appModel *models.AppModel, eb *eventbus.EventBus, event eventbus.UIEvent) bool {
	if err := eb.SendToCore(event); err != nil {
		appModel.Status = "Error sending event: " + err.Error()
		return false
	}
	return true
}

func closeSurface(appModel *models.AppModel, w Widgets) {
	appModel.SurfaceOpen = false
	w.Input.Blur()
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// ResultsChangedMsg signals a publish on the result bus.
type ResultsChangedMsg struct {
	Kind eventbus.SlotKind
}

// ListenForCoreEvents waits for the next core event.
func ListenForCoreEvents(eb *eventbus.EventBus) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-eb.CoreToUI()
		if !ok {
			return nil
		}
		return CoreEventMsg{Event: event}
	}
}

// ListenForResults waits for the next result bus change.
func ListenForResults(rb *eventbus.ResultBus) tea.Cmd {
	return func() tea.Msg {
		return ResultsChangedMsg{Kind: <-rb.Changes()}
	}
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, w Widgets, coreEventMsg CoreEventMsg, rb *eventbus.ResultBus) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		// Core sends only the messages added since its last push.
		appModel.Messages = append(appModel.Messages, event.Messages...)
		appModel.Loading = event.IsProcessing
		appModel.Listening = event.Listening
		if event.LastRaw != "" {
			appModel.LastRaw = event.LastRaw
		}

		switch {
		case event.Error != nil:
			appModel.Status = "Error: " + event.Error.Error()
		case event.IsProcessing:
			appModel.Status = "Processing"
		case event.Listening:
			appModel.Status = "Listening"
		default:
			appModel.Status = "Ready"
		}
		if event.IsProcessing {
			return w.Spinner.Tick
		}

	case eventbus.NavigateEvent:
		if !models.KnownView(event.Target) {
			appModel.Status = "Unknown view: " + event.Target
			return nil
		}
		appModel.View = event.Target
		appModel.PageEvent = nil
		ConsumeResults(appModel, w, rb)

	case eventbus.SurfaceEvent:
		if event.Open {
			appModel.SurfaceOpen = true
			return w.Input.Focus()
		}
		closeSurface(appModel, w)

	case eventbus.ToastEvent:
		addToast(appModel, event.Title, event.Message, event.Level == eventbus.ToastError)

	case eventbus.TranscriptEvent:
		appModel.SurfaceOpen = true
		w.Input.SetValue(event.Text)
		w.Input.CursorEnd()

	case eventbus.SessionEvent:
		appModel.Session = event.Session
		appModel.SignedIn = event.SignedIn
	}

	return nil
}

// ConsumeResults takes whatever the current view is interested in from the
// result bus: the dashboard takes searches, every view takes events.
func ConsumeResults(appModel *models.AppModel, w Widgets, rb *eventbus.ResultBus) {
	if appModel.View == models.ViewDashboard {
		if search, ok, clear := rb.Search.Subscribe(); ok {
			appModel.Search = &search
			clear()
		}
	}

	event, ok, clear := rb.Event.Subscribe()
	if !ok {
		return
	}
	clear()

	if event.Kind == models.EventError {
		addToast(appModel, "Command failed", event.Message, true)
		return
	}
	if event.Kind == models.EventThemeChange && w.Markdown != nil {
		var payload struct {
			Theme string `json:"theme"`
		}
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			w.Markdown.SetTheme(payload.Theme)
		}
	}
	appModel.PageEvent = &event
	addToast(appModel, eventTitle(event.Kind), event.Message, false)
}

func eventTitle(kind models.EventKind) string {
	switch kind {
	case models.EventProfileUpdate:
		return "Profile updated"
	case models.EventSettingsUpdate:
		return "Settings updated"
	case models.EventThemeChange:
		return "Theme changed"
	case models.EventHelp:
		return "Help"
	}
	return string(kind)
}

func addToast(appModel *models.AppModel, title, message string, isError bool) {
	appModel.Toasts = append(appModel.Toasts, models.Toast{
		Title:   title,
		Message: message,
		Error:   isError,
		Expires: time.Now().Add(toastTTL),
	})
	// Keep the stack short.
	if len(appModel.Toasts) > 4 {
		appModel.Toasts = appModel.Toasts[len(appModel.Toasts)-4:]
	}
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, w Widgets, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
	if sizeMsg.Width > 8 {
		w.Input.Width = sizeMsg.Width - 8
	}
	if w.Markdown != nil {
		w.Markdown.SetWidth(sizeMsg.Width - 4)
	}
}

// HandleTickMsg drops expired toasts.
func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	now := time.Now()
	kept := appModel.Toasts[:0]
	for _, t := range appModel.Toasts {
		if t.Expires.After(now) {
			kept = append(kept, t)
		}
	}
	appModel.Toasts = kept
	return TickCmd()
}
