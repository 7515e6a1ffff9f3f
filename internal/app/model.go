package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/update"
	"github.com/Rorical/LawAgent/internal/utils"
	"github.com/Rorical/LawAgent/ui/components"
)

const visibleMessages = 8

type AppModel struct {
	appModel models.AppModel
	input    textinput.Model
	spinner  spinner.Model
	markdown *utils.MarkdownRenderer
	eventBus *eventbus.EventBus
	results  *eventbus.ResultBus
}

func NewAppModel(initial models.AppModel, eb *eventbus.EventBus, results *eventbus.ResultBus) *AppModel {
	input := textinput.New()
	input.Placeholder = "Type a command, or ctrl+r to speak"
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &AppModel{
		appModel: initial,
		input:    input,
		spinner:  sp,
		markdown: utils.NewMarkdownRenderer(80),
		eventBus: eb,
		results:  results,
	}
}

func (m *AppModel) widgets() update.Widgets {
	return update.Widgets{Input: &m.input, Spinner: &m.spinner, Markdown: m.markdown}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		update.ListenForCoreEvents(m.eventBus),
		update.ListenForResults(m.results),
		textinput.Blink,
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := update.HandleUpdateWithEventBus(&m.appModel, m.widgets(), msg, m.eventBus, m.results)

	// Keep listening after each delivery.
	switch msg.(type) {
	case update.CoreEventMsg:
		return m, tea.Batch(cmd, update.ListenForCoreEvents(m.eventBus))
	case update.ResultsChangedMsg:
		return m, tea.Batch(cmd, update.ListenForResults(m.results))
	}
	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderPage(&m.appModel, m.markdown))
	b.WriteString("\n")
	if m.appModel.SurfaceOpen {
		b.WriteString(components.RenderMessages(m.appModel.Messages, visibleMessages))
		b.WriteString(components.RenderSurface(m.input.View(), m.appModel.Listening, m.appModel.Width))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderToasts(m.appModel.Toasts))
	if m.appModel.Debug {
		b.WriteString(components.RenderDebug(m.appModel.LastRaw, m.appModel.Width))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderStatus(&m.appModel, m.spinner.View()))

	return b.String()
}
