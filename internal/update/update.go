package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/utils"
)

// Widgets are the stateful components owned by the UI model.
type Widgets struct {
	Input    *textinput.Model
	Spinner  *spinner.Model
	Markdown *utils.MarkdownRenderer
}

func HandleUpdateWithEventBus(appModel *models.AppModel, w Widgets, msg tea.Msg, eb *eventbus.EventBus, rb *eventbus.ResultBus) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsgWithEventBus(appModel, w, msg, eb)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, w, msg)
		return nil
	case TickMsg:
		return HandleTickMsg(appModel)
	case spinner.TickMsg:
		var cmd tea.Cmd
		*w.Spinner, cmd = w.Spinner.Update(msg)
		return cmd
	case CoreEventMsg:
		return HandleCoreEvent(appModel, w, msg, rb)
	case ResultsChangedMsg:
		ConsumeResults(appModel, w, rb)
		return nil
	}
	return nil
}
