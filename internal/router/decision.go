package router

import (
	"github.com/Rorical/LawAgent/internal/eventbus"
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/tools"
)

// Action is what the router did with a single step.
type Action int

const (
	ActionSkipped Action = iota
	ActionAuthenticate
	ActionSignOut
	ActionSearch
	ActionNavigate
	ActionEvent
	ActionNotice
	ActionFailure
)

func (a Action) String() string {
	switch a {
	case ActionAuthenticate:
		return "authenticate"
	case ActionSignOut:
		return "sign-out"
	case ActionSearch:
		return "search"
	case ActionNavigate:
		return "navigate"
	case ActionEvent:
		return "event"
	case ActionNotice:
		return "notice"
	case ActionFailure:
		return "failure"
	default:
		return "skipped"
	}
}

// StepDecision records how one step was classified, for history and the
// debug view.
type StepDecision struct {
	Index    int
	Tool     string
	Category tools.Category
	Action   Action
}

// Notice is a toast the router asks the UI to show.
type Notice struct {
	Title   string
	Message string
	Level   eventbus.ToastLevel
}

// Decision is the full classification of one CommandResponse. It is a pure
// value; Route applies it.
type Decision struct {
	Steps []StepDecision

	// Session is the last credential established by the response. SignOut
	// is set when the response ends signed out.
	Session *models.Session
	SignOut bool

	// Searches are published in order, so the slot ends with the last one.
	Searches []models.SearchResult
	Event    *models.AgenticEvent

	// Navigate is the single deferred navigation target, empty for none.
	Navigate     string
	CloseSurface bool

	Errors  []string
	Notices []Notice

	// NoAction is set when nothing actionable happened and nothing failed.
	NoAction bool
}

// Actionable reports whether the response produced a state transition.
func (d Decision) Actionable() bool {
	return d.Session != nil || d.SignOut || len(d.Searches) > 0 || d.Navigate != "" ||
		(d.Event != nil && d.Event.Kind != models.EventError)
}

// Categories lists each step's tool category in order.
func (d Decision) Categories() []tools.Category {
	out := make([]tools.Category, 0, len(d.Steps))
	for _, s := range d.Steps {
		out = append(out, s.Category)
	}
	return out
}

// LastError returns the last collected step error.
func (d Decision) LastError() string {
	if len(d.Errors) == 0 {
		return ""
	}
	return d.Errors[len(d.Errors)-1]
}

// Outcome names the most significant effect of the decision, for history.
func (d Decision) Outcome() string {
	switch {
	case d.Session != nil:
		return "authenticated"
	case d.SignOut:
		return "signed-out"
	case len(d.Searches) > 0:
		return "search"
	case d.Event != nil && d.Event.Kind != models.EventError:
		return string(d.Event.Kind)
	case d.Navigate != "":
		return "navigate"
	case len(d.Errors) > 0:
		return "failed"
	case d.NoAction:
		return "no-action"
	}
	return "notice"
}
