package models

import (
	"encoding/json"
)

// SearchResponses holds the three model answers produced for one legal query.
type SearchResponses struct {
	Opensource  string `json:"opensource"`
	LawGPT      string `json:"lawgpt"`
	Proprietary string `json:"proprietary"`
}

// SearchResult is delivered once to the page that renders it.
type SearchResult struct {
	Query     string          `json:"query"`
	Responses SearchResponses `json:"responses"`
}

// EventKind tags an AgenticEvent.
type EventKind string

const (
	EventProfileUpdate  EventKind = "profile_update"
	EventSettingsUpdate EventKind = "settings_update"
	EventThemeChange    EventKind = "theme_change"
	EventHelp           EventKind = "help"
	EventError          EventKind = "error"
)

// AgenticEvent is a non-search outcome published for whichever page is mounted.
type AgenticEvent struct {
	Kind    EventKind       `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// StepPayload is the tool-specific part of a StepResult. Only the fields the
// orchestration core acts on are decoded; the full object stays in Data.
type StepPayload struct {
	Token         string        `json:"token,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	Navigate      string        `json:"navigate,omitempty"`
	Message       string        `json:"message,omitempty"`
	SearchResults *SearchResult `json:"search_results,omitempty"`
	Theme         string        `json:"theme,omitempty"`
	HelpText      string        `json:"help_text,omitempty"`

	// Backend search handlers answer with {query, results:{...}} instead of
	// search_results; both shapes are accepted.
	Query   string           `json:"query,omitempty"`
	Results *SearchResponses `json:"-"`

	Data json.RawMessage `json:"-"`

	fromLegacyLogin bool
}

// Search returns the search payload carried by the step, if any.
func (p *StepPayload) Search() (SearchResult, bool) {
	if p == nil {
		return SearchResult{}, false
	}
	if p.SearchResults != nil {
		return *p.SearchResults, true
	}
	if p.Results != nil && p.Query != "" {
		return SearchResult{Query: p.Query, Responses: *p.Results}, true
	}
	return SearchResult{}, false
}

// HasCredentials reports whether the payload establishes a session. The
// legacy login shape never echoes the e-mail, so its token alone counts.
func (p *StepPayload) HasCredentials() bool {
	if p == nil || p.Token == "" {
		return false
	}
	return p.UserEmail != "" || p.fromLegacyLogin
}

// StepResult is the outcome of one backend tool invocation.
type StepResult struct {
	Tool    string       `json:"tool"`
	Success bool         `json:"success"`
	Result  *StepPayload `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`

	// Message is set on pseudo-steps (e.g. login_required) that carry a
	// top-level message and no success flag.
	Message string `json:"message,omitempty"`

	// HasStatus is false when the backend omitted the success flag.
	HasStatus bool `json:"-"`
	// Malformed marks steps whose JSON could not be decoded. They are echoed
	// in the debug view and never acted on.
	Malformed bool            `json:"-"`
	Raw       json.RawMessage `json:"-"`
}

// Failed reports whether the step is a backend-reported failure.
func (s StepResult) Failed() bool {
	if s.Malformed {
		return false
	}
	if s.HasStatus {
		return !s.Success
	}
	return s.Error != "" || s.Message != ""
}

// FailureMessage returns the best human-readable reason for a failed step.
func (s StepResult) FailureMessage() string {
	switch {
	case s.Error != "":
		return s.Error
	case s.Message != "":
		return s.Message
	case s.Tool != "":
		return s.Tool + " failed"
	default:
		return "command step failed"
	}
}

// CommandResponse is the ordered set of StepResults returned for one Command.
type CommandResponse struct {
	Steps  []StepResult    `json:"results"`
	Legacy bool            `json:"-"`
	Raw    json.RawMessage `json:"-"`
}

// Empty reports whether the response carries no step at all.
func (r CommandResponse) Empty() bool {
	return len(r.Steps) == 0
}

// Tools lists the tool names in execution order.
func (r CommandResponse) Tools() []string {
	names := make([]string, 0, len(r.Steps))
	for _, step := range r.Steps {
		names = append(names, step.Tool)
	}
	return names
}
