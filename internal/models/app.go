package models

import "time"

// Views the terminal client can show.
const (
	ViewHome            = "home"
	ViewLogin           = "login"
	ViewSignup          = "signup"
	ViewOTPVerification = "otp-verification"
	ViewDashboard       = "dashboard"
	ViewProfile         = "profile"
	ViewSettings        = "settings"
)

// KnownView reports whether name is a view the client can show.
func KnownView(name string) bool {
	switch name {
	case ViewHome, ViewLogin, ViewSignup, ViewOTPVerification, ViewDashboard, ViewProfile, ViewSettings:
		return true
	}
	return false
}

// Toast is a transient notification.
type Toast struct {
	Title   string
	Message string
	Error   bool
	Expires time.Time
}

// AppModel is the UI-side state of the terminal client.
type AppModel struct {
	Messages []Message
	Status   string
	Loading  bool

	View        string
	SurfaceOpen bool
	Listening   bool
	Debug       bool
	LastRaw     string

	Session  Session
	SignedIn bool

	Toasts []Toast
	// Search is what the dashboard last took from the result bus.
	Search *SearchResult
	// PageEvent is the last non-error event delivered to the current view.
	PageEvent *AgenticEvent

	Width  int
	Height int
}
