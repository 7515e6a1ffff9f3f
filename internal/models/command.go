package models

import "strings"

// Command is a single natural-language instruction, typed or spoken.
type Command string

// Text returns the command with surrounding whitespace removed.
func (c Command) Text() string {
	return strings.TrimSpace(string(c))
}

// Valid reports whether the command has any non-whitespace content.
func (c Command) Valid() bool {
	return c.Text() != ""
}

// Session is the authenticated identity currently held by the client.
type Session struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// IsZero reports whether the session carries no credential.
func (s Session) IsZero() bool {
	return s.Token == ""
}
