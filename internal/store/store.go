// Package store persists the local command history.
package store

import (
	"context"
	"time"
)

// Entry is one submitted command and what came of it.
type Entry struct {
	ID        string
	Command   string
	Source    string
	Outcome   string
	Tools     []string
	Error     string
	CreatedAt time.Time
}

// History is the command history repository.
type History interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}
