package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultLimit bounds Recent when the caller passes zero.
const DefaultLimit = 20

// SQLiteHistory implements History on SQLite.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the history database at dbPath.
func NewSQLite(dbPath string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// The TUI and one-shot CLI runs may write concurrently.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	h := &SQLiteHistory{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return h, nil
}

func (h *SQLiteHistory) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS command_history (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		source TEXT NOT NULL,
		outcome TEXT NOT NULL,
		tools_json TEXT NOT NULL DEFAULT '[]',
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_command_history_created ON command_history(created_at);
	`
	if _, err := h.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record stores entry, assigning an ID and timestamp when missing.
func (h *SQLiteHistory) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Tools == nil {
		entry.Tools = []string{}
	}

	toolsJSON, err := json.Marshal(entry.Tools)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal tools: %w", err)
	}

	var errText interface{}
	if entry.Error != "" {
		errText = entry.Error
	}

	_, err = h.db.ExecContext(ctx, `
	INSERT INTO command_history (id, command, source, outcome, tools_json, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Command, entry.Source, entry.Outcome, string(toolsJSON), errText, entry.CreatedAt.UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("insert history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT id, command, source, outcome, tools_json, error, created_at
	FROM command_history
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			toolsJSON string
			errText   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Command, &e.Source, &e.Outcome, &toolsJSON, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(toolsJSON), &e.Tools); err != nil {
			return nil, fmt.Errorf("decode tools: %w", err)
		}
		e.Error = errText.String
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every entry.
func (h *SQLiteHistory) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM command_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
