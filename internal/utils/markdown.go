package utils

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders search answers and help text for the terminal.
// It falls back to plain text if rendering fails.
type MarkdownRenderer struct {
	mu       sync.RWMutex
	renderer *glamour.TermRenderer
	width    int
	theme    string
}

func NewMarkdownRenderer(width int) *MarkdownRenderer {
	m := &MarkdownRenderer{theme: "auto"}
	m.configure(width, m.theme)
	return m
}

// SetWidth rebuilds the renderer for a new terminal width.
func (m *MarkdownRenderer) SetWidth(width int) {
	m.mu.RLock()
	same := width == m.width
	theme := m.theme
	m.mu.RUnlock()
	if !same {
		m.configure(width, theme)
	}
}

// SetTheme switches between "light", "dark" and "auto" styles.
func (m *MarkdownRenderer) SetTheme(theme string) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	switch theme {
	case "light", "dark", "auto":
	default:
		return
	}
	m.mu.RLock()
	width := m.width
	m.mu.RUnlock()
	m.configure(width, theme)
}

// Theme returns the current style name.
func (m *MarkdownRenderer) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

func (m *MarkdownRenderer) configure(width int, theme string) {
	if width <= 0 {
		width = 80
	}

	style := glamour.WithAutoStyle()
	if theme != "auto" {
		style = glamour.WithStandardStyle(theme)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	m.theme = theme
	if err == nil {
		m.renderer = r
	}
}

func (m *MarkdownRenderer) Render(content string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
