package tools

import (
	"sort"
	"strings"
	"sync"

	"github.com/Rorical/LawAgent/internal/models"
)

// Category is the outcome class a backend tool falls into.
type Category string

const (
	CategoryUnknown    Category = "unknown"
	CategoryAuth       Category = "auth"
	CategorySignout    Category = "signout"
	CategorySearch     Category = "search"
	CategoryNavigation Category = "navigation"
	CategoryProfile    Category = "profile"
	CategorySettings   Category = "settings"
	CategoryTheme      Category = "theme"
	CategoryHelp       Category = "help"
	CategoryHistory    Category = "history"
	CategoryData       Category = "data"
)

// EventKind maps notification categories onto the AgenticEvent variant they
// publish. Categories that do not publish an event return false.
func (c Category) EventKind() (models.EventKind, bool) {
	switch c {
	case CategoryProfile:
		return models.EventProfileUpdate, true
	case CategorySettings:
		return models.EventSettingsUpdate, true
	case CategoryTheme:
		return models.EventThemeChange, true
	case CategoryHelp:
		return models.EventHelp, true
	}
	return "", false
}

// Spec describes one tool the command backend can execute.
type Spec struct {
	Name        string
	Description string
	Parameters  []string
	Category    Category
	// Public tools run without an authenticated session.
	Public bool
}

// Registry manages known backend tools
type Registry struct {
	tools map[string]Spec
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Spec),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[normalizeName(spec.Name)] = spec
}

// GetTool retrieves a tool by name
func (r *Registry) GetTool(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, exists := r.tools[normalizeName(name)]
	return spec, exists
}

// Category returns the category of the named tool, CategoryUnknown if the
// tool is not registered.
func (r *Registry) Category(name string) Category {
	if spec, ok := r.GetTool(name); ok {
		return spec.Category
	}
	return CategoryUnknown
}

// ListTools returns all registered tools sorted by category then name
func (r *Registry) ListTools() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.tools))
	for _, spec := range r.tools {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Category != specs[j].Category {
			return specs[i].Category < specs[j].Category
		}
		return specs[i].Name < specs[j].Name
	})
	return specs
}

// normalizeName strips call syntax the planner sometimes leaves on tool
// names, e.g. "search()" or " Search ".
func normalizeName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}
