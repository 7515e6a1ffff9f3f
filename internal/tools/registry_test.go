package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rorical/LawAgent/internal/models"
)

func TestBackendRegistryCategories(t *testing.T) {
	r := NewBackendRegistry()

	cases := map[string]Category{
		"login":                CategoryAuth,
		"signup_with_random":   CategoryAuth,
		"search":               CategorySearch,
		"Search()":             CategorySearch,
		"update_theme":         CategoryTheme,
		"update_profile_field": CategoryProfile,
		"change_password":      CategorySettings,
		"help":                 CategoryHelp,
		"signout":              CategorySignout,
		"open_settings":        CategoryNavigation,
		"teleport":             CategoryUnknown,
		"":                     CategoryUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, r.Category(name), name)
	}
}

func TestCategoryEventKind(t *testing.T) {
	kind, ok := CategoryTheme.EventKind()
	assert.True(t, ok)
	assert.Equal(t, models.EventThemeChange, kind)

	_, ok = CategorySearch.EventKind()
	assert.False(t, ok)
	_, ok = CategoryAuth.EventKind()
	assert.False(t, ok)
}

func TestListToolsIsStable(t *testing.T) {
	r := NewBackendRegistry()
	first := r.ListTools()
	second := r.ListTools()

	assert.Equal(t, len(backendTools), len(first))
	assert.Equal(t, first, second)
}
