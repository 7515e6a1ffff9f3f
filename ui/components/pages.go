package components

import (
	"strings"

	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/internal/utils"
	"github.com/Rorical/LawAgent/ui/styles"
)

var pageTitles = map[string]string{
	models.ViewHome:            "LawAgent",
	models.ViewLogin:           "Sign in",
	models.ViewSignup:          "Create an account",
	models.ViewOTPVerification: "Verify your email",
	models.ViewDashboard:       "Dashboard",
	models.ViewProfile:         "Profile",
	models.ViewSettings:        "Settings",
}

var pageHints = map[string]string{
	models.ViewHome:            `Press ctrl+k and try "log me in with email jane@example.com and password ..."`,
	models.ViewLogin:           `Say or type "login with email ... and password ..."`,
	models.ViewSignup:          `Say or type "sign me up with email ... and password ..."`,
	models.ViewOTPVerification: `Say or type "verify code 123456"`,
	models.ViewDashboard:       `Ask a legal question, e.g. "search for tenant eviction notice periods"`,
	models.ViewProfile:         `Try "change my name to ..."`,
	models.ViewSettings:        `Try "switch to dark theme"`,
}

// RenderPage draws the current view's body.
func RenderPage(appModel *models.AppModel, md *utils.MarkdownRenderer) string {
	var b strings.Builder

	title, ok := pageTitles[appModel.View]
	if !ok {
		title = appModel.View
	}
	b.WriteString(styles.TitleStyle().Render(title) + "\n")
	if hint := pageHints[appModel.View]; hint != "" {
		b.WriteString(styles.HintStyle().Render(hint) + "\n")
	}

	if appModel.View == models.ViewDashboard && appModel.Search != nil {
		b.WriteString(RenderSearch(*appModel.Search, md, appModel.Width))
	}
	if appModel.PageEvent != nil && appModel.PageEvent.Message != "" {
		b.WriteString(styles.SectionStyle(appModel.Width).Render(md.Render(appModel.PageEvent.Message)) + "\n")
	}

	return b.String()
}

// RenderSearch renders the three answers of a search result.
func RenderSearch(result models.SearchResult, md *utils.MarkdownRenderer, width int) string {
	var b strings.Builder
	section := styles.SectionStyle(width)

	b.WriteString(styles.HintStyle().Render("Query: "+result.Query) + "\n")
	for _, answer := range []struct{ name, text string }{
		{"Open source", result.Responses.Opensource},
		{"LawGPT", result.Responses.LawGPT},
		{"Proprietary", result.Responses.Proprietary},
	} {
		if answer.text == "" {
			continue
		}
		b.WriteString(section.Render(styles.TitleStyle().Render(answer.name)+"\n"+md.Render(answer.text)) + "\n")
	}
	return b.String()
}

// RenderDebug shows the raw body of the last command response.
func RenderDebug(raw string, width int) string {
	if raw == "" {
		raw = "(no response yet)"
	}
	return styles.DebugStyle(width).Render(raw)
}
