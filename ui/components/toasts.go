package components

import (
	"strings"

	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/ui/styles"
)

func RenderToasts(toasts []models.Toast) string {
	if len(toasts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range toasts {
		body := t.Title
		if t.Message != "" {
			body += "\n" + t.Message
		}
		b.WriteString(styles.ToastStyle(t.Error).Render(body) + "\n")
	}
	return b.String()
}
