package components

import (
	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/ui/styles"
)

func RenderStatus(appModel *models.AppModel, spinner string) string {
	statusStyle := styles.StatusStyle(appModel.Width)

	statusContent := appModel.View + " | "
	if appModel.SignedIn {
		statusContent += appModel.Session.Email + " | "
	} else {
		statusContent += "signed out | "
	}
	if appModel.Loading {
		statusContent += spinner + " "
	}
	statusContent += appModel.Status

	return statusStyle.Render(statusContent)
}
