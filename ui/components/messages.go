package components

import (
	"strings"

	"github.com/Rorical/LawAgent/internal/models"
	"github.com/Rorical/LawAgent/ui/styles"
)

// RenderMessages renders the tail of the command log that fits in limit
// entries. A limit of zero renders everything.
func RenderMessages(messages []models.Message, limit int) string {
	var b strings.Builder

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	userStyle := styles.UserStyle()
	stepStyle := styles.StepStyle()
	failureStyle := styles.FailureStyle()
	noticeStyle := styles.NoticeStyle()
	programStyle := styles.ProgramStyle()

	for _, msg := range messages {
		switch msg.Type {
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n")
		case models.Step:
			label := msg.ToolName
			if msg.Category != "" {
				label += " [" + msg.Category + "]"
			}
			b.WriteString(stepStyle.Render(label+": "+msg.Content) + "\n")
		case models.Failure:
			b.WriteString(failureStyle.Render(msg.Content) + "\n")
		case models.Notice:
			b.WriteString(noticeStyle.Render(msg.Content) + "\n")
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n")
		}
	}

	return b.String()
}
