package components

import (
	"github.com/Rorical/LawAgent/ui/styles"
)

// RenderSurface draws the command surface around an already rendered input.
func RenderSurface(input string, listening bool, width int) string {
	inputStyle := styles.InputStyle(width)
	prefix := "> "
	if listening {
		inputStyle = styles.ListeningInputStyle(width)
		prefix = "● "
	}
	return inputStyle.Render(prefix + input)
}
