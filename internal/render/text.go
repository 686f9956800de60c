package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/njchilds90/exactode"
)

var (
	primaryColor = lipgloss.Color("#A78BFA")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")
	borderColor  = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	stepTitleStyle = lipgloss.NewStyle().
			Bold(true)

	stepErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	formulaStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingLeft(2)

	solutionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Foreground(successColor).
			Padding(0, 1)
)

// Text renders doc for a terminal.
func Text(doc Document) string {
	var parts []string

	header := fmt.Sprintf("(%s) dx + (%s) dy = 0", doc.M, doc.N)
	if doc.Name != "" {
		header = doc.Name + ": " + header
	}
	parts = append(parts, headerStyle.Render(header))

	for _, s := range doc.Steps {
		title := stepTitleStyle
		if isFailure(s) {
			title = stepErrorStyle
		}
		parts = append(parts, title.Render(s.Title), s.Text)
		if s.Formula != "" {
			parts = append(parts, formulaStyle.Render(s.Formula))
		}
		parts = append(parts, "")
	}

	if doc.Solved {
		parts = append(parts, solutionStyle.Render(doc.SolutionText))
	}
	return strings.TrimRight(lipgloss.JoinVertical(lipgloss.Left, parts...), "\n")
}

func isFailure(s exactode.Step) bool {
	return s.Title == exactode.TitleMathError || s.Title == exactode.TitleNoFactor
}
