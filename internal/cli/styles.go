package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/dailytrack/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func Title(s string) string   { return titleStyle.Render(s) }
func Muted(s string) string   { return mutedStyle.Render(s) }
func Success(s string) string { return successStyle.Render(s) }
func Danger(s string) string  { return dangerStyle.Render(s) }
func Warning(s string) string { return warningStyle.Render(s) }

// PriorityLabel colors a priority; unset renders as "-".
func PriorityLabel(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return Muted("-")
	}
	return style.Render(string(p))
}

// Check renders a done/not-done marker.
func Check(done bool) string {
	if done {
		return Success("✓")
	}
	return Muted("·")
}

// Table renders rows under headers with the CLI's border and colors.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
