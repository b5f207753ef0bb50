package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	file    lipgloss.Style
	name    lipgloss.Style
	removed lipgloss.Style
	added   lipgloss.Style
	warn    lipgloss.Style
	status  lipgloss.Style
	success lipgloss.Style
	label   lipgloss.Style
}

// newStyles binds the palette to w so colour is dropped for pipes and files.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true),
		file: r.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Underline(true),
		name: r.NewStyle().
			Bold(true),
		removed: r.NewStyle().
			Foreground(lipgloss.Color("#F87171")),
		added: r.NewStyle().
			Foreground(lipgloss.Color("#10B981")),
		warn: r.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true),
		status: r.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true),
		success: r.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true),
		label: r.NewStyle().
			Width(14).
			Foreground(lipgloss.Color("#64748B")),
	}
}
