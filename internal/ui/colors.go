package ui

import "github.com/charmbracelet/lipgloss"

// styles is the package palette: Tidal cyan for titles, Spotify green for
// success, traffic-light error/warn accents, muted gray for hints.
var styles = palette{
	title: accent("#00C2CB").Bold(true).MarginBottom(1),
	ok:    accent("#1DB954").Bold(true),
	err:   accent("#FF5F56").Bold(true),
	warn:  accent("#FFBD2E"),
	help:  accent("#626262").Italic(true),
}

// palette is a simple stylesheet of named [lipgloss.Style] fields.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func accent(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}
