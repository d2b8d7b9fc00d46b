package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	LabelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(ColorMuted)
)

func PrintHeader(w io.Writer) {
	header := `
 _                        _
| | __ _ _   _ _ __   ___| |__   ___ _ __
| |/ _' | | | | '_ \ / __| '_ \ / _ \ '__|
| | (_| | |_| | | | | (__| | | |  __/ |
|_|\__,_|\__,_|_| |_|\___|_| |_|\___|_|
`
	fmt.Fprintln(w, TitleStyle.Render(header))
}
