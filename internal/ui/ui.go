// Package ui renders terminal output for the CLI commands. Styling degrades
// to plain text when stdout is not a terminal.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, s string) string {
	if !isTTY() {
		return s
	}
	return style.Render(s)
}

func ShowHeader(title string) {
	rule := strings.Repeat("─", len([]rune(title))+2)
	fmt.Printf(" %s\n", render(dimStyle, rule))
	fmt.Printf(" %s\n", render(headerStyle, title))
	fmt.Printf(" %s\n", render(dimStyle, rule))
}

func ShowSuccess(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", render(successStyle, "✓"), fmt.Sprintf(format, args...))
}

func ShowError(msg string, err error) {
	if err != nil {
		fmt.Printf(" %s %s: %v\n", render(errorStyle, "✗"), msg, err)
	} else {
		fmt.Printf(" %s %s\n", render(errorStyle, "✗"), msg)
	}
}

func ShowWarning(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", render(warnStyle, "!"), fmt.Sprintf(format, args...))
}

func ShowInfo(format string, args ...interface{}) {
	fmt.Printf(" %s %s\n", render(infoStyle, "ℹ"), fmt.Sprintf(format, args...))
}

// ShowKeyValue prints one aligned label/value line under a header.
func ShowKeyValue(label, value string) {
	fmt.Printf("  %s %s\n", render(dimStyle, fmt.Sprintf("%-22s", label+":")), value)
}

// ShowListItem prints one numbered list entry.
func ShowListItem(num int, text string) {
	fmt.Printf("  %s %s\n", render(dimStyle, fmt.Sprintf("%d.", num)), text)
}
