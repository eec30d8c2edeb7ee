package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 2)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

// styled is false when stderr is not a terminal, summaries are then plain text
var styled = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

func render(style lipgloss.Style, text string) string {
	if !styled {
		return text
	}
	return style.Render(text)
}

type stat struct {
	label string
	value interface{}
}

// printSummary writes a titled block of statistics to stderr
func printSummary(title string, stats []stat) {
	var lines []string
	for _, s := range stats {
		lines = append(lines, fmt.Sprintf("%s %s",
			render(dimStyle, s.label+":"),
			render(statStyle, fmt.Sprint(s.value))))
	}
	body := strings.Join(lines, "\n")

	fmt.Fprintln(os.Stderr, render(titleStyle, title))
	if styled {
		fmt.Fprintln(os.Stderr, boxStyle.Render(body))
		return
	}
	fmt.Fprintln(os.Stderr, body)
}

func printSuccess(message string) {
	fmt.Fprintln(os.Stderr, render(successStyle, "✓ "+message))
}

func printInfo(message string) {
	fmt.Fprintln(os.Stderr, render(infoStyle, "• "+message))
}

func printWarning(message string) {
	fmt.Fprintln(os.Stderr, render(errorStyle, "! "+message))
}
