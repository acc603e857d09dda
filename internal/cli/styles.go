// Package cli provides terminal styling and help text for cmd/speedy,
// following the teacher's lipgloss-based console styling conventions.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#00AFAF") // Speedy teal
	accentColor    = lipgloss.Color("#FFD700") // Gold
	successColor   = lipgloss.Color("#00AA00") // Green
	mutedColor     = lipgloss.Color("#888888") // Gray
	highlightColor = lipgloss.Color("#FFFF00") // Yellow
	textColor      = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintBanner prints the application banner.
func PrintBanner() {
	fmt.Println(TitleStyle.Render("Speedy ⏩"))
	fmt.Println(SubtitleStyle.Render("Nonlinear speech time-scale modification"))
	fmt.Println()
}

// PrintVersion prints version information.
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Speedy ⏩"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message to stderr.
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message.
func PrintWarning(message string) {
	fmt.Printf("%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints a key/value informational line.
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// PrintSection prints a section header.
func PrintSection(title string) {
	fmt.Println(HeaderStyle.Render(title))
}

// FormatDuration formats a duration as whole milliseconds below one second
// and as seconds with one decimal otherwise.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// PrintBox prints content in a styled box.
func PrintBox(content string) {
	fmt.Println(BoxStyle.Render(content))
}

// PrintRunSummary prints a closing summary for one stream run: input and
// output duration, the average speed applied, and the final duration-drift
// measured against the target (spec.md §8 duration-contract invariant).
func PrintRunSummary(inputDuration, outputDuration time.Duration, avgSpeed, driftPct float64) {
	var b []byte
	write := func(s string) { b = append(b, []byte(s)...) }

	write(SuccessStyle.Render("✓ Stream complete"))
	write("\n\n")
	write(KeyStyle.Render("Input duration:   ") + ValueStyle.Render(FormatDuration(inputDuration)))
	write("\n")
	write(KeyStyle.Render("Output duration:  ") + ValueStyle.Render(FormatDuration(outputDuration)))
	write("\n")
	write(KeyStyle.Render("Average speed:    ") + ValueStyle.Render(fmt.Sprintf("%.2fx", avgSpeed)))
	write("\n")
	write(KeyStyle.Render("Duration drift:   ") + ValueStyle.Render(fmt.Sprintf("%.1f%%", driftPct)))
	write("\n")

	PrintBox(string(b))
}
