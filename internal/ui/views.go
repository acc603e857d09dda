package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderStreamDetails(m))

	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AFAF")).
		Render("Speedy ⏩ - Nonlinear Time-Scale Modification")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%s → %s", filepath.Base(m.InputPath), filepath.Base(m.OutputPath)))

	return title + "\n" + subtitle
}

func renderStreamDetails(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#00AFAF")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder
	content.WriteString(renderProgressBar(m.Progress, 40))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("Speed (s_eff):  %.2fx\n", m.CurrentSpeed))
	content.WriteString(fmt.Sprintf("Duration drift: %+.1f%%", m.DriftPercent))

	return box.Render(content.String())
}

func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	empty := width - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Result.Err != nil {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000")).
			Render("✗ Stream failed")
		b.WriteString(header)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Error: %v\n", m.Result.Err))
		return b.String()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Stream complete")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Input samples:   %d\n", m.Result.InputSamples))
	b.WriteString(fmt.Sprintf("Output samples:  %d\n", m.Result.OutputSamples))
	b.WriteString(fmt.Sprintf("Average speed:   %.2fx\n", m.Result.AverageSpeed))

	return b.String()
}
