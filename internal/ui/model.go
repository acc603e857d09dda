package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubbletea model for a single speedy.Stream run.
type Model struct {
	InputPath  string
	OutputPath string

	Progress     float64
	CurrentSpeed float64
	DriftPercent float64

	StartTime time.Time
	Done      bool
	Result    DoneMsg

	ProgressChan chan tea.Msg

	Width, Height int
}

// NewModel creates a UI model for one input/output pair.
func NewModel(inputPath, outputPath string) Model {
	return Model{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

// Init starts listening for progress messages.
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		m.Progress = msg.Progress
		m.CurrentSpeed = msg.CurrentSpeed
		m.DriftPercent = msg.DriftPercent
		return m, waitForProgress(m.ProgressChan)

	case DoneMsg:
		m.Done = true
		m.Result = msg
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\n%s -> %s\n", m.InputPath, m.OutputPath)
	}
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
