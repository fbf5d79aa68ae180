package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/docsync/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Executor runs one sync and reports what it did.
type Executor interface {
	Execute() (model.Summary, error)
}

// StackTracer is implemented by errors that carry a stack trace.
type StackTracer interface {
	error
	StackTrace() []byte
}

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct {
	summary model.Summary
	err     error
}

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	app     Executor
	spinner spinner.Model
	state   state
	summary model.Summary
	err     error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(app Executor) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

// Err returns the error the sync finished with, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg.Summary
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Syncing...", m.spinner.View())
	case stateError:
		return m.renderSummary() + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}
	if m.summary.Direction != "" {
		b.WriteString(faintStyle.Render(fmt.Sprintf("%s sync, %d block line(s)", m.summary.Direction, m.summary.BlockLines)))
		b.WriteString("\n")
	}

	hasContent := false
	section := func(title string, style lipgloss.Style, paths []string) {
		if len(paths) == 0 {
			return
		}
		hasContent = true
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		for _, f := range paths {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	section("Created:", successStyle, m.summary.Created)
	section("Modified:", successStyle, m.summary.Modified)
	section("In sync:", faintStyle, m.summary.Unchanged)
	section("Failed:", errorStyle, m.summary.Failed)

	if !hasContent && m.summary.Message == "" && m.state != stateError {
		b.WriteString(faintStyle.Render("Nothing to do."))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		var st StackTracer
		if errors.As(err, &st) {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", st.StackTrace())
		}
		return errorMsg{summary: summary, err: err}
	}
	return summaryMsg{Summary: summary}
}
