package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/suzzy/pkg/config"
	"github.com/entrhq/suzzy/pkg/controller"
	"github.com/entrhq/suzzy/pkg/relay"
)

// Update handles all state updates for the panel.
// This is the main event loop handler for Bubble Tea.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.answer.Width = m.panelWidth() - 6
		m.keyInput.Width = m.panelWidth() - 8
		m.queryInput.Width = m.panelWidth() - 10
		m.ready = true
		return m, spinnerCmd

	case startedMsg:
		return m.handleStarted(msg), spinnerCmd

	case credentialMsg:
		return m.handleCredential(msg), spinnerCmd

	case answerMsg:
		return m.handleAnswer(msg), spinnerCmd

	case resetMsg:
		m.busy = false
		m.queryInput.Reset()
		m.keyInput.Reset()
		m.setupErr = ""
		m.refresh()
		if msg.err != nil {
			m.showToast("Reset failed", msg.err.Error(), "✗", true)
		} else {
			m.showToast("API key removed", "", "✓", false)
		}
		return m, spinnerCmd

	case copiedMsg:
		if msg.err != nil {
			m.showToast("Copy failed", msg.err.Error(), "✗", true)
		} else {
			m.showToast("Answer copied to clipboard", "", "✓", false)
		}
		return m, spinnerCmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg, spinnerCmd)
	}

	return m, spinnerCmd
}

func (m *model) handleStarted(msg startedMsg) *model {
	m.busy = false
	m.refresh()

	switch {
	case msg.err == nil, errors.Is(msg.err, controller.ErrSuperseded):
	case errors.Is(msg.err, controller.ErrExtractionUnavailable):
		m.logger.Warnf("extraction: %v", msg.err)
		m.showToast("Can't read the page yet", "Press ctrl+r to retry", "⚠", true)
	default:
		m.logger.Warnf("start: %v", msg.err)
	}
	return m
}

func (m *model) handleCredential(msg credentialMsg) *model {
	m.busy = false

	switch {
	case errors.Is(msg.err, config.ErrCredentialInvalid):
		m.setupErr = msg.err.Error()
		m.refresh()
		return m
	case msg.err != nil && !errors.Is(msg.err, controller.ErrExtractionUnavailable):
		m.setupErr = msg.err.Error()
		m.refresh()
		return m
	}

	m.setupErr = ""
	m.keyInput.Reset()
	return m.handleStarted(startedMsg{err: msg.err})
}

func (m *model) handleAnswer(msg answerMsg) *model {
	if errors.Is(msg.err, controller.ErrSuperseded) {
		return m
	}

	m.busy = false
	m.refresh()

	if msg.err != nil {
		m.showToast("Not ready yet", msg.err.Error(), "⚠", true)
		return m
	}

	if out := msg.turn.Actuation; out != nil {
		m.showToast(actuationToast(*msg.turn.Command, *out))
	}
	return m
}

// actuationToast describes a page action's outcome.
func actuationToast(cmd relay.Command, out relay.Outcome) (message, details, icon string, isError bool) {
	if !out.OK() {
		return "Page action " + out.Describe(), string(cmd.Type), "✗", true
	}

	switch cmd.Type {
	case relay.TypeHighlightText:
		n := 0
		if out.Result.Matches != nil {
			n = *out.Result.Matches
		}
		return fmt.Sprintf("Highlighted %d match(es)", n), cmd.Text, "✓", false
	default:
		return "Scrolled to target", "", "✓", false
	}
}

// handleKeyPress routes key presses by state.
func (m *model) handleKeyPress(msg tea.KeyMsg, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+s":
		m.ctrl.ToggleSettings()
		m.refresh()
		return m, spinnerCmd
	}

	if m.view.State == controller.NoCredential {
		return m.handleSetupKey(msg, spinnerCmd)
	}

	switch msg.String() {
	case "esc":
		if m.view.SettingsOpen {
			m.ctrl.ToggleSettings()
			m.refresh()
			return m, spinnerCmd
		}
		return m, tea.Quit

	case "ctrl+x":
		if !m.view.SettingsOpen {
			break
		}
		m.busy = true
		m.loadingMessage = "Removing API key..."
		return m, tea.Batch(spinnerCmd, m.resetCredential())

	case "ctrl+r":
		if m.busy {
			return m, spinnerCmd
		}
		m.busy = true
		m.loadingMessage = "Analyzing content..."
		return m, tea.Batch(spinnerCmd, m.spinner.Tick, m.reload())

	case "ctrl+y":
		if m.view.Turn == nil {
			return m, spinnerCmd
		}
		return m, tea.Batch(spinnerCmd, m.copyAnswer(m.view.Turn.Response))

	case "tab":
		if m.view.Turn == nil && !m.busy {
			m.queryInput.SetValue(exampleQueries[m.example])
			m.queryInput.CursorEnd()
			m.example = (m.example + 1) % len(exampleQueries)
		}
		return m, spinnerCmd

	case "pgup", "pgdown", "up", "down":
		var vpCmd tea.Cmd
		m.answer, vpCmd = m.answer.Update(msg)
		return m, tea.Batch(spinnerCmd, vpCmd)

	case "enter":
		query := strings.TrimSpace(m.queryInput.Value())
		if query == "" || m.busy || m.view.Snapshot == nil {
			return m, spinnerCmd
		}
		m.busy = true
		m.loadingMessage = getRandomLoadingMessage()
		m.view.Turn = nil
		m.answer.SetContent("")
		return m, tea.Batch(spinnerCmd, m.spinner.Tick, m.submit(query))
	}

	var tiCmd tea.Cmd
	m.queryInput, tiCmd = m.queryInput.Update(msg)
	return m, tea.Batch(spinnerCmd, tiCmd)
}

func (m *model) handleSetupKey(msg tea.KeyMsg, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "enter":
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" || m.busy {
			return m, spinnerCmd
		}
		m.busy = true
		m.loadingMessage = "Validating..."
		return m, tea.Batch(spinnerCmd, m.spinner.Tick, m.saveCredential(key))
	}

	var tiCmd tea.Cmd
	m.keyInput, tiCmd = m.keyInput.Update(msg)
	m.setupErr = ""
	return m, tea.Batch(spinnerCmd, tiCmd)
}
