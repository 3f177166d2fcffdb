package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/controller"
)

const (
	// panelWidth is the panel's fixed width in cells
	panelWidth = 64

	// answerHeight is the number of answer lines visible before scrolling
	answerHeight = 8

	toastDuration = 3 * time.Second
)

var exampleQueries = []string{
	"What does this organization do?",
	"Take me to the contact page",
	"Does this site mention donations?",
	"Find the pricing information",
}

// model represents the state of the panel.
type model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	counter TokenCounter
	logger  Logger

	// Bubble Tea components
	keyInput   textinput.Model
	queryInput textinput.Model
	spinner    spinner.Model
	answer     viewport.Model

	// view is the controller state as of the last message
	view controller.View

	setupErr       string
	busy           bool
	loadingMessage string
	example        int
	toast          toastNotification

	// tokenKey identifies the snapshot and query tokenCount was computed for
	tokenKey   string
	tokenCount int

	width  int
	height int
	ready  bool
}

// toastNotification represents a temporary notification message
type toastNotification struct {
	active    bool
	message   string
	details   string
	icon      string
	isError   bool
	showUntil time.Time
}

// startedMsg reports the end of an extraction
type startedMsg struct{ err error }

// credentialMsg reports the end of a credential save
type credentialMsg struct{ err error }

// answerMsg carries a finished query
type answerMsg struct {
	turn controller.Turn
	err  error
}

// resetMsg reports the end of a credential reset
type resetMsg struct{ err error }

// copiedMsg reports the result of a clipboard write
type copiedMsg struct{ err error }

func newModel(ctx context.Context, ctrl *controller.Controller, counter TokenCounter, logger Logger) *model {
	if logger == nil {
		logger = nopLogger{}
	}

	key := textinput.New()
	key.Placeholder = "gsk_..."
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.CharLimit = 256
	key.Focus()

	query := textinput.New()
	query.Placeholder = "Ask about this page or navigate..."
	query.CharLimit = 500
	query.Prompt = "> "

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := &model{
		ctx:        ctx,
		ctrl:       ctrl,
		counter:    counter,
		logger:     logger,
		keyInput:   key,
		queryInput: query,
		spinner:    s,
		answer:     viewport.New(panelWidth-6, answerHeight),
	}
	m.refresh()
	return m
}

// Init starts extraction (or shows the setup form) and the spinner.
func (m *model) Init() tea.Cmd {
	m.busy = true
	m.loadingMessage = "Analyzing content..."
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.start())
}

// refresh copies the controller state and syncs focus and the answer viewport.
func (m *model) refresh() {
	m.view = m.ctrl.View()

	if m.view.State == controller.NoCredential {
		m.queryInput.Blur()
		m.keyInput.Focus()
	} else {
		m.keyInput.Blur()
		m.queryInput.Focus()
	}

	if m.view.Turn != nil {
		m.answer.SetContent(m.renderAnswerBody(m.view.Turn.Response))
	} else {
		m.answer.SetContent("")
	}
	m.answer.GotoTop()
}

func (m *model) start() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.ctrl.Start(m.ctx)}
	}
}

func (m *model) reload() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.ctrl.Refresh(m.ctx)}
	}
}

func (m *model) saveCredential(key string) tea.Cmd {
	return func() tea.Msg {
		return credentialMsg{err: m.ctrl.SetCredential(m.ctx, key)}
	}
}

func (m *model) submit(query string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.ctrl.Submit(m.ctx, query)
		return answerMsg{turn: turn, err: err}
	}
}

func (m *model) resetCredential() tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: m.ctrl.ResetCredential()}
	}
}

func (m *model) copyAnswer(resp assistant.Response) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboardWrite(resp.Answer)}
	}
}

// showToast displays a toast notification to the user
func (m *model) showToast(message, details, icon string, isError bool) {
	m.toast = toastNotification{
		active:    true,
		message:   message,
		details:   details,
		icon:      icon,
		isError:   isError,
		showUntil: time.Now().Add(toastDuration),
	}
}
