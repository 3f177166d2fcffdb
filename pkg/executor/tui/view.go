package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/controller"
)

// View renders the panel.
// This is called by Bubble Tea whenever the UI needs to be redrawn.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sections []string
	if m.view.State == controller.NoCredential && !m.view.SettingsOpen {
		sections = []string{m.buildHeader(), m.buildSetup()}
	} else {
		sections = []string{m.buildHeader()}
		if m.view.SettingsOpen {
			sections = append(sections, m.buildSettings())
		}
		sections = append(sections, m.buildPageStatus(), m.buildInputBox())
		if body := m.buildBody(); body != "" {
			sections = append(sections, body)
		}
	}

	sections = append(sections, m.buildBottomBar())
	if toast := m.renderToast(); toast != "" {
		sections = append(sections, toast)
	}

	return panelStyle.Width(m.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *model) panelWidth() int {
	if m.width > 0 && m.width < panelWidth {
		return m.width
	}
	return panelWidth
}

func (m *model) innerWidth() int {
	return m.panelWidth() - 6
}

// buildHeader renders the title row with the settings hint
func (m *model) buildHeader() string {
	left := headerStyle.Render("⚡ Suzzy") + " " + tipsStyle.Render("Smart Web Assistant")
	right := tipsStyle.Render("ctrl+s settings")

	gap := m.panelWidth() - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

// buildSetup renders the credential form shown in NoCredential
func (m *model) buildSetup() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🔑 Welcome to Suzzy"))
	b.WriteString("\n")
	b.WriteString(tipsStyle.Render("Connect your Groq API key to get started"))
	b.WriteString("\n\n")
	b.WriteString(readyDotStyle.Render("🛡 Your API key is stored locally and never shared"))
	b.WriteString("\n\n")

	steps := strings.Join([]string{
		titleStyle.Render("Get Your Free API Key"),
		"1. Visit console.groq.com",
		"2. Sign up or log in",
		"3. Go to API Keys section",
		"4. Create a new API key",
		"5. Copy and paste it below",
		urlStyle.Render("https://console.groq.com/keys"),
	}, "\n")
	b.WriteString(cardStyle.Width(m.innerWidth()).Render(steps))
	b.WriteString("\n\n")

	b.WriteString("Groq API Key\n")
	b.WriteString(inputBoxStyle.Width(m.innerWidth()).Render(m.keyInput.View()))
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage))
	case m.setupErr != "":
		b.WriteString(errorStyle.Render("✗ " + m.setupErr))
	default:
		b.WriteString(tipsStyle.Render("enter save & continue"))
	}
	return b.String()
}

// buildSettings renders the settings pane
func (m *model) buildSettings() string {
	key := m.view.Credential
	if key == "" {
		key = "Not set"
	} else if m.view.CredentialOverride {
		key += " (from flag or env)"
	}
	modelName := m.view.Model
	if modelName == "" {
		modelName = "default"
	}
	endpoint := m.view.BaseURL
	if endpoint == "" {
		endpoint = "Groq"
	}

	lines := []string{
		titleStyle.Render("API Key Status"),
		"Key: " + key,
		"Model: " + modelName,
		"Endpoint: " + endpoint,
		tipsStyle.Render("ctrl+x reset API key • esc close"),
	}
	return cardStyle.Width(m.innerWidth()).Render(strings.Join(lines, "\n"))
}

// buildPageStatus renders the page title and readiness line
func (m *model) buildPageStatus() string {
	title := "Loading page..."
	if m.view.Snapshot != nil && m.view.Snapshot.Title != "" {
		title = m.view.Snapshot.Title
	}

	indicator := readyDotStyle.Render("●")
	status := "Ready to help"
	if m.view.State == controller.ExtractingContent {
		indicator = m.spinner.View()
		status = "Analyzing content..."
	} else if m.view.Snapshot == nil {
		status = "ctrl+r to retry"
	}

	content := fmt.Sprintf("%s %s\n  %s",
		indicator,
		titleStyle.Render(truncate(title, m.innerWidth()-6)),
		tipsStyle.Render(status))
	return cardStyle.Width(m.innerWidth()).Render(content)
}

// buildInputBox renders the query input
func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(m.innerWidth()).Render(m.queryInput.View())
}

// buildBody renders the answer, the loading line or the example queries
func (m *model) buildBody() string {
	switch {
	case m.view.Turn != nil:
		return m.buildAnswer(*m.view.Turn)
	case m.busy || m.view.State == controller.AwaitingAnswer:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage)
	default:
		return m.buildExamples()
	}
}

func (m *model) buildAnswer(turn controller.Turn) string {
	var b strings.Builder
	b.WriteString(confidenceBadge(turn.Response))
	b.WriteString("\n")
	b.WriteString(m.answer.View())

	if turn.Command != nil && turn.Actuation != nil {
		b.WriteString("\n")
		b.WriteString(tipsStyle.Render(fmt.Sprintf("→ %s %q: %s",
			strings.ToLower(string(turn.Response.Action)), turn.Response.Target, turn.Actuation.Describe())))
	}
	return cardStyle.Width(m.innerWidth()).Render(b.String())
}

// renderAnswerBody renders the scrollable answer text and its first source
func (m *model) renderAnswerBody(resp assistant.Response) string {
	var b strings.Builder
	b.WriteString(styleURLs(wordWrap(resp.Answer, m.innerWidth()-4)))

	if len(resp.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(tipsStyle.Render("Sources found:"))
		b.WriteString("\n")
		quoted := fmt.Sprintf("%q", truncate(resp.Sources[0], 80))
		b.WriteString(sourceStyle.Render(wordWrap(quoted, m.innerWidth()-4)))
	}
	return b.String()
}

func (m *model) buildExamples() string {
	lines := []string{tipsStyle.Render("Try asking (tab to fill):")}
	for _, q := range exampleQueries {
		lines = append(lines, tipsStyle.Render(fmt.Sprintf("  %q", q)))
	}
	return strings.Join(lines, "\n")
}

// buildBottomBar renders key hints and the prompt token estimate
func (m *model) buildBottomBar() string {
	hints := "enter ask • ctrl+y copy • ctrl+r reload • ctrl+c quit"
	if m.view.State == controller.NoCredential {
		hints = "enter save • ctrl+c quit"
	}

	if tokens := m.promptTokens(); tokens > 0 {
		hints += fmt.Sprintf(" • ◆ ~%s tokens", formatTokenCount(tokens))
	}
	return statusBarStyle.Render(hints)
}

// promptTokens estimates the size of the prompt the current input would send.
// The count is cached per snapshot and query since View runs on every tick.
func (m *model) promptTokens() int {
	if m.counter == nil || m.view.Snapshot == nil {
		return 0
	}
	snap := *m.view.Snapshot
	query := strings.TrimSpace(m.queryInput.Value())

	key := snap.URL + "\x00" + snap.Timestamp + "\x00" + query
	if key != m.tokenKey {
		m.tokenKey = key
		m.tokenCount = m.counter.CountMessagesTokens(assistant.BuildMessages(query, snap))
	}
	return m.tokenCount
}

// renderToast renders a toast notification
func (m *model) renderToast() string {
	if !m.toast.active || time.Now().After(m.toast.showUntil) {
		return ""
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("%s %s", m.toast.icon, m.toast.message))
	if m.toast.details != "" {
		content.WriteString("\n")
		content.WriteString(m.toast.details)
	}

	borderColor := mintGreen
	if m.toast.isError {
		borderColor = salmonPink
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(m.innerWidth()).
		Render(content.String())
}
