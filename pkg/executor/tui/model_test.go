package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/config"
	"github.com/entrhq/suzzy/pkg/controller"
	"github.com/entrhq/suzzy/pkg/page"
	"github.com/entrhq/suzzy/pkg/relay"
	"github.com/entrhq/suzzy/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoHTML = `<html><head><title>Demo</title></head><body><p>xxxxxxxxxxxxxxxxxxxxxxxxx</p></body></html>`

type memStore struct {
	mu         sync.Mutex
	key        string
	baseURL    string
	overridden bool
}

func (s *memStore) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *memStore) SaveCredential(key string) error {
	if err := config.ValidateCredential(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

func (s *memStore) DeleteCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}

func (s *memStore) CredentialOverridden() bool { return s.overridden }

func (s *memStore) Endpoint() (string, string) { return "", s.baseURL }

type fixedCounter int

func (c fixedCounter) CountMessagesTokens([]*types.Message) int { return int(c) }

type countingCounter struct{ calls int }

func (c *countingCounter) CountMessagesTokens(messages []*types.Message) int {
	c.calls++
	return 10 * len(messages)
}

// demoServer answers every completion with "It's a demo" at 0.9 confidence.
func demoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"It's a demo\",\"confidence\":0.9,\"sources\":[]}"}}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestModel(t *testing.T, store *memStore, counter TokenCounter) *model {
	t.Helper()
	doc, err := page.NewDocument(strings.NewReader(demoHTML), "https://example.com/")
	require.NoError(t, err)

	ctrl := controller.New(relay.New(page.Fixed(doc)), assistant.NewClient(), store)
	m := newModel(context.Background(), ctrl, counter, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// run executes a controller command synchronously and feeds its message back.
func run(m *model, cmd tea.Cmd) {
	m.Update(cmd())
}

func TestModel_AnswerRendering(t *testing.T) {
	server := demoServer(t)
	m := newTestModel(t, &memStore{key: "gsk_test", baseURL: server.URL}, nil)

	run(m, m.start())
	assert.Equal(t, controller.Idle, m.view.State)
	assert.Contains(t, m.View(), "Demo")
	assert.Contains(t, m.View(), "Try asking")

	run(m, m.submit("What is this?"))

	view := m.View()
	assert.Equal(t, controller.ShowingAnswer, m.view.State)
	assert.Contains(t, view, "It's a demo")
	assert.Contains(t, view, "90% confident")
	assert.NotContains(t, view, "Try asking")
}

func TestModel_SetupForm(t *testing.T) {
	m := newTestModel(t, &memStore{}, nil)
	run(m, m.start())

	assert.Equal(t, controller.NoCredential, m.view.State)
	assert.Contains(t, m.View(), "Welcome to Suzzy")
	assert.Contains(t, m.View(), "https://console.groq.com/keys")

	run(m, m.saveCredential("sk-not-groq"))
	assert.Equal(t, controller.NoCredential, m.view.State)
	assert.Contains(t, m.View(), "please enter a valid Groq API key")

	run(m, m.saveCredential("gsk_valid"))
	assert.Equal(t, controller.Idle, m.view.State)
	assert.Empty(t, m.setupErr)
	assert.Contains(t, m.View(), "Ready to help")
}

func TestModel_SetupInputIsMasked(t *testing.T) {
	m := newTestModel(t, &memStore{}, nil)
	run(m, m.start())

	for _, r := range "gsk_secret" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "gsk_secret", m.keyInput.Value())
	assert.NotContains(t, m.View(), "gsk_secret")
}

func TestModel_SettingsAndReset(t *testing.T) {
	store := &memStore{key: "gsk_test"}
	m := newTestModel(t, store, nil)
	run(m, m.start())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	view := m.View()
	assert.Contains(t, view, "API Key Status")
	assert.Contains(t, view, "gsk_tes...")
	assert.NotContains(t, view, "gsk_test")
	assert.NotContains(t, view, "from flag or env")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	run(m, m.resetCredential())
	assert.Equal(t, controller.NoCredential, m.view.State)
	assert.Empty(t, store.APIKey())
	assert.Contains(t, m.View(), "Welcome to Suzzy")
}

func TestModel_SettingsShowsOverriddenKey(t *testing.T) {
	m := newTestModel(t, &memStore{key: "gsk_test", overridden: true}, nil)
	run(m, m.start())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.View(), "gsk_tes... (from flag or env)")
}

func TestModel_ExampleQueries(t *testing.T) {
	m := newTestModel(t, &memStore{key: "gsk_test"}, nil)
	run(m, m.start())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, exampleQueries[0], m.queryInput.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, exampleQueries[1], m.queryInput.Value())
}

func TestModel_CopyAnswer(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}
	defer func() { clipboardWrite = orig }()

	m := newTestModel(t, &memStore{key: "gsk_test"}, nil)
	run(m, m.copyAnswer(assistant.Response{Answer: "It's a demo"}))

	assert.Equal(t, "It's a demo", copied)
	assert.Contains(t, m.View(), "Answer copied to clipboard")
}

func TestModel_TokenEstimate(t *testing.T) {
	m := newTestModel(t, &memStore{key: "gsk_test"}, fixedCounter(1234))
	assert.NotContains(t, m.buildBottomBar(), "tokens", "no estimate without a snapshot")

	run(m, m.start())
	assert.Contains(t, m.buildBottomBar(), "~1.2K tokens")
}

func TestModel_TokenEstimateCached(t *testing.T) {
	counter := &countingCounter{}
	m := newTestModel(t, &memStore{key: "gsk_test"}, counter)
	run(m, m.start())

	for i := 0; i < 3; i++ {
		m.View()
	}
	assert.Equal(t, 1, counter.calls)

	m.queryInput.SetValue("What is this?")
	m.View()
	m.View()
	assert.Equal(t, 2, counter.calls)
}

func TestModel_WideRuneAnswer(t *testing.T) {
	m := newTestModel(t, &memStore{key: "gsk_test"}, nil)

	answer := strings.Repeat("这是一个演示页面", 4)
	var body string
	require.NotPanics(t, func() {
		body = m.renderAnswerBody(assistant.Response{Answer: answer, Sources: []string{answer}})
	})
	assert.Contains(t, strings.ReplaceAll(body, "\n", ""), "这是一个演示页面")
}

func TestModel_UnreachablePage(t *testing.T) {
	ctrl := controller.New(relay.New(page.Fixed(nil)), assistant.NewClient(), &memStore{key: "gsk_test"})
	m := newModel(context.Background(), ctrl, nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	run(m, m.start())
	view := m.View()
	assert.Contains(t, view, "Loading page...")
	assert.Contains(t, view, "Can't read the page yet")

	m.queryInput.SetValue("What is this?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.busy, "enter does nothing without a snapshot")
}

func TestActuationToast(t *testing.T) {
	matches := 3
	msg, details, _, isErr := actuationToast(relay.HighlightText("pricing"), relay.Outcome{
		Status: relay.Delivered,
		Result: relay.Result{Success: true, Matches: &matches},
	})
	assert.Equal(t, "Highlighted 3 match(es)", msg)
	assert.Equal(t, "pricing", details)
	assert.False(t, isErr)

	msg, _, _, isErr = actuationToast(relay.NavigateToElement("#x"), relay.Outcome{
		Status: relay.Delivered,
		Result: relay.Result{Error: "Element not found"},
	})
	assert.Equal(t, "Page action failed: Element not found", msg)
	assert.True(t, isErr)
}

func TestConfidenceBadge(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0.9, "90% confident"},
		{0.6, "60% confident"},
		{0.3, "30% confident"},
		{0.1, "10% confident"},
	}
	for _, tt := range tests {
		assert.Contains(t, confidenceBadge(assistant.Response{Confidence: tt.confidence}), tt.want)
	}
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "the quick\nbrown fox", wordWrap("the quick brown fox", 10))
	assert.Equal(t, "one\ntwo", wordWrap("one\n\n\ntwo", 10))
	assert.Equal(t, "abcde\nfghij", wordWrap("abcdefghij", 5))
}

func TestWordWrap_WideRunes(t *testing.T) {
	wrapped := wordWrap(strings.Repeat("漢", 30), 54)
	assert.Equal(t, strings.Repeat("漢", 27)+"\n"+strings.Repeat("漢", 3), wrapped)

	for _, line := range strings.Split(wordWrap("一二三四五 abc 六七八", 5), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 5, line)
	}

	// A rune wider than the line still makes progress
	assert.Equal(t, "漢\n漢", wordWrap("漢漢", 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
