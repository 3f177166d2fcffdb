// Package controller drives Suzzy's panel: credential setup, page extraction,
// queries and the page actions the model asks for.
//
// The Controller is the single writer of the current snapshot and answer.
// Presentation layers call its methods (usually from a goroutine) and read
// the result back through View.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/page"
	"github.com/entrhq/suzzy/pkg/relay"
)

var (
	// ErrNotReady is returned by Submit when the query, snapshot or credential is missing.
	ErrNotReady = errors.New("not ready to submit")

	// ErrSuperseded is returned by Submit when a newer submission, refresh or
	// credential reset replaced it before it finished.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrExtractionUnavailable is returned when the page content could not be read.
	ErrExtractionUnavailable = errors.New("page content unavailable")
)

// State is the panel's position in the query lifecycle.
type State int

const (
	NoCredential State = iota
	ExtractingContent
	Idle
	AwaitingAnswer
	ShowingAnswer
)

func (s State) String() string {
	switch s {
	case NoCredential:
		return "no_credential"
	case ExtractingContent:
		return "extracting_content"
	case Idle:
		return "idle"
	case AwaitingAnswer:
		return "awaiting_answer"
	case ShowingAnswer:
		return "showing_answer"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Relay sends a command to the page; *relay.Relay satisfies it.
type Relay interface {
	Send(ctx context.Context, cmd relay.Command) relay.Outcome
}

// Asker answers a query about a snapshot; *assistant.Client satisfies it.
type Asker interface {
	Query(ctx context.Context, query string, snap page.Snapshot, settings assistant.Settings) assistant.Response
}

// CredentialStore persists the API key and exposes the endpoint settings;
// *config.Config satisfies it.
type CredentialStore interface {
	APIKey() string
	SaveCredential(key string) error
	DeleteCredential() error
	CredentialOverridden() bool
	Endpoint() (model, baseURL string)
}

// Logger is the logging surface the controller needs; *logging.Logger satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Turn is one answered query.
type Turn struct {
	Query    string
	Response assistant.Response

	// Command and Actuation are set when the answer asked for a page action.
	Command   *relay.Command
	Actuation *relay.Outcome
}

// View is a copy of everything the panel renders.
type View struct {
	State        State
	Snapshot     *page.Snapshot
	Turn         *Turn
	SettingsOpen bool
	Credential   string
	// CredentialOverride is set when the key came from a flag or the environment.
	CredentialOverride bool
	Model              string
	BaseURL            string
}

// Controller is the panel's state machine. It is safe for concurrent use.
type Controller struct {
	relay  Relay
	asker  Asker
	store  CredentialStore
	logger Logger

	mu           sync.Mutex
	state        State
	snapshot     *page.Snapshot
	turn         *Turn
	settingsOpen bool

	// generation increments whenever in-flight work is superseded
	generation uint64
	cancelTurn context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller in the NoCredential state. Call Start to begin.
func New(r Relay, asker Asker, store CredentialStore, opts ...Option) *Controller {
	c := &Controller{
		relay:  r,
		asker:  asker,
		store:  store,
		logger: nopLogger{},
		state:  NoCredential,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start enters NoCredential when no key is stored, otherwise extracts the page.
func (c *Controller) Start(ctx context.Context) error {
	if c.store.APIKey() == "" {
		c.mu.Lock()
		c.state = NoCredential
		c.mu.Unlock()
		c.logger.Infof("no credential stored, showing setup")
		return nil
	}
	return c.Refresh(ctx)
}

// SetCredential validates and stores key, then extracts the page. A rejected
// key leaves the controller in NoCredential.
func (c *Controller) SetCredential(ctx context.Context, key string) error {
	if err := c.store.SaveCredential(strings.TrimSpace(key)); err != nil {
		return err
	}
	c.logger.Infof("credential saved")
	return c.Refresh(ctx)
}

// Refresh re-reads the page, dropping the current answer. On failure the
// snapshot stays absent and ErrExtractionUnavailable is returned.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.store.APIKey() == "" {
		return ErrNotReady
	}

	c.mu.Lock()
	gen := c.supersede()
	c.state = ExtractingContent
	c.snapshot = nil
	c.turn = nil
	c.mu.Unlock()

	out := c.relay.Send(ctx, relay.ExtractContent())

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return ErrSuperseded
	}
	c.state = Idle

	if !out.OK() || out.Result.Content == nil {
		c.logger.Warnf("extraction %s", out.Describe())
		return fmt.Errorf("%w: %s", ErrExtractionUnavailable, out.Describe())
	}

	snap := *out.Result.Content
	c.snapshot = &snap
	c.logger.Debugf("extracted %q: %d headings, %d paragraphs, %d links",
		snap.Title, len(snap.Headings), len(snap.Paragraphs), len(snap.Links))
	return nil
}

// Submit asks the completion endpoint about the current snapshot.
//
// When the answer asks for a page action, the matching relay command is sent
// and awaited; its Outcome is returned in the Turn. A newer Submit cancels
// this one, which then returns ErrSuperseded.
func (c *Controller) Submit(ctx context.Context, query string) (Turn, error) {
	query = strings.TrimSpace(query)
	apiKey := c.store.APIKey()

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if query == "" || apiKey == "" || c.snapshot == nil || c.state == NoCredential || c.state == ExtractingContent {
		c.mu.Unlock()
		return Turn{}, ErrNotReady
	}
	gen := c.supersede()
	c.cancelTurn = cancel
	snap := *c.snapshot
	c.state = AwaitingAnswer
	c.turn = nil
	c.mu.Unlock()

	model, baseURL := c.store.Endpoint()
	resp := c.asker.Query(turnCtx, query, snap, assistant.Settings{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
	})

	turn := Turn{Query: query, Response: resp}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debugf("dropping superseded answer for %q", query)
		return Turn{}, ErrSuperseded
	}
	c.state = ShowingAnswer
	c.turn = &turn
	c.mu.Unlock()

	c.logger.Infof("answered %q with %d%% confidence", query, resp.ConfidencePercent())

	cmd, ok := ActionCommand(resp, snap.URL)
	if !ok {
		return turn, nil
	}

	out := c.relay.Send(turnCtx, cmd)
	if out.OK() {
		c.logger.Infof("%s %q: %s", cmd.Type, resp.Target, out.Describe())
	} else {
		c.logger.Warnf("%s %q: %s", cmd.Type, resp.Target, out.Describe())
	}
	turn.Command = &cmd
	turn.Actuation = &out

	c.mu.Lock()
	if gen == c.generation {
		c.turn = &turn
	}
	c.mu.Unlock()

	return turn, nil
}

// ResetCredential deletes the stored key and returns to NoCredential.
func (c *Controller) ResetCredential() error {
	c.mu.Lock()
	c.supersede()
	c.state = NoCredential
	c.snapshot = nil
	c.turn = nil
	c.settingsOpen = false
	c.mu.Unlock()

	if err := c.store.DeleteCredential(); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	c.logger.Infof("credential reset")
	return nil
}

// ToggleSettings flips the settings pane and returns whether it is now open.
func (c *Controller) ToggleSettings() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settingsOpen = !c.settingsOpen
	return c.settingsOpen
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a copy of the rendered state.
func (c *Controller) View() View {
	model, baseURL := c.store.Endpoint()
	credential := MaskCredential(c.store.APIKey())
	overridden := credential != "" && c.store.CredentialOverridden()

	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:              c.state,
		SettingsOpen:       c.settingsOpen,
		Credential:         credential,
		CredentialOverride: overridden,
		Model:              model,
		BaseURL:            baseURL,
	}
	if c.snapshot != nil {
		snap := *c.snapshot
		v.Snapshot = &snap
	}
	if c.turn != nil {
		turn := *c.turn
		v.Turn = &turn
	}
	return v
}

// supersede invalidates in-flight work and returns the new generation.
// Callers hold c.mu.
func (c *Controller) supersede() uint64 {
	c.generation++
	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
	}
	return c.generation
}

// ActionCommand maps an answer's action to the relay command that performs it.
// Navigation targets are turned into selectors relative to pageURL.
func ActionCommand(resp assistant.Response, pageURL string) (relay.Command, bool) {
	if !resp.HasAction() {
		return relay.Command{}, false
	}

	switch resp.Action {
	case assistant.ActionHighlight:
		return relay.HighlightText(resp.Target), true
	case assistant.ActionNavigate:
		return relay.NavigateToElement(page.SelectorForTarget(resp.Target, pageURL)), true
	default:
		return relay.Command{}, false
	}
}

// MaskCredential shows only the first seven characters of key.
func MaskCredential(key string) string {
	if len(key) <= 7 {
		return key
	}
	return key[:7] + "..."
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
