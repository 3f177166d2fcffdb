// Package relay forwards commands to the page context of the active tab and
// returns the page's single result.
//
// Every command sent through a Relay produces exactly one Outcome: either the
// page's Result (Delivered, successful or not) or Unavailable when no page
// context could answer. Callers can therefore tell "the page is not ready"
// apart from "the page rejected the command".
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/suzzy/pkg/page"
	"github.com/google/uuid"
)

var (
	// ErrNoActiveTab is the Outcome error when no tab can receive the command.
	ErrNoActiveTab = errors.New("no active tab")

	// ErrNoResponse is the Outcome error when the page context returned nothing usable.
	ErrNoResponse = errors.New("no response from page")
)

// Status says whether a page context answered.
type Status int

const (
	// Unavailable means no page context answered the command.
	Unavailable Status = iota
	// Delivered means the page context answered; see Result.Success.
	Delivered
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	default:
		return "unavailable"
	}
}

// Outcome is the single answer to a sent Command.
type Outcome struct {
	ID     string
	Status Status
	Result Result
	Err    error
}

// OK reports whether the page answered and the command succeeded.
func (o Outcome) OK() bool {
	return o.Status == Delivered && o.Result.Success
}

// Describe renders the outcome for logs and status lines.
func (o Outcome) Describe() string {
	switch {
	case o.Status == Unavailable:
		return fmt.Sprintf("unavailable: %v", o.Err)
	case o.Result.Success:
		return "ok"
	default:
		return "failed: " + o.Result.Error
	}
}

// Logger is the logging surface the relay needs; *logging.Logger satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Transport carries an encoded command to a tab's page context and returns its encoded reply.
type Transport func(ctx context.Context, tab page.Tab, msg []byte) ([]byte, error)

// Local delivers messages in-process through Serve.
func Local(ctx context.Context, tab page.Tab, msg []byte) ([]byte, error) {
	return Serve(ctx, tab, msg), nil
}

// Relay routes commands to the active tab.
type Relay struct {
	source    page.Source
	transport Transport
	logger    Logger
	newID     func() string
}

// Option configures a Relay.
type Option func(*Relay)

// WithTransport replaces the in-process transport.
func WithTransport(t Transport) Option {
	return func(r *Relay) {
		if t != nil {
			r.transport = t
		}
	}
}

// WithLogger sets the logger used for delivery tracing.
func WithLogger(l Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithIDGenerator replaces the uuid correlation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Relay) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New creates a relay that resolves tabs through source.
func New(source page.Source, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		transport: Local,
		logger:    nopLogger{},
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send delivers cmd to the active tab once and waits for its answer.
// There is no retry; ctx bounds the whole exchange.
func (r *Relay) Send(ctx context.Context, cmd Command) Outcome {
	id := r.newID()
	out := Outcome{ID: id, Status: Unavailable}

	msg, err := json.Marshal(envelope{ID: id, Command: cmd})
	if err != nil {
		out.Err = fmt.Errorf("failed to encode command: %w", err)
		return r.finish(cmd, out)
	}

	if r.source == nil {
		out.Err = ErrNoActiveTab
		return r.finish(cmd, out)
	}
	tab, err := r.source.ActivePage(ctx)
	if err != nil {
		out.Err = fmt.Errorf("%w: %v", ErrNoActiveTab, err)
		return r.finish(cmd, out)
	}
	if tab == nil {
		out.Err = ErrNoActiveTab
		return r.finish(cmd, out)
	}

	r.logger.Debugf("relay %s: sending %s", id, cmd.Type)
	raw, err := r.transport(ctx, tab, msg)
	if err != nil {
		out.Err = fmt.Errorf("delivery failed: %w", err)
		return r.finish(cmd, out)
	}
	if len(raw) == 0 || string(raw) == "null" {
		out.Err = ErrNoResponse
		return r.finish(cmd, out)
	}

	var rep reply
	if err := json.Unmarshal(raw, &rep); err != nil {
		out.Err = fmt.Errorf("%w: %v", ErrNoResponse, err)
		return r.finish(cmd, out)
	}
	if rep.ID != "" && rep.ID != id {
		out.Err = fmt.Errorf("%w: reply for %s", ErrNoResponse, rep.ID)
		return r.finish(cmd, out)
	}

	out.Status = Delivered
	out.Result = rep.Result
	return r.finish(cmd, out)
}

func (r *Relay) finish(cmd Command, out Outcome) Outcome {
	if out.Status == Unavailable {
		r.logger.Warnf("relay %s: %s %s", out.ID, cmd.Type, out.Describe())
	} else {
		r.logger.Debugf("relay %s: %s %s", out.ID, cmd.Type, out.Describe())
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
