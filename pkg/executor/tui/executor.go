// Package tui provides Suzzy's interactive terminal panel.
//
// The TUI codebase is split into multiple files:
// - executor.go: Executor and program lifecycle
// - model.go: Model structure, messages and controller commands
// - update.go: Bubble Tea Update function and key handling
// - view.go: Bubble Tea View function and rendering
// - helpers.go: Wrapping, formatting and clipboard helpers
// - styles.go: Color scheme and styling
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/suzzy/pkg/controller"
	"github.com/entrhq/suzzy/pkg/types"
)

// Logger is the logging surface the TUI needs; *logging.Logger satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// TokenCounter estimates prompt size; *tokenizer.Tokenizer satisfies it.
type TokenCounter interface {
	CountMessagesTokens(messages []*types.Message) int
}

// Executor runs the panel for a controller.
type Executor struct {
	ctrl    *controller.Controller
	counter TokenCounter
	logger  Logger
	program *tea.Program
}

// Option configures an Executor.
type Option func(*Executor)

// WithTokenCounter enables the prompt token estimate in the status bar.
func WithTokenCounter(c TokenCounter) Option {
	return func(e *Executor) {
		e.counter = c
	}
}

// WithLogger sets the logger for UI events.
func WithLogger(l Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates a TUI executor for ctrl.
func NewExecutor(ctrl *controller.Controller, opts ...Option) *Executor {
	e := &Executor{
		ctrl:   ctrl,
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts the panel and blocks until the user exits or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	m := newModel(ctx, e.ctrl, e.counter, e.logger)

	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	e.logger.Debugf("TUI starting")
	if _, err := e.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
