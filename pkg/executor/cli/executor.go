// Package cli provides line-oriented front ends for Suzzy: a one-shot query,
// a snapshot dump and a plain read-eval-print loop for terminals where the
// full-screen panel is unwanted.
//
// Example usage:
//
//	exec := cli.NewExecutor(ctrl, cli.WithJSON(true))
//	if err := exec.Ask(ctx, "What does this organization do?"); err != nil {
//	    log.Fatal(err)
//	}
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/entrhq/suzzy/pkg/assistant"
	"github.com/entrhq/suzzy/pkg/controller"
	"github.com/entrhq/suzzy/pkg/page"
	"github.com/mattn/go-isatty"
)

// ErrNoCredential is returned when no API key is available for a query.
var ErrNoCredential = errors.New("no Groq API key configured: set GROQ_API_KEY, pass -api-key, or run the panel once to save one")

// isTerminal reports whether w is an interactive terminal. Highlighting is
// skipped otherwise so piped JSON stays parseable.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Executor runs queries against a controller and prints the results.
type Executor struct {
	ctrl   *controller.Controller
	reader *bufio.Reader
	writer io.Writer

	// Display options
	json  bool
	color bool
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithReader sets the input used by Run (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithJSON prints answers as JSON objects instead of text.
func WithJSON(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.json = enabled
	}
}

// WithColor enables syntax highlighting for JSON output written to a terminal.
func WithColor(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.color = enabled
	}
}

// NewExecutor creates a new CLI executor for ctrl.
func NewExecutor(ctrl *controller.Controller, opts ...ExecutorOption) *Executor {
	e := &Executor{
		ctrl:   ctrl,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// answerOutput is the JSON shape of one answered query.
type answerOutput struct {
	Query      string           `json:"query"`
	Answer     string           `json:"answer"`
	Confidence float64          `json:"confidence"`
	Sources    []string         `json:"sources"`
	Action     assistant.Action `json:"action,omitempty"`
	Target     string           `json:"target,omitempty"`
	Actuation  *actuationOutput `json:"actuation,omitempty"`
}

type actuationOutput struct {
	Command string `json:"command"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Matches *int   `json:"matches,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ask extracts the page, answers query once and prints the result.
func (e *Executor) Ask(ctx context.Context, query string) error {
	if err := e.start(ctx); err != nil {
		return err
	}
	e.warnEmpty()
	return e.ask(ctx, query)
}

// DumpSnapshot extracts the page and prints its snapshot as JSON.
func (e *Executor) DumpSnapshot(ctx context.Context) error {
	if err := e.start(ctx); err != nil {
		return err
	}

	snap := e.ctrl.View().Snapshot
	if snap == nil {
		return controller.ErrExtractionUnavailable
	}
	return e.printJSON(snap)
}

// Run starts the conversation loop, answering one query per input line.
// Returns when the input ends, the user types exit or quit, or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.start(ctx); err != nil {
		return err
	}

	if snap := e.ctrl.View().Snapshot; snap != nil {
		fmt.Fprintf(e.writer, "Suzzy is reading: %s\n", pageLabel(*snap))
	}
	e.warnEmpty()
	fmt.Fprintln(e.writer, "Ask about the page and press Enter. Type 'reload' to re-read it, 'exit' or 'quit' to end.")
	fmt.Fprintln(e.writer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(e.writer, "> ")
		input, err := e.reader.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reload":
			if err := e.ctrl.Refresh(ctx); err != nil {
				fmt.Fprintf(e.writer, "❌ %v\n", err)
			} else if snap := e.ctrl.View().Snapshot; snap != nil {
				fmt.Fprintf(e.writer, "Reloaded: %s\n", pageLabel(*snap))
				e.warnEmpty()
			}
			continue
		}

		if err := e.ask(ctx, input); err != nil {
			fmt.Fprintf(e.writer, "❌ %v\n", err)
		}
	}
}

func (e *Executor) start(ctx context.Context) error {
	if err := e.ctrl.Start(ctx); err != nil {
		return err
	}
	if e.ctrl.State() == controller.NoCredential {
		return ErrNoCredential
	}
	return nil
}

// warnEmpty tells text-mode users the page gave the model nothing to read.
func (e *Executor) warnEmpty() {
	if e.json {
		return
	}
	if snap := e.ctrl.View().Snapshot; snap != nil && snap.IsEmpty() {
		fmt.Fprintln(e.writer, "⚠️  page has no readable content; answers will be limited")
	}
}

func (e *Executor) ask(ctx context.Context, query string) error {
	turn, err := e.ctrl.Submit(ctx, query)
	if err != nil {
		return err
	}

	if e.json {
		return e.printJSON(toOutput(turn))
	}
	e.printTurn(turn)
	return nil
}

func toOutput(turn controller.Turn) answerOutput {
	out := answerOutput{
		Query:      turn.Query,
		Answer:     turn.Response.Answer,
		Confidence: turn.Response.Confidence,
		Sources:    turn.Response.Sources,
		Action:     turn.Response.Action,
		Target:     turn.Response.Target,
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	if turn.Command != nil && turn.Actuation != nil {
		out.Actuation = &actuationOutput{
			Command: string(turn.Command.Type),
			Status:  turn.Actuation.Status.String(),
			Success: turn.Actuation.OK(),
			Matches: turn.Actuation.Result.Matches,
			Error:   turn.Actuation.Result.Error,
		}
		if turn.Actuation.Err != nil {
			out.Actuation.Error = turn.Actuation.Err.Error()
		}
	}
	return out
}

func (e *Executor) printTurn(turn controller.Turn) {
	resp := turn.Response
	fmt.Fprintf(e.writer, "\nSuzzy (%d%% confident)\n", resp.ConfidencePercent())
	fmt.Fprintln(e.writer, resp.Answer)

	if len(resp.Sources) > 0 {
		fmt.Fprintln(e.writer, "\nSources found:")
		for _, src := range resp.Sources {
			fmt.Fprintf(e.writer, "  - %q\n", src)
		}
	}

	if turn.Command != nil && turn.Actuation != nil {
		icon := "✅"
		if !turn.Actuation.OK() {
			icon = "❌"
		}
		fmt.Fprintf(e.writer, "\n%s %s %q: %s\n", icon, resp.Action, resp.Target, turn.Actuation.Describe())
	}
	fmt.Fprintln(e.writer)
}

// printJSON writes v as indented JSON, highlighted when color is enabled.
func (e *Executor) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if e.color && isTerminal(e.writer) {
		if err := quick.Highlight(e.writer, string(data)+"\n", "json", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err = fmt.Fprintln(e.writer, string(data))
	return err
}

func pageLabel(snap page.Snapshot) string {
	if snap.Title == "" {
		return snap.URL
	}
	return fmt.Sprintf("%s (%s)", snap.Title, snap.URL)
}
