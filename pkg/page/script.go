package page

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var (
	//go:embed scripts/extract.js
	extractScript string

	//go:embed scripts/highlight.js
	highlightScript string

	//go:embed scripts/navigate.js
	navigateScript string
)

// evalFunc evaluates a one-argument JS function in the page and returns the
// string it produced. Every embedded script returns a JSON string so both
// drivers decode results the same way.
type evalFunc func(ctx context.Context, script string, arg interface{}) (string, error)

// scriptTab implements Tab on top of an evalFunc.
type scriptTab struct {
	eval            evalFunc
	now             func() time.Time
	outlineDuration time.Duration
}

type extractResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

type highlightResult struct {
	Matches int `json:"matches"`
}

type navigateArgs struct {
	Selector   string `json:"selector"`
	Outline    string `json:"outline"`
	DurationMs int64  `json:"durationMs"`
}

type navigateResult struct {
	Found   bool   `json:"found"`
	Invalid bool   `json:"invalid"`
	Error   string `json:"error"`
}

func (t *scriptTab) Extract(ctx context.Context) (Snapshot, error) {
	var res extractResult
	if err := t.run(ctx, extractScript, nil, &res); err != nil {
		return Snapshot{}, fmt.Errorf("extract failed: %w", err)
	}

	snap := ExtractHTML(res.HTML, res.URL, t.clock())
	if title := collapseSpace(res.Title); title != "" {
		snap.Title = title
	}
	return snap, nil
}

func (t *scriptTab) Highlight(ctx context.Context, text string) (int, error) {
	var res highlightResult
	if err := t.run(ctx, highlightScript, text, &res); err != nil {
		return 0, fmt.Errorf("highlight failed: %w", err)
	}
	return res.Matches, nil
}

func (t *scriptTab) Navigate(ctx context.Context, selector string) error {
	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	duration := t.outlineDuration
	if duration <= 0 {
		duration = DefaultOutlineDuration
	}
	args := navigateArgs{
		Selector:   selector,
		Outline:    OutlineStyle,
		DurationMs: duration.Milliseconds(),
	}

	var res navigateResult
	if err := t.run(ctx, navigateScript, args, &res); err != nil {
		return fmt.Errorf("navigate failed: %w", err)
	}
	switch {
	case res.Invalid:
		return fmt.Errorf("%w: %q: %s", ErrInvalidSelector, selector, res.Error)
	case !res.Found:
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (t *scriptTab) run(ctx context.Context, script string, arg, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := t.eval(ctx, script, arg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("unexpected script result: %w", err)
	}
	return nil
}

func (t *scriptTab) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}
