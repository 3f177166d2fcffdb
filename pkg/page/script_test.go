package page

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage answers the embedded scripts the way a browser would.
type fakePage struct {
	url, title, html string
	matches          int
	selectors        map[string]bool
	invalid          bool
	err              error

	calls []interface{}
}

func (f *fakePage) eval(_ context.Context, script string, arg interface{}) (string, error) {
	f.calls = append(f.calls, arg)
	if f.err != nil {
		return "", f.err
	}

	var v interface{}
	switch script {
	case extractScript:
		v = extractResult{URL: f.url, Title: f.title, HTML: f.html}
	case highlightScript:
		v = highlightResult{Matches: f.matches}
	case navigateScript:
		args := arg.(navigateArgs)
		switch {
		case f.invalid:
			v = navigateResult{Invalid: true, Error: "not a valid selector"}
		default:
			v = navigateResult{Found: f.selectors[args.Selector]}
		}
	default:
		return "", errors.New("unknown script")
	}

	b, _ := json.Marshal(v)
	return string(b), nil
}

func newFakeTab(f *fakePage) *scriptTab {
	return &scriptTab{eval: f.eval, now: func() time.Time { return fixedNow }}
}

func TestScriptTab_Extract(t *testing.T) {
	f := &fakePage{
		url:   "https://example.com/a",
		title: "Live   Title",
		html:  `<html><head><title>Stale</title></head><body><h2>Plans</h2><a href="b">B</a></body></html>`,
	}

	snap, err := newFakeTab(f).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Live Title", snap.Title)
	assert.Equal(t, "https://example.com/a", snap.URL)
	assert.Equal(t, []Heading{{Level: "h2", Text: "Plans"}}, snap.Headings)
	assert.Equal(t, []Link{{Text: "B", Href: "https://example.com/b"}}, snap.Links)
	assert.Equal(t, "2024-03-09T14:05:06.789Z", snap.Timestamp)
}

func TestScriptTab_Highlight(t *testing.T) {
	f := &fakePage{matches: 3}

	n, err := newFakeTab(f).Highlight(context.Background(), "pricing")
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, []interface{}{"pricing"}, f.calls)
}

func TestScriptTab_Navigate(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := &fakePage{selectors: map[string]bool{"#faq": true}}
		tab := newFakeTab(f)
		tab.outlineDuration = 500 * time.Millisecond

		require.NoError(t, tab.Navigate(ctx, "#faq"))
		require.Len(t, f.calls, 1)
		args := f.calls[0].(navigateArgs)
		assert.Equal(t, OutlineStyle, args.Outline)
		assert.Equal(t, int64(500), args.DurationMs)
	})

	t.Run("default outline duration", func(t *testing.T) {
		f := &fakePage{selectors: map[string]bool{"#faq": true}}
		require.NoError(t, newFakeTab(f).Navigate(ctx, "#faq"))
		assert.Equal(t, int64(2000), f.calls[0].(navigateArgs).DurationMs)
	})

	t.Run("missing", func(t *testing.T) {
		f := &fakePage{}
		assert.ErrorIs(t, newFakeTab(f).Navigate(ctx, "#nope"), ErrElementNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		f := &fakePage{invalid: true}
		assert.ErrorIs(t, newFakeTab(f).Navigate(ctx, "[["), ErrInvalidSelector)
	})

	t.Run("empty selector never reaches the page", func(t *testing.T) {
		f := &fakePage{}
		assert.ErrorIs(t, newFakeTab(f).Navigate(ctx, "  "), ErrInvalidSelector)
		assert.Empty(t, f.calls)
	})
}

func TestScriptTab_EvalFailure(t *testing.T) {
	f := &fakePage{err: errors.New("target closed")}
	tab := newFakeTab(f)

	_, err := tab.Extract(context.Background())
	assert.ErrorContains(t, err, "target closed")

	_, err = tab.Highlight(context.Background(), "x")
	assert.ErrorContains(t, err, "highlight failed")
}

func TestScriptTab_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakePage{}

	_, err := newFakeTab(f).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

func TestEmbeddedScripts(t *testing.T) {
	for name, script := range map[string]string{
		"extract":   extractScript,
		"highlight": highlightScript,
		"navigate":  navigateScript,
	} {
		assert.NotEmpty(t, script, name)
		assert.Contains(t, script, "JSON.stringify", name)
	}
	assert.Contains(t, highlightScript, HighlightClass)
	assert.Contains(t, highlightScript, HighlightStyleID)
}
