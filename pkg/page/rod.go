package page

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/gobwas/glob"
)

// RodOptions configures a Chrome reached through go-rod.
type RodOptions struct {
	// DebuggerURL is the DevTools endpoint of a running Chrome, either the
	// websocket URL or the http://host:port form. Empty launches a local Chrome.
	DebuggerURL string

	// Headless applies only when a local Chrome is launched
	Headless bool

	// TabPattern is a glob over page URLs; empty matches every page
	TabPattern string

	// OutlineDuration is how long Navigate outlines an element
	OutlineDuration time.Duration
}

// Rod is a Source attached to a Chrome over the DevTools protocol.
//
// The active page is the first page whose URL matches TabPattern and whose
// document is visible, falling back to the first matching page.
type Rod struct {
	mu sync.Mutex

	browser  *rod.Browser
	launcher *launcher.Launcher
	pattern  glob.Glob
	opts     RodOptions
}

// ConnectRod attaches to the Chrome at opts.DebuggerURL, or launches one.
func ConnectRod(ctx context.Context, opts RodOptions) (*Rod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern := opts.TabPattern
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid tab pattern %q: %w", pattern, err)
	}

	r := &Rod{pattern: g, opts: opts}

	var wsURL string
	if opts.DebuggerURL != "" {
		wsURL, err = launcher.ResolveURL(opts.DebuggerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve debugger url: %w", err)
		}
	} else {
		l := launcher.New().Headless(opts.Headless)
		wsURL, err = l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
		r.launcher = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		r.cleanupLauncher()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	r.browser = b

	return r, nil
}

// ActivePage picks the tab commands should go to.
func (r *Rod) ActivePage(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	b := r.browser
	r.mu.Unlock()
	if b == nil {
		return nil, ErrNoActivePage
	}

	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	var fallback *rod.Page
	for _, p := range pages {
		info, err := p.Context(ctx).Info()
		if err != nil || !r.pattern.Match(info.URL) {
			continue
		}
		if fallback == nil {
			fallback = p
		}
		res, err := p.Context(ctx).Eval(`() => document.visibilityState`)
		if err == nil && res.Value.Str() == "visible" {
			return NewRodTab(p, r.opts.OutlineDuration), nil
		}
	}

	if fallback == nil {
		return nil, ErrNoActivePage
	}
	return NewRodTab(fallback, r.opts.OutlineDuration), nil
}

// Close disconnects from Chrome and stops it if it was launched here.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		if r.launcher != nil {
			err = r.browser.Close()
		}
		r.browser = nil
	}
	r.cleanupLauncher()
	return err
}

func (r *Rod) cleanupLauncher() {
	if r.launcher != nil {
		r.launcher.Cleanup()
		r.launcher = nil
	}
}

// RodTab is a Tab backed by a rod page.
type RodTab struct {
	scriptTab
	page *rod.Page
}

// NewRodTab wraps a rod page.
func NewRodTab(p *rod.Page, outlineDuration time.Duration) *RodTab {
	t := &RodTab{page: p}
	t.scriptTab = scriptTab{eval: t.evaluate, outlineDuration: outlineDuration}
	return t
}

func (t *RodTab) evaluate(ctx context.Context, script string, arg interface{}) (string, error) {
	res, err := t.page.Context(ctx).Eval(script, arg)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}
