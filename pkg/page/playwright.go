package page

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures a Chromium launched through playwright-go.
type PlaywrightOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// StartURL is opened in the first page; empty leaves about:blank
	StartURL string

	// NavigationTimeout bounds page loads (0 means playwright's default)
	NavigationTimeout time.Duration

	// OutlineDuration is how long Navigate outlines an element
	OutlineDuration time.Duration
}

// Playwright is a Source backed by a Chromium instance driven by playwright-go.
//
// The active page is the most recently opened page that is still open.
type Playwright struct {
	mu sync.Mutex

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    PlaywrightOptions
}

// LaunchPlaywright installs the driver if needed, launches Chromium and opens
// a first page at opts.StartURL.
func LaunchPlaywright(ctx context.Context, opts PlaywrightOptions) (*Playwright, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Discard driver output so it cannot interfere with the TUI
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	p := &Playwright{pw: pw, browser: browser, context: bctx, opts: opts}

	pg, err := bctx.NewPage()
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if opts.NavigationTimeout > 0 {
		pg.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout.Milliseconds()))
	}

	if opts.StartURL != "" {
		waitUntil := playwright.WaitUntilStateDomcontentloaded
		if _, err := pg.Goto(opts.StartURL, playwright.PageGotoOptions{WaitUntil: waitUntil}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("navigation failed: %w", err)
		}
	}

	return p, nil
}

// ActivePage returns the most recently opened page that is still open.
func (p *Playwright) ActivePage(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.context == nil {
		return nil, ErrNoActivePage
	}

	pages := p.context.Pages()
	for i := len(pages) - 1; i >= 0; i-- {
		if !pages[i].IsClosed() {
			return NewPlaywrightTab(pages[i], p.opts.OutlineDuration), nil
		}
	}
	return nil, ErrNoActivePage
}

// Close shuts down the browser and the playwright driver.
func (p *Playwright) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.context != nil {
		_ = p.context.Close() // Ignore errors, continue cleanup
		p.context = nil
	}
	if p.browser != nil {
		_ = p.browser.Close() // Ignore errors, continue cleanup
		p.browser = nil
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		p.pw = nil
	}
	return nil
}

// PlaywrightTab is a Tab backed by a playwright page.
type PlaywrightTab struct {
	scriptTab
	page playwright.Page
}

// NewPlaywrightTab wraps an open playwright page.
func NewPlaywrightTab(pg playwright.Page, outlineDuration time.Duration) *PlaywrightTab {
	t := &PlaywrightTab{page: pg}
	t.scriptTab = scriptTab{eval: t.evaluate, outlineDuration: outlineDuration}
	return t
}

// URL returns the page's current URL.
func (t *PlaywrightTab) URL() string {
	return t.page.URL()
}

func (t *PlaywrightTab) evaluate(ctx context.Context, script string, arg interface{}) (string, error) {
	if t.page.IsClosed() {
		return "", ErrNoActivePage
	}

	type result struct {
		value interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := t.page.Evaluate(script, arg)
		done <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		s, ok := r.value.(string)
		if !ok {
			return "", fmt.Errorf("script returned %T, want string", r.value)
		}
		return s, nil
	}
}
