package main

import (
	"context"
	"fmt"
	"io"

	appconfig "github.com/entrhq/suzzy/pkg/config"
	"github.com/entrhq/suzzy/pkg/page"
)

// closableSource is a page source that holds a browser or driver open.
type closableSource interface {
	page.Source
	io.Closer
}

// staticSource serves a document loaded once at startup.
type staticSource struct {
	page.Source
}

func (staticSource) Close() error { return nil }

// openSource connects the configured driver.
func openSource(ctx context.Context, b appconfig.BrowserSettings) (closableSource, error) {
	switch b.Driver {
	case appconfig.DriverStatic:
		if b.StartURL == "" {
			return nil, fmt.Errorf("the static driver needs a page: pass -url")
		}
		doc, err := page.Load(ctx, b.StartURL, page.LoadOptions{Timeout: b.NavigationTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", b.StartURL, err)
		}
		return staticSource{page.Fixed(doc)}, nil

	case appconfig.DriverPlaywright:
		pw, err := page.LaunchPlaywright(ctx, page.PlaywrightOptions{
			Headless:          b.Headless,
			StartURL:          b.StartURL,
			NavigationTimeout: b.NavigationTimeout,
		})
		if err != nil {
			return nil, err
		}
		return pw, nil

	case appconfig.DriverRod:
		r, err := page.ConnectRod(ctx, page.RodOptions{
			DebuggerURL: b.DebuggerURL,
			Headless:    b.Headless,
			TabPattern:  b.TabPattern,
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown driver %q", b.Driver)
	}
}
