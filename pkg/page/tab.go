package page

import (
	"context"
	"errors"
)

var (
	// ErrElementNotFound is returned by Navigate when no element matches the selector.
	ErrElementNotFound = errors.New("element not found")

	// ErrInvalidSelector is returned by Navigate when the selector cannot be parsed.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrNoActivePage is returned by a Source that has no page to offer.
	ErrNoActivePage = errors.New("no active page")
)

// Tab is the page context of a single browser tab.
type Tab interface {
	// Extract returns a fresh snapshot of the page.
	Extract(ctx context.Context) (Snapshot, error)

	// Highlight clears all prior highlights, marks every element whose text
	// contains text (case-insensitive) and scrolls the first one into view.
	// It returns the number of marked elements.
	Highlight(ctx context.Context, text string) (int, error)

	// Navigate scrolls the first element matching selector into view and
	// outlines it briefly.
	Navigate(ctx context.Context, selector string) error
}

// Source resolves the tab that commands should go to.
type Source interface {
	ActivePage(ctx context.Context) (Tab, error)
}

// Fixed returns a Source that always resolves to tab.
func Fixed(tab Tab) Source {
	return fixedSource{tab: tab}
}

type fixedSource struct {
	tab Tab
}

func (s fixedSource) ActivePage(ctx context.Context) (Tab, error) {
	if s.tab == nil {
		return nil, ErrNoActivePage
	}
	return s.tab, nil
}
