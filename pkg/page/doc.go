// Package page implements the page context: reading a structured snapshot
// of the active page and acting on it (highlighting text, scrolling to an
// element).
//
// Three Tab implementations share the same behavior:
//
//   - Document: a parsed HTML document held in memory (static driver, tests)
//   - PlaywrightTab: a page in a Chromium launched through playwright-go
//   - RodTab: a page of an already-running Chrome reached over its DevTools endpoint
//
// Live tabs evaluate small embedded scripts in the page and hand the
// serialized DOM back to Go, so extraction rules live in one place (Extract)
// regardless of the driver.
//
// Basic usage:
//
//	doc, err := page.NewDocument(strings.NewReader(html), "https://example.com")
//	if err != nil {
//	    return err
//	}
//	snap, _ := doc.Extract(ctx)
//	matches, _ := doc.Highlight(ctx, "pricing")
//	err = doc.Navigate(ctx, "#faq")
package page
