package page

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	// HighlightClass marks elements matched by Highlight.
	HighlightClass = "suzzy-highlight"

	// HighlightStyleID is the id of the injected highlight stylesheet.
	HighlightStyleID = "suzzy-styles"

	// OutlineStyle is applied to the element Navigate scrolls to.
	OutlineStyle = "3px solid #3b82f6"

	// DefaultOutlineDuration is how long the Navigate outline stays on.
	DefaultOutlineDuration = 2 * time.Second
)

const highlightCSS = `
.suzzy-highlight {
  background-color: #fef08a !important;
  padding: 2px 4px !important;
  border-radius: 3px !important;
  box-shadow: 0 0 0 2px #eab308 !important;
  transition: all 0.3s ease !important;
}
`

// Document is an in-memory page context backed by goquery.
//
// There is no viewport, so scrolling is recorded rather than performed:
// ScrollCount and LastScrolled expose what a real tab would have done.
type Document struct {
	mu sync.Mutex

	doc *goquery.Document
	url string

	now             func() time.Time
	outlineDuration time.Duration

	scrolls      int
	lastScrolled *html.Node

	// outlineGen invalidates pending outline timers when a newer Navigate lands.
	outlineGen int
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithClock sets the clock used for snapshot timestamps.
func WithClock(now func() time.Time) DocumentOption {
	return func(d *Document) {
		if now != nil {
			d.now = now
		}
	}
}

// WithOutlineDuration sets how long the Navigate outline stays on.
func WithOutlineDuration(duration time.Duration) DocumentOption {
	return func(d *Document) {
		d.outlineDuration = duration
	}
}

// NewDocument parses HTML from r. pageURL is the address the document was loaded from.
func NewDocument(r io.Reader, pageURL string, opts ...DocumentOption) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &Document{
		doc:             goquery.NewDocumentFromNode(root),
		url:             pageURL,
		now:             time.Now,
		outlineDuration: DefaultOutlineDuration,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// URL returns the address the document was loaded from.
func (d *Document) URL() string {
	return d.url
}

// Extract returns a snapshot of the document.
func (d *Document) Extract(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return Extract(d.doc.Nodes[0], d.url, d.now()), nil
}

// Highlight marks every element whose text contains text, case-insensitively.
//
// Ancestors of a match contain the same text and are marked too.
func (d *Document) Highlight(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.doc.Find("." + HighlightClass).RemoveClass(HighlightClass)
	d.ensureHighlightStyle()

	needle := strings.ToLower(text)
	if needle == "" {
		return 0, nil
	}

	var first *html.Node
	matches := 0
	d.doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(strings.ToLower(s.Text()), needle) {
			return
		}
		s.AddClass(HighlightClass)
		matches++
		if first == nil {
			first = s.Get(0)
		}
	})

	if first != nil {
		d.scrollTo(first)
	}
	return matches, nil
}

// Navigate scrolls to the first element matching selector and outlines it.
func (d *Document) Navigate(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.FindMatcher(sel).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	d.scrollTo(target.Get(0))
	d.outline(target)
	return nil
}

// Highlighted returns the currently marked elements.
func (d *Document) Highlighted() *goquery.Selection {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.doc.Find("." + HighlightClass).Clone()
}

// Outlined returns the element currently carrying the Navigate outline.
func (d *Document) Outlined() *goquery.Selection {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.doc.Find(outlinedSelector).Clone()
}

// ScrollCount returns how many times the document has been scrolled.
func (d *Document) ScrollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.scrolls
}

// LastScrolled returns the outer HTML of the element last scrolled into view.
func (d *Document) LastScrolled() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastScrolled == nil {
		return ""
	}
	out, err := goquery.OuterHtml(goquery.NewDocumentFromNode(d.lastScrolled).Selection)
	if err != nil {
		return ""
	}
	return out
}

// scrollTo records a scroll. Callers hold d.mu.
func (d *Document) scrollTo(n *html.Node) {
	d.scrolls++
	d.lastScrolled = n
}

// ensureHighlightStyle injects the highlight stylesheet once. Callers hold d.mu.
func (d *Document) ensureHighlightStyle() {
	if d.doc.Find("#"+HighlightStyleID).Length() > 0 {
		return
	}
	container := d.doc.Find("head").First()
	if container.Length() == 0 {
		container = d.doc.Find("html").First()
	}
	container.AppendHtml(`<style id="` + HighlightStyleID + `">` + highlightCSS + `</style>`)
}

// outline applies the Navigate outline and schedules its removal. Callers hold d.mu.
func (d *Document) outline(target *goquery.Selection) {
	d.doc.Find(outlinedSelector).Each(func(_ int, s *goquery.Selection) {
		restoreStyle(s)
	})

	prior, hadStyle := target.Attr("style")
	if hadStyle {
		target.SetAttr(priorStyleAttr, prior)
	}
	target.SetAttr("style", joinStyle(prior, "outline: "+OutlineStyle))
	target.SetAttr(outlinedAttr, "")

	d.outlineGen++
	gen := d.outlineGen
	node := target.Get(0)
	time.AfterFunc(d.outlineDuration, func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.outlineGen != gen {
			return
		}
		restoreStyle(goquery.NewDocumentFromNode(node).Selection)
	})
}

const (
	outlinedAttr     = "data-suzzy-outlined"
	outlinedSelector = "[" + outlinedAttr + "]"
	priorStyleAttr   = "data-suzzy-prior-style"
)

func restoreStyle(s *goquery.Selection) {
	if prior, ok := s.Attr(priorStyleAttr); ok {
		s.SetAttr("style", prior)
		s.RemoveAttr(priorStyleAttr)
	} else {
		s.RemoveAttr("style")
	}
	s.RemoveAttr(outlinedAttr)
}

func joinStyle(prior, decl string) string {
	prior = strings.TrimSpace(prior)
	if prior == "" {
		return decl
	}
	if !strings.HasSuffix(prior, ";") {
		prior += ";"
	}
	return prior + " " + decl
}
