package page

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	headingSelector   = "h1, h2, h3, h4, h5, h6"
	paragraphSelector = `p, div[class*="content"], article p`
	linkSelector      = "a[href]"

	// minParagraphRunes is the exclusive lower bound on paragraph length.
	minParagraphRunes = 20
)

// Extract builds a snapshot from a parsed document.
//
// pageURL is the address the document was loaded from; it anchors relative
// links when the document has no <base href>. A nil root yields a snapshot
// carrying only the URL and timestamp.
func Extract(root *html.Node, pageURL string, now time.Time) Snapshot {
	snap := Snapshot{
		URL:        pageURL,
		Headings:   []Heading{},
		Paragraphs: []string{},
		Links:      []Link{},
		Timestamp:  FormatTimestamp(now),
	}
	if root == nil {
		return snap
	}

	doc := goquery.NewDocumentFromNode(root)
	snap.Title = collapseSpace(doc.Find("title").First().Text())

	doc.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		id, _ := s.Attr("id")
		snap.Headings = append(snap.Headings, Heading{
			Level: strings.ToLower(goquery.NodeName(s)),
			Text:  text,
			ID:    id,
		})
	})

	doc.Find(paragraphSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > minParagraphRunes {
			snap.Paragraphs = append(snap.Paragraphs, text)
		}
	})

	base := documentBase(doc, pageURL)
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		href, _ := s.Attr("href")
		abs := resolveHref(base, href)
		if abs == "" {
			return
		}
		title, _ := s.Attr("title")
		snap.Links = append(snap.Links, Link{Text: text, Href: abs, Title: title})
	})

	return snap
}

// ExtractHTML parses rawHTML and extracts a snapshot from it.
func ExtractHTML(rawHTML, pageURL string, now time.Time) Snapshot {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Extract(nil, pageURL, now)
	}
	return Extract(root, pageURL, now)
}

// documentBase returns the URL relative links resolve against.
func documentBase(doc *goquery.Document, pageURL string) *url.URL {
	page, err := url.Parse(pageURL)
	if err != nil {
		page = nil
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		b, err := url.Parse(strings.TrimSpace(href))
		if err == nil {
			if page != nil {
				return page.ResolveReference(b)
			}
			if b.IsAbs() {
				return b
			}
		}
	}
	return page
}

// resolveHref returns the absolute form of href, or "" when it has none.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" && base == nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return ""
	}
	return ref.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
