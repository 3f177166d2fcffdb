package page

import "time"

// TimestampLayout is the ISO-8601 UTC layout with millisecond precision used for Snapshot.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Snapshot is a point-in-time structured extraction of a page.
//
// Snapshots are created fresh per extraction and passed by value; nothing
// mutates one after Extract returns it.
type Snapshot struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Headings   []Heading `json:"headings"`
	Paragraphs []string  `json:"paragraphs"`
	Links      []Link    `json:"links"`
	Timestamp  string    `json:"timestamp"`
}

// Heading is an h1..h6 element with non-empty text.
type Heading struct {
	Level string `json:"level"` // lower-case tag name, e.g. "h2"
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Link is an anchor with visible text and an absolute href.
type Link struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// IsEmpty reports whether the snapshot carries no page content.
func (s Snapshot) IsEmpty() bool {
	return s.Title == "" && len(s.Headings) == 0 && len(s.Paragraphs) == 0 && len(s.Links) == 0
}
