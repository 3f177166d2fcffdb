package relay

import "github.com/entrhq/suzzy/pkg/page"

// CommandType discriminates the commands a page context understands.
type CommandType string

const (
	TypeExtractContent    CommandType = "EXTRACT_CONTENT"
	TypeHighlightText     CommandType = "HIGHLIGHT_TEXT"
	TypeNavigateToElement CommandType = "NAVIGATE_TO_ELEMENT"
)

// Command is a request to the active tab's page context.
type Command struct {
	Type     CommandType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Selector string      `json:"selector,omitempty"`
}

// ExtractContent asks the page for a fresh snapshot.
func ExtractContent() Command {
	return Command{Type: TypeExtractContent}
}

// HighlightText asks the page to mark elements containing text.
func HighlightText(text string) Command {
	return Command{Type: TypeHighlightText, Text: text}
}

// NavigateToElement asks the page to scroll to the element matching selector.
func NavigateToElement(selector string) Command {
	return Command{Type: TypeNavigateToElement, Selector: selector}
}

// Result is the page context's answer to a Command.
type Result struct {
	Success bool           `json:"success"`
	Content *page.Snapshot `json:"content,omitempty"`
	Matches *int           `json:"matches,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// envelope is a Command on the wire, tagged with a correlation id.
type envelope struct {
	ID string `json:"id"`
	Command
}

// reply is a Result on the wire, echoing the command's correlation id.
type reply struct {
	ID string `json:"id"`
	Result
}
