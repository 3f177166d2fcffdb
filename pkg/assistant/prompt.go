package assistant

import (
	"fmt"
	"strings"

	"github.com/entrhq/suzzy/pkg/page"
	"github.com/entrhq/suzzy/pkg/types"
)

const (
	// MaxPromptParagraphs caps how many snapshot paragraphs reach the model.
	MaxPromptParagraphs = 5

	// MaxPromptLinks caps how many snapshot links reach the model.
	MaxPromptLinks = 10
)

// SystemPrompt sets the assistant persona and the JSON reply contract.
const SystemPrompt = `You are Suzzy, a smart web assistant. Your job is to help users navigate and understand web pages.

Given the page content below, analyze the user's query and respond with a JSON object containing:
- "answer": A helpful response to the user's question
- "confidence": A number between 0 and 1 indicating your confidence
- "sources": Array of relevant text snippets from the page that support your answer
- "action": Either "highlight", "navigate", or null
- "target": If action is "highlight", provide text to highlight. If "navigate", provide the link href or element to navigate to.

For navigation requests (like "take me to", "go to", "find"), try to identify relevant links or sections.
For questions, provide informative answers based on the page content.

Respond ONLY with valid JSON, no other text.`

// Summarize renders the part of a snapshot that is sent to the model.
func Summarize(snap page.Snapshot) string {
	lines := []string{
		"Page Title: " + snap.Title,
		"URL: " + snap.URL,
		"",
		"Headings:",
	}
	for _, h := range snap.Headings {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Level, h.Text))
	}

	lines = append(lines, "", "Content:")
	paragraphs := snap.Paragraphs
	if len(paragraphs) > MaxPromptParagraphs {
		paragraphs = paragraphs[:MaxPromptParagraphs]
	}
	lines = append(lines, paragraphs...)

	lines = append(lines, "", "Links:")
	links := snap.Links
	if len(links) > MaxPromptLinks {
		links = links[:MaxPromptLinks]
	}
	for _, l := range links {
		lines = append(lines, fmt.Sprintf("- %s: %s", l.Text, l.Href))
	}

	return strings.Join(lines, "\n")
}

// BuildMessages returns the system and user messages for a query about snap.
func BuildMessages(query string, snap page.Snapshot) []*types.Message {
	user := fmt.Sprintf("Page Content:\n%s\n\nUser Query: %s", Summarize(snap), query)
	return []*types.Message{
		types.NewSystemMessage(SystemPrompt),
		types.NewUserMessage(user),
	}
}
