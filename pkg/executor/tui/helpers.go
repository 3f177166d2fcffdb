package tui

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/suzzy/pkg/assistant"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// getRandomLoadingMessage returns a loading message to show while waiting for an answer
func getRandomLoadingMessage() string {
	messages := []string{
		"Thinking...",
		"Reading the page...",
		"Skimming paragraphs...",
		"Following the links...",
		"Consulting the headings...",
		"Looking for the answer...",
		"Connecting the dots...",
		"Asking the model...",
	}
	return messages[rand.Intn(len(messages))] //nolint:gosec
}

// formatTokenCount formats a token count with K/M suffixes for readability
func formatTokenCount(count int) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// confidenceBadge renders "<n>% confident" colored by confidence band.
func confidenceBadge(resp assistant.Response) string {
	label := fmt.Sprintf("%d%% confident", resp.ConfidencePercent())
	switch {
	case resp.Confidence > 0.7:
		return highBadgeStyle.Render(label)
	case resp.Confidence > 0.5:
		return mediumBadgeStyle.Render(label)
	default:
		return lowBadgeStyle.Render(label)
	}
}

// styleURLs underlines every http(s) URL in text.
func styleURLs(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(u string) string {
		return urlStyle.Render(u)
	})
}

// truncate shortens s to n runes followed by "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// wordWrap wraps text to fit within the specified width while preserving paragraph breaks
func wordWrap(text string, width int) string {
	if width <= 0 {
		width = 80
	}

	var result strings.Builder
	paragraphs := strings.Split(text, "\n")

	firstPara := true
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if !firstPara {
			result.WriteString("\n")
		}
		firstPara = false

		currentLine := ""
		for _, word := range strings.Fields(para) {
			// Break words that cannot fit on any line
			for lipgloss.Width(word) > width {
				if currentLine != "" {
					result.WriteString(currentLine + "\n")
					currentLine = ""
				}
				head, rest := splitAtWidth(word, width)
				result.WriteString(head + "\n")
				word = rest
			}

			switch {
			case currentLine == "":
				currentLine = word
			case lipgloss.Width(currentLine)+1+lipgloss.Width(word) > width:
				result.WriteString(currentLine + "\n")
				currentLine = word
			default:
				currentLine += " " + word
			}
		}

		if currentLine != "" {
			result.WriteString(currentLine)
		}
	}

	return result.String()
}

// splitAtWidth cuts s after the last rune that keeps the head within width
// display cells. The head always holds at least one rune.
func splitAtWidth(s string, width int) (head, rest string) {
	cells := 0
	for i, r := range s {
		w := lipgloss.Width(string(r))
		if cells+w > width && i > 0 {
			return s[:i], s[i:]
		}
		cells += w
	}
	return s, ""
}
