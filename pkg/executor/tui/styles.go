package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// This is the single source of truth for all panel colors.
var (
	skyBlue     = lipgloss.Color("#3B82F6") // Primary accent, matches the page outline
	indigo      = lipgloss.Color("#6366F1") // Secondary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // Success and high confidence
	amber       = lipgloss.Color("#FCD34D") // Medium confidence
	salmonPink  = lipgloss.Color("#FFB3BA") // Errors
	mutedGray   = lipgloss.Color("#6B7280") // Secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // Primary text
)

var (
	// Text Styles
	headerStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	titleStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	urlStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Underline(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	readyDotStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(skyBlue)

	// Confidence badges
	badgeStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true)

	highBadgeStyle   = badgeStyle.Foreground(lipgloss.Color("#064E3B")).Background(mintGreen)
	mediumBadgeStyle = badgeStyle.Foreground(lipgloss.Color("#78350F")).Background(amber)
	lowBadgeStyle    = badgeStyle.Foreground(brightWhite).Background(mutedGray)

	// Container Styles
	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(indigo).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Padding(0, 1)
)
