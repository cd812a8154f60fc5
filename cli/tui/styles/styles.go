package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 2
	MaxTextareaHeight    = 8
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Memory list
	MinListWidth = 24
	MaxListWidth = 40

	// Viewports
	MinViewportHeight = 3

	// Layout
	InputBorderHeight  = 2
	HeaderHeight       = 1
	StatusHeight       = 1
	PaneBorderHeight   = 2
	MessagePaddingLeft = 2

	// Truncation
	TruncateSuffix = "…"
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#06B6D4") // Cyan
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	SuccessColor   = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	MutedColor     = lipgloss.Color("#6B7280") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light gray
	DimTextColor   = lipgloss.Color("#9CA3AF") // Dim gray
	TagColor       = lipgloss.Color("#F472B6") // Pink
	BorderColor    = lipgloss.Color("#4B5563")
	FocusColor     = lipgloss.Color("#10B981")
)

// Title bar
var (
	TitleStyle = lipgloss.NewStyle().
		Background(PrimaryColor).
		Foreground(TextColor).
		Bold(true)
)

// Panes
var (
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor)

	FocusedPaneStyle = lipgloss.NewStyle().
				Inherit(PaneStyle).
				BorderForeground(FocusColor)
)

// Memory list
var (
	ListItemStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	ActiveItemStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	CursorStyle = lipgloss.NewStyle().
			Foreground(FocusColor).
			Bold(true)

	TagStyle = lipgloss.NewStyle().
			Foreground(TagColor)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)
)

// Messages.
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(PrimaryColor).
				MarginLeft(6)

	AIMessageStyle = lipgloss.NewStyle().
			Inherit(messageStyle).
			BorderForeground(SecondaryColor).
			MarginRight(6)

	ThinkingStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Italic(true).
			PaddingLeft(MessagePaddingLeft)
)

// Status line
var (
	StatusStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		PaddingLeft(TextAreaPaddingLeft)
)

// Spinner
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor)
)

// MessageHorizontalFrameSize returns the horizontal frame size of AI messages.
func MessageHorizontalFrameSize() int {
	return AIMessageStyle.GetHorizontalFrameSize()
}

// Truncate shortens s to maxLen runes, suffix included.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return TruncateSuffix
	}
	return string(runes[:maxLen-1]) + TruncateSuffix
}
