package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/hunkr/internal/model"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorCyan      = lipgloss.Color("#8be9fd")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// File list styles
	fileListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	fileItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	fileItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	fileItemDoneStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	fileItemRejectedStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	// Diff view styles
	diffViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	addedLineStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	deletedLineStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	contextLineStyle = lipgloss.NewStyle().
				Foreground(colorFg)

	hunkHeaderStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	hunkCurrentStyle = lipgloss.NewStyle().
				Foreground(colorOrange).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	fileHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusErrStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Background(colorBgLight)

	// Help bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// badgeStyles color the review status badge of a hunk.
var badgeStyles = map[model.ReviewStatus]lipgloss.Style{
	model.ReviewPending:       lipgloss.NewStyle().Foreground(colorDim),
	model.ReviewTrusted:       lipgloss.NewStyle().Foreground(colorCyan),
	model.ReviewApproved:      lipgloss.NewStyle().Foreground(colorGreen).Bold(true),
	model.ReviewRejected:      lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	model.ReviewSavedForLater: lipgloss.NewStyle().Foreground(colorYellow),
}

func badge(s model.ReviewStatus) string {
	return badgeStyles[s].Render("[" + s.String() + "]")
}
