// Package styles holds the terminal theme.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary lipgloss.Color
	Accent  lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// Kot is the default theme: the app's emerald on a dark slate.
var Kot = Theme{
	Name: "Kot",

	Background:    lipgloss.Color("#0f172a"),
	Foreground:    lipgloss.Color("#e2e8f0"),
	ForegroundDim: lipgloss.Color("#64748b"),

	Primary: lipgloss.Color("#10b981"),
	Accent:  lipgloss.Color("#38bdf8"),

	Success: lipgloss.Color("#34d399"),
	Warning: lipgloss.Color("#fbbf24"),
	Error:   lipgloss.Color("#f87171"),

	Border:      lipgloss.Color("#334155"),
	BorderFocus: lipgloss.Color("#10b981"),
	Selection:   lipgloss.Color("#1e293b"),
}

// Current holds the active theme
var Current = Kot

// MaxWidth caps the content width.
const MaxWidth = 80

// ContentWidth returns min(terminalWidth, MaxWidth).
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView centers content horizontally on terminals wider than MaxWidth.
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds the pre-computed styles.
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Subtitle   lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Done    lipgloss.Style
	Badge   lipgloss.Style
	Amount  lipgloss.Style
	Owed    lipgloss.Style
	Settled lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Panel lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Error     lipgloss.Style
	StatusBar lipgloss.Style
}

// NewStyles creates styles from the current theme.
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Subtitle: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			MarginTop(1),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Done: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		Badge: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Accent).
			Padding(0, 1),

		Amount: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		Owed: lipgloss.NewStyle().
			Foreground(t.Error),

		Settled: lipgloss.NewStyle().
			Foreground(t.Success),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
	}
}
