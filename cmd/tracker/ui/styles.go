// Package ui implements the interactive terminal views for the tracker
// client: the paginated list controller, record detail, the process-flow
// board, and the app shell that ties them together.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode colors
	LightBackground = lipgloss.Color("#f5f6f7")
	LightForeground = lipgloss.Color("#1a2633")
	LightPrimary    = lipgloss.Color("#1f4e79") // steel blue
	LightAccent     = lipgloss.Color("#e8a13c") // amber
	LightSecondary  = lipgloss.Color("#e3e6ea")
	LightMuted      = lipgloss.Color("#7a8693")
	LightBorder     = lipgloss.Color("#d7dce2")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark mode colors
	DarkBackground = lipgloss.Color("#10161f")
	DarkForeground = lipgloss.Color("#e8eaed")
	DarkPrimary    = lipgloss.Color("#7fb2e5")
	DarkAccent     = lipgloss.Color("#e8a13c")
	DarkSecondary  = lipgloss.Color("#1b2533")
	DarkMuted      = lipgloss.Color("#8593a2")
	DarkBorder     = lipgloss.Color("#2a3645")
	DarkCard       = lipgloss.Color("#171f2b")

	// Semantic colors, same in both modes
	Destructive = lipgloss.Color("#d64545")
	Success     = lipgloss.Color("#3fae6a")
	Warning     = lipgloss.Color("#e8a13c")
	Info        = lipgloss.Color("#4a9edb")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// ThemeByName resolves a configured theme name. Anything other than
// "light" or "dark" falls back to terminal detection.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// DetectTheme guesses the terminal background from COLORFGBG and the
// TRACKER_DARK_MODE override, defaulting to light.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		// Format is "foreground;background"; ANSI indexes 0-6 and 8 are
		// the usual dark backgrounds.
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}
	if os.Getenv("TRACKER_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	// Layout
	App     lipgloss.Style
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Table
	TableHeader  lipgloss.Style
	TableRow     lipgloss.Style
	TableRowSel  lipgloss.Style
	TableDivider lipgloss.Style
	Skeleton     lipgloss.Style

	// Controls
	SearchPrompt lipgloss.Style
	FilterOn     lipgloss.Style
	FilterOff    lipgloss.Style
	MenuTitle    lipgloss.Style
	MenuItem     lipgloss.Style
	MenuItemSel  lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Badge   lipgloss.Style
	Dialog  lipgloss.Style
}

// NewStyles creates a Styles instance for the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		App: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Content: lipgloss.NewStyle().
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		TableHeader: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		TableRow: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 1),

		TableRowSel: lipgloss.NewStyle().
			Foreground(theme.Background).
			Background(theme.Accent).
			Bold(true).
			Padding(0, 1),

		TableDivider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Skeleton: lipgloss.NewStyle().
			Foreground(theme.Border),

		SearchPrompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		FilterOn: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		FilterOff: lipgloss.NewStyle().
			Foreground(theme.Muted),

		MenuTitle: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		MenuItem: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 2),

		MenuItemSel: lipgloss.NewStyle().
			Foreground(theme.Background).
			Background(theme.Accent).
			Bold(true).
			Padding(0, 2),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, 3),
	}
}

// DefaultStyles returns styles with the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal divider.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.TableDivider.Render(strings.Repeat("─", width))
}
