package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the day view.
type Theme struct {
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color
	Primary       lipgloss.Color
	Accent        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Border        lipgloss.Color
	Selection     lipgloss.Color

	// Block is the fill of user blocks without their own color.
	Block lipgloss.Color
	// Overlays maps read-only sources to their fill.
	Overlays map[string]lipgloss.Color
}

// TokyoNight is the default theme.
var TokyoNight = Theme{
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),
	Primary:       lipgloss.Color("#7aa2f7"),
	Accent:        lipgloss.Color("#7dcfff"),
	Success:       lipgloss.Color("#9ece6a"),
	Warning:       lipgloss.Color("#e0af68"),
	Error:         lipgloss.Color("#f7768e"),
	Border:        lipgloss.Color("#3b4261"),
	Selection:     lipgloss.Color("#33467c"),
	Block:         lipgloss.Color("#3d59a1"),
	Overlays: map[string]lipgloss.Color{
		"goal":     lipgloss.Color("#9d7cd8"),
		"meeting":  lipgloss.Color("#2ac3de"),
		"task":     lipgloss.Color("#ff9e64"),
		"timeline": lipgloss.Color("#73daca"),
		"post":     lipgloss.Color("#bb9af7"),
	},
}

// Styles holds the pre-computed styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Gutter   lipgloss.Style
	HourLine lipgloss.Style
	Entry    lipgloss.Style
	Done     lipgloss.Style
	Selected lipgloss.Style
	Preview  lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Prompt   lipgloss.Style
	Help     lipgloss.Style
	theme    Theme
}

// NewStyles derives styles from t.
func NewStyles(t Theme) *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),
		Subtitle: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
		Gutter: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),
		HourLine: lipgloss.NewStyle().
			Foreground(t.Border),
		Entry: lipgloss.NewStyle().
			Foreground(t.Foreground),
		Done: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),
		Selected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true).
			Underline(true),
		Preview: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Selection),
		Status: lipgloss.NewStyle().
			Foreground(t.Success).
			Padding(0, 1),
		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),
		Warning: lipgloss.NewStyle().
			Foreground(t.Warning).
			Padding(0, 1),
		Prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
		theme: t,
	}
}

// fill returns the background of an entry by source and color.
func (s *Styles) fill(source, color string) lipgloss.Color {
	if source == "" || source == "block" {
		if color != "" {
			return lipgloss.Color(color)
		}
		return s.theme.Block
	}
	if c, ok := s.theme.Overlays[source]; ok {
		return c
	}
	return s.theme.Border
}
