// Package styles provides the shared lipgloss styles of the margin CLI.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
	"plain": {},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	HeaderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	MutedStyle   lipgloss.Style

	// Thread tree styles.
	AuthorStyle     lipgloss.Style
	CommentStyle    lipgloss.Style
	ResolvedStyle   lipgloss.Style
	EditingStyle    lipgloss.Style
	ChangeStyle     lipgloss.Style
	EnumeratorStyle lipgloss.Style
)

func init() {
	p, _ := GetPalette(DefaultTheme)
	SetTheme(p)
}

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	AuthorStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	CommentStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	ResolvedStyle = lipgloss.NewStyle().Foreground(p.Muted).Strikethrough(true)
	EditingStyle = lipgloss.NewStyle().Foreground(p.Warning).Italic(true)
	ChangeStyle = lipgloss.NewStyle().Foreground(p.Primary)
	EnumeratorStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginRight(1)
}
