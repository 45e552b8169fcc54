package viz

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme defines the panel colours and how variant colours are picked.
type Theme struct {
	Name       string
	Accent     lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Warning    lipgloss.Color
	Saturation float64
	Value      float64
}

var (
	ThemeVivid = Theme{
		Name:       "vivid",
		Accent:     lipgloss.Color("#00ffff"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Warning:    lipgloss.Color("#ff8800"),
		Saturation: 1,
		Value:      1,
	}

	ThemePastel = Theme{
		Name:       "pastel",
		Accent:     lipgloss.Color("#ff9ff3"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b8c"),
		Warning:    lipgloss.Color("#ffc048"),
		Saturation: 0.45,
		Value:      1,
	}

	ThemeDim = Theme{
		Name:       "dim",
		Accent:     lipgloss.Color("#0077be"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Warning:    lipgloss.Color("#ffcc00"),
		Saturation: 0.8,
		Value:      0.65,
	}

	Themes = []Theme{
		ThemeVivid,
		ThemePastel,
		ThemeDim,
	}
)

// GetTheme returns a theme by name, falling back to vivid.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeVivid
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Palette returns one colour per variant with evenly spaced hues, starting
// at red. Three variants give red, green and blue.
func (t Theme) Palette(variants int) []lipgloss.Color {
	p := make([]lipgloss.Color, variants)
	for i := range p {
		h := float64(i) / float64(variants) * 360
		p[i] = lipgloss.Color(colorful.Hsv(h, t.Saturation, t.Value).Hex())
	}
	return p
}
