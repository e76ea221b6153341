package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Dark palette, "Wrath of the Lich King"
const (
	ColorMidnightBlack = "#0A001F" // Background
	ColorIceBlue       = "#81A1C1" // Primary UI/Text
	ColorSteelGray     = "#4C566A" // Panels/Borders
	ColorPaleBlue      = "#8FBCBB" // Graphs/Normal Metrics
	ColorBloodCrimson  = "#C41E3A" // Alerts/Errors
	ColorRunicGold     = "#EBCB8B" // Focus/Pending
	ColorFelGreen      = "#A3BE8C" // Running
)

type Theme struct {
	Name       string
	Background string
	Foreground string
	Border     string
	Chart      string
	Alert      string
	Accent     string
	Success    string
}

var themes = map[string]Theme{
	"dark": {
		Name:       "dark",
		Background: ColorMidnightBlack,
		Foreground: ColorIceBlue,
		Border:     ColorSteelGray,
		Chart:      ColorPaleBlue,
		Alert:      ColorBloodCrimson,
		Accent:     ColorRunicGold,
		Success:    ColorFelGreen,
	},
	"light": {
		Name:       "light",
		Background: "#ECEFF4",
		Foreground: "#2E3440",
		Border:     "#9AA5B8",
		Chart:      "#5E81AC",
		Alert:      "#BF616A",
		Accent:     "#D08770",
		Success:    "#4C7A3D",
	},
	"mono": {
		Name:       "mono",
		Background: "#000000",
		Foreground: "#D0D0D0",
		Border:     "#606060",
		Chart:      "#A0A0A0",
		Alert:      "#FFFFFF",
		Accent:     "#FFFFFF",
		Success:    "#D0D0D0",
	},
}

// ThemeByName falls back to the dark theme for unknown names.
func ThemeByName(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["dark"]
}

// Lighten blends hex towards white by factor in [0, 1]. Unparseable colors
// are returned unchanged.
func Lighten(hex string, factor float64) string {
	return blend(hex, colorful.Color{R: 1, G: 1, B: 1}, factor)
}

// Darken blends hex towards black by factor in [0, 1].
func Darken(hex string, factor float64) string {
	return blend(hex, colorful.Color{}, factor)
}

func blend(hex string, to colorful.Color, factor float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	factor = max(0, min(1, factor))
	return c.BlendRgb(to, factor).Clamped().Hex()
}

// Styles is the full set of lipgloss styles derived from one Theme.
type Styles struct {
	Theme Theme

	Base        lipgloss.Style
	Title       lipgloss.Style
	Text        lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	Alert       lipgloss.Style
	Pending     lipgloss.Style
	Bar         lipgloss.Style
	AlertBar    lipgloss.Style

	Card        lipgloss.Style
	FocusedCard lipgloss.Style
	ExitedCard  lipgloss.Style
	Panel       lipgloss.Style

	GlyphActive lipgloss.Style
	GlyphStub   lipgloss.Style
	GlyphExited lipgloss.Style

	Header lipgloss.Style
	Footer lipgloss.Style
}

func NewStyles(t Theme) Styles {
	fg := lipgloss.Color(t.Foreground)
	border := lipgloss.Color(t.Border)

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return Styles{
		Theme: t,

		Base:        lipgloss.NewStyle().Background(lipgloss.Color(t.Background)).Foreground(fg),
		Title:       lipgloss.NewStyle().Foreground(fg).Bold(true),
		Text:        lipgloss.NewStyle().Foreground(fg),
		MetricLabel: lipgloss.NewStyle().Foreground(border),
		MetricValue: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chart)),
		Alert:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Alert)).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)).Italic(true),
		Bar:         lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chart)),
		AlertBar:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Alert)),

		Card:        card,
		FocusedCard: card.BorderForeground(lipgloss.Color(Lighten(t.Accent, 0.2))),
		ExitedCard:  card.BorderForeground(lipgloss.Color(Darken(t.Border, 0.4))),
		Panel:       card,

		GlyphActive: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		GlyphStub:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		GlyphExited: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Alert)),

		Header: lipgloss.NewStyle().Foreground(fg).Bold(true),
		Footer: lipgloss.NewStyle().
			Background(border).
			Foreground(lipgloss.Color(t.Background)).
			Padding(0, 1),
	}
}
