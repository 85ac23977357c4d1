package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/soupdeck/internal/panel"
)

type Theme struct {
	Title     lipgloss.Style
	ModePill  lipgloss.Style
	Section   lipgloss.Style
	MetaLabel lipgloss.Style
	MetaValue lipgloss.Style
	StateIdle lipgloss.Style
	StateWarn lipgloss.Style
	StateLoad lipgloss.Style
	Muted     lipgloss.Style

	PanelFocused lipgloss.Style
	PanelBlurred lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay0 := lipgloss.Color("#6c7086")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")
	cpSurface2 := lipgloss.Color("#585b70")

	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:  lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:   lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		MetaLabel: lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue: lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle: lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn: lipgloss.NewStyle().Foreground(cpRed),
		StateLoad: lipgloss.NewStyle().Foreground(cpPeach),
		Muted:     lipgloss.NewStyle().Foreground(cpOverlay0).Italic(true),

		PanelFocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cpMauve).Padding(0, 1),
		PanelBlurred: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cpSurface2).Padding(0, 1),
	}
}

// StyleState colours label by the panel state it describes.
func (t Theme) StyleState(state panel.State, label string) string {
	switch state {
	case panel.Fetched:
		return t.StateIdle.Render(label)
	case panel.Fetching:
		return t.StateLoad.Render(label)
	case panel.Failed:
		return t.StateWarn.Render(label)
	default:
		return t.MetaLabel.Render(label)
	}
}

func (t Theme) PanelFrame(focused bool) lipgloss.Style {
	if focused {
		return t.PanelFocused
	}
	return t.PanelBlurred
}
