package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/render"
	"github.com/glabrego/soupdeck/internal/render/richtext"
	tuitheme "github.com/glabrego/soupdeck/internal/tui/theme"
)

type PanelHeaderParams struct {
	Index    int
	Snapshot panel.Snapshot
	Now      time.Time
	Width    int
	Focused  bool
}

// RenderPanelHeader draws the one-line summary above a panel's inputs.
func RenderPanelHeader(p PanelHeaderParams, th tuitheme.Theme) string {
	marker := " "
	if p.Focused {
		marker = ">"
	}
	title := th.Title.Render(fmt.Sprintf("%s Panel %d", marker, p.Index+1))
	state := th.StyleState(p.Snapshot.State, StateLabel(p.Snapshot, p.Now))
	modes := th.ModePill.Render(p.Snapshot.Settings.Match.String() + " · " + p.Snapshot.Settings.Display.String())

	left := title + " " + state
	gap := p.Width - lipgloss.Width(left) - lipgloss.Width(modes)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + modes
}

// StateLabel summarises a snapshot, e.g. "fetched 200 · 12 kB · 3 minutes ago".
func StateLabel(s panel.Snapshot, now time.Time) string {
	switch s.State {
	case panel.Fetched:
		parts := []string{"fetched"}
		if s.StatusCode > 0 {
			parts[0] += fmt.Sprintf(" %d", s.StatusCode)
		}
		parts = append(parts, humanize.Bytes(uint64(max(s.BodyBytes, 0))))
		if !s.FetchedAt.IsZero() {
			parts = append(parts, humanize.RelTime(s.FetchedAt, now, "ago", "from now"))
		}
		return strings.Join(parts, " · ")
	case panel.Failed:
		if s.StatusCode > 0 {
			return fmt.Sprintf("failed %d", s.StatusCode)
		}
		return "failed"
	default:
		return s.State.String()
	}
}

// OutputLines lays out a panel's rendered output for a viewport of the given
// width. Markup is drawn as rich text; the text modes are word wrapped.
func OutputLines(text string, mode render.DisplayMode, width int) []string {
	if width < 1 {
		width = 1
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if mode == render.Markup {
		return richtext.Lines(text, width)
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	lines := strings.Split(wrapped, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return lines
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Truncate shortens a single line to width cells.
func Truncate(s string, width int) string {
	return truncateRunes(s, width)
}
