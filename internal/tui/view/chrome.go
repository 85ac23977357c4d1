package view

import (
	"fmt"
	"strings"
	"time"

	tuitheme "github.com/glabrego/soupdeck/internal/tui/theme"
)

func Toolbar(helpMode bool) string {
	if helpMode {
		return "tab/shift+tab: next/prev field | enter: fetch panel | ctrl+n: add panel | ctrl+x: remove bottom panel | ctrl+a: fetch all | ctrl+t: css/text match | ctrl+d: markup/plain/clean | ctrl+s: save config | ctrl+l: load config | ctrl+r: auto refresh | ctrl+y: copy output | ctrl+o: open URL | pgup/pgdown: scroll output | f1: help | esc: quit"
	}
	return "tab move | enter fetch | ctrl+n add | ctrl+x remove | ctrl+a all | ctrl+s save | ctrl+l load | f1 help"
}

type FooterParams struct {
	Panels      int
	Focused     int
	AutoRefresh bool
	Interval    time.Duration
	PanelsFile  string
}

func CompactFooter(p FooterParams, th tuitheme.Theme) string {
	focus := "-"
	if p.Panels > 0 {
		focus = fmt.Sprintf("%d/%d", p.Focused+1, p.Panels)
	}
	refresh := "off"
	if p.AutoRefresh {
		refresh = "every " + p.Interval.String()
	}
	parts := []string{
		th.MetaLabel.Render("panels") + " " + th.MetaValue.Render(fmt.Sprintf("%d", p.Panels)),
		th.MetaLabel.Render("focus") + " " + th.MetaValue.Render(focus),
		th.MetaLabel.Render("refresh") + " " + th.MetaValue.Render(refresh),
	}
	if p.PanelsFile != "" {
		parts = append(parts, th.MetaLabel.Render("file")+" "+th.MetaValue.Render(p.PanelsFile))
	}
	return strings.Join(parts, " • ")
}

func CompactMessage(busy int, status string, th tuitheme.Theme) string {
	state := "idle"
	stateLabel := th.StateIdle.Render("state")
	if busy > 0 {
		state = fmt.Sprintf("fetching (%d)", busy)
		stateLabel = th.StateLoad.Render("state")
	}
	main := "Ready"
	if status != "" {
		main = status
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}
