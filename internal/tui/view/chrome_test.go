package view

import (
	"regexp"
	"strings"
	"testing"
	"time"

	tuitheme "github.com/glabrego/soupdeck/internal/tui/theme"
)

var ansiStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiStrip.ReplaceAllString(s, "")
}

func TestToolbar(t *testing.T) {
	if got := Toolbar(false); !strings.Contains(got, "enter fetch") {
		t.Fatalf("unexpected compact toolbar: %q", got)
	}
	if got := Toolbar(true); !strings.Contains(got, "ctrl+r: auto refresh") {
		t.Fatalf("unexpected help toolbar: %q", got)
	}
}

func TestCompactFooter(t *testing.T) {
	th := tuitheme.Default()
	got := stripANSI(CompactFooter(FooterParams{
		Panels:      3,
		Focused:     1,
		AutoRefresh: true,
		Interval:    5 * time.Minute,
		PanelsFile:  "config.json",
	}, th))
	for _, want := range []string{"panels 3", "focus 2/3", "refresh every 5m0s", "file config.json"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in footer, got %q", want, got)
		}
	}

	got = stripANSI(CompactFooter(FooterParams{}, th))
	if !strings.Contains(got, "focus -") || !strings.Contains(got, "refresh off") {
		t.Fatalf("unexpected empty footer: %q", got)
	}
}

func TestCompactMessage(t *testing.T) {
	th := tuitheme.Default()
	if got := stripANSI(CompactMessage(0, "", th)); !strings.Contains(got, "state: idle | Ready") {
		t.Fatalf("unexpected idle message: %q", got)
	}
	if got := stripANSI(CompactMessage(2, "", th)); !strings.Contains(got, "state: fetching (2)") {
		t.Fatalf("unexpected busy message: %q", got)
	}
	if got := stripANSI(CompactMessage(0, "Added new panel", th)); !strings.Contains(got, "Added new panel") {
		t.Fatalf("unexpected status message: %q", got)
	}
}
