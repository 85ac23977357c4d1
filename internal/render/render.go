// Package render turns extracted markup into the text a panel displays.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glabrego/soupdeck/internal/document"
)

type DisplayMode int

const (
	// Markup is shown as rich text by the host.
	Markup DisplayMode = iota
	// PlainText shows the markup literally, tags included.
	PlainText
	// CleanText keeps only the text nodes, one run per line.
	CleanText
)

var displayModeNames = [...]string{"markup", "plain", "clean"}

func (m DisplayMode) String() string {
	if m < Markup || m > CleanText {
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
	return displayModeNames[m]
}

func (m DisplayMode) Valid() bool { return m >= Markup && m <= CleanText }

// Next cycles markup -> plain -> clean -> markup.
func (m DisplayMode) Next() DisplayMode {
	return (m + 1) % (CleanText + 1)
}

// ParseDisplayMode maps the persisted integer code to a mode.
func ParseDisplayMode(code int) (DisplayMode, error) {
	m := DisplayMode(code)
	if !m.Valid() {
		return Markup, fmt.Errorf("display mode must be 0, 1 or 2: %d", code)
	}
	return m, nil
}

func ParseDisplayModeName(name string) (DisplayMode, error) {
	for i, n := range displayModeNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return DisplayMode(i), nil
		}
	}
	return Markup, fmt.Errorf("display mode must be markup, plain or clean: %s", name)
}

var reBlankRun = regexp.MustCompile(`[\n ]+`)

// Render is pure; calling it never changes the markup it was given.
func Render(markup string, mode DisplayMode) string {
	switch mode {
	case CleanText:
		return CleanTextOf(markup)
	default:
		return markup
	}
}

// CleanTextOf re-parses markup and returns its text with every run of
// newlines and spaces collapsed into a single newline.
func CleanTextOf(markup string) string {
	return reBlankRun.ReplaceAllString(document.Parse(markup).Text(), "\n")
}
