package richtext

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// squash collapses whitespace inside each line and drops empty lines. Line
// breaks that survive come from <br>.
func squash(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// wrap breaks text into lines no wider than width. Words longer than width
// get a line of their own.
func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case lipgloss.Width(line)+1+lipgloss.Width(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func indentWrap(text string, width int, first, rest string) []string {
	lines := wrap(text, max(1, width-lipgloss.Width(rest)))
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
			continue
		}
		lines[i] = rest + lines[i]
	}
	return lines
}

func styled(lines []string, style lipgloss.Style) []string {
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = style.Render(line)
		}
	}
	return lines
}

// compactBlank trims leading and trailing blank lines and keeps at most one
// blank line in a row.
func compactBlank(lines []string) []string {
	var out []string
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		if blank {
			line = ""
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
