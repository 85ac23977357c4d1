package richtext

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// table lays rows out as columns padded to the widest cell. Cells are kept
// on one line; the viewport scrolls horizontally if needed.
func (r *Renderer) table(n *html.Node) []string {
	var rows [][]string
	var header []bool
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				walk(c)
				continue
			}
			var cells []string
			isHeader := true
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
					continue
				}
				if cell.Data == "td" {
					isHeader = false
				}
				cells = append(cells, strings.ReplaceAll(squash(r.inlineChildren(cell)), "\n", " "))
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
				header = append(header, isHeader)
			}
		}
	}
	walk(n)
	if len(rows) == 0 {
		return nil
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	sep := r.styles.TableBorder.Render(" │ ")
	out := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		padded := make([]string, len(row))
		for j, cell := range row {
			cell += strings.Repeat(" ", widths[j]-lipgloss.Width(cell))
			if header[i] {
				cell = r.styles.TableHeader.Render(cell)
			}
			padded[j] = cell
		}
		out = append(out, strings.TrimRight(strings.Join(padded, sep), " "))
		if header[i] && i == 0 {
			total := 0
			for _, w := range widths {
				total += w
			}
			total += 3 * (len(widths) - 1)
			out = append(out, r.styles.TableBorder.Render(strings.Repeat("─", total)))
		}
	}
	return out
}
