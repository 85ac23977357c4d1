// Package richtext lays extracted markup out as styled terminal lines.
package richtext

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Styles struct {
	Heading     lipgloss.Style
	Link        lipgloss.Style
	Quote       lipgloss.Style
	Code        lipgloss.Style
	Strong      lipgloss.Style
	Emphasis    lipgloss.Style
	Rule        lipgloss.Style
	Image       lipgloss.Style
	TableHeader lipgloss.Style
	TableBorder lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Heading:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b4befe")),
		Link:        lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Faint(true),
		Quote:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#a6adc8")),
		Code:        lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")),
		Strong:      lipgloss.NewStyle().Bold(true),
		Emphasis:    lipgloss.NewStyle().Italic(true),
		Rule:        lipgloss.NewStyle().Foreground(lipgloss.Color("#585b70")),
		Image:       lipgloss.NewStyle().Foreground(lipgloss.Color("#cba6f7")).Italic(true),
		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9e2af")),
		TableBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#585b70")),
	}
}

type Renderer struct {
	width  int
	styles Styles
}

func New(width int, styles Styles) *Renderer {
	if width < 1 {
		width = 1
	}
	return &Renderer{width: width, styles: styles}
}

// Lines renders markup with the default styles, wrapped to width.
func Lines(markup string, width int) []string {
	return New(width, DefaultStyles()).Lines(markup)
}

func (r *Renderer) Lines(markup string) []string {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return wrap(markup, r.width)
	}
	return compactBlank(r.blocks(nodes, 0))
}

var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "meta": true, "link": true, "title": true, "svg": true,
}

var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true, "figure": true,
	"blockquote": true, "ul": true, "ol": true, "li": true, "dl": true,
	"table": true, "pre": true, "hr": true, "figcaption": true,
	"html": true, "body": true, "form": true,
}

// blocks renders sibling nodes, grouping consecutive inline content into
// wrapped paragraphs separated from block output by one blank line.
func (r *Renderer) blocks(nodes []*html.Node, depth int) []string {
	var out []string
	var run []string
	push := func(block []string) {
		if len(block) == 0 {
			return
		}
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, block...)
	}
	flush := func() {
		text := squash(strings.Join(run, ""))
		run = run[:0]
		push(wrap(text, r.width))
	}

	for _, n := range nodes {
		if n.Type == html.ElementNode && skipped[n.Data] {
			continue
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			flush()
			push(r.block(n, depth))
			continue
		}
		run = append(run, r.inline(n))
	}
	flush()
	return out
}

func (r *Renderer) block(n *html.Node, depth int) []string {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		text := squash(r.inlineChildren(n))
		if text == "" {
			return nil
		}
		prefix := strings.Repeat("#", level) + " "
		return styled(indentWrap(text, r.width, prefix, strings.Repeat(" ", len(prefix))), r.styles.Heading)
	case "blockquote":
		inner := r.blocks(children(n), depth)
		out := make([]string, 0, len(inner))
		for _, line := range inner {
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, "│ "+r.styles.Quote.Render(line))
		}
		return out
	case "ul", "ol":
		return r.list(n, n.Data == "ol", depth+1)
	case "li":
		return r.item(n, "• ", depth)
	case "pre":
		raw := strings.Trim(rawText(n), "\n")
		var out []string
		for _, line := range strings.Split(raw, "\n") {
			out = append(out, "    "+r.styles.Code.Render(strings.TrimRight(line, " \t")))
		}
		return out
	case "hr":
		return []string{r.styles.Rule.Render(strings.Repeat("─", min(r.width, 32)))}
	case "table":
		return r.table(n)
	case "dl":
		var out []string
		for _, c := range children(n) {
			text := squash(r.inlineChildren(c))
			if c.Type != html.ElementNode || text == "" {
				continue
			}
			if c.Data == "dt" {
				out = append(out, styled(wrap(text, r.width), r.styles.Strong)...)
			} else {
				out = append(out, indentWrap(text, r.width, "  ", "  ")...)
			}
		}
		return out
	default:
		return r.blocks(children(n), depth)
	}
}

func (r *Renderer) list(n *html.Node, ordered bool, depth int) []string {
	var out []string
	index := 0
	for _, c := range children(n) {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		index++
		marker := bullet(depth)
		if ordered {
			marker = strconv.Itoa(index) + ". "
		}
		out = append(out, r.item(c, marker, depth)...)
	}
	return out
}

func (r *Renderer) item(n *html.Node, marker string, depth int) []string {
	indent := strings.Repeat("  ", max(0, depth-1))
	var text []string
	var nested []*html.Node
	for _, c := range children(n) {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			nested = append(nested, c)
			continue
		}
		text = append(text, r.inline(c))
	}
	out := indentWrap(squash(strings.Join(text, "")), r.width, indent+marker, indent+strings.Repeat(" ", lipgloss.Width(marker)))
	for _, sub := range nested {
		out = append(out, r.list(sub, sub.Data == "ol", depth+1)...)
	}
	return out
}

func (r *Renderer) inlineChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(r.inline(c))
	}
	return b.String()
}

func (r *Renderer) inline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
	default:
		return ""
	}
	if skipped[n.Data] {
		return ""
	}
	switch n.Data {
	case "br":
		return "\n"
	case "img":
		return r.image(n)
	case "a":
		text := squash(r.inlineChildren(n))
		href := attr(n, "href")
		switch {
		case href == "":
			return text
		case text == "" || text == href:
			return r.styles.Link.Render(href)
		default:
			return text + " (" + r.styles.Link.Render(href) + ")"
		}
	case "code", "kbd", "samp":
		text := squash(r.inlineChildren(n))
		if text == "" {
			return ""
		}
		return r.styles.Code.Render("`" + text + "`")
	case "b", "strong":
		return r.styleInline(n, r.styles.Strong)
	case "i", "em":
		return r.styleInline(n, r.styles.Emphasis)
	case "q":
		return `"` + r.inlineChildren(n) + `"`
	default:
		return r.inlineChildren(n)
	}
}

func (r *Renderer) styleInline(n *html.Node, style lipgloss.Style) string {
	text := squash(r.inlineChildren(n))
	if text == "" {
		return ""
	}
	return style.Render(text)
}

func (r *Renderer) image(n *html.Node) string {
	label := attr(n, "alt")
	if label == "" {
		label = attr(n, "src")
	}
	if label == "" {
		return ""
	}
	return r.styles.Image.Render("[image: " + label + "]")
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func rawText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(rawText(c))
	}
	return b.String()
}

func bullet(depth int) string {
	switch depth {
	case 1:
		return "• "
	case 2:
		return "◦ "
	default:
		return "▪ "
	}
}
