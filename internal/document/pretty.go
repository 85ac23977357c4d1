package document

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Children of these are written without escaping, as the parser stored them.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "xmp": true,
	"iframe": true, "noembed": true, "noframes": true, "plaintext": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// PrettyPrint serializes the whole tree with one node per line, each nesting
// level indented by a single space. Whitespace-only text is dropped.
func (d *Document) PrettyPrint() string {
	var b strings.Builder
	for _, root := range d.doc.Nodes {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			writePretty(&b, c, 0, false)
		}
	}
	return b.String()
}

func writePretty(b *strings.Builder, n *html.Node, depth int, raw bool) {
	indent := strings.Repeat(" ", depth)
	switch n.Type {
	case html.DoctypeNode:
		b.WriteString(indent + "<!DOCTYPE " + n.Data + ">\n")
	case html.CommentNode:
		b.WriteString(indent + "<!--" + n.Data + "-->\n")
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		if !raw {
			text = textEscaper.Replace(text)
		}
		b.WriteString(indent + text + "\n")
	case html.ElementNode:
		b.WriteString(indent + openTag(n) + "\n")
		if voidElements[n.Data] {
			return
		}
		childRaw := rawTextElements[n.Data]
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writePretty(b, c, depth+1, childRaw)
		}
		b.WriteString(indent + "</" + n.Data + ">\n")
	}
}

func openTag(n *html.Node) string {
	var b strings.Builder
	b.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		b.WriteString(" " + key + `="` + attrEscaper.Replace(a.Val) + `"`)
	}
	b.WriteString(">")
	return b.String()
}
