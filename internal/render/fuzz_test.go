package render

import (
	"strings"
	"testing"
)

func FuzzRender_CleanTextHasNoBlankLines(f *testing.F) {
	f.Add("<p>a</p>\n\n<p>b</p>")
	f.Add("  \n \n")
	f.Add("<pre>\n\n\nx</pre>")

	f.Fuzz(func(t *testing.T, markup string) {
		out := Render(markup, CleanText)
		if strings.Contains(out, "\n\n") {
			t.Fatalf("consecutive newlines in %q", out)
		}
		if Render(markup, PlainText) != markup {
			t.Fatal("plain text must be identity")
		}
	})
}
