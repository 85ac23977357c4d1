package render

import (
	"strings"
	"testing"
)

func TestRender_PlainTextIsIdentity(t *testing.T) {
	for _, in := range []string{"", "<p>x</p>", "a\n\n  b", "<br>\n<b>unterminated"} {
		if got := Render(in, PlainText); got != in {
			t.Fatalf("Render(%q, PlainText) = %q", in, got)
		}
	}
}

func TestRender_MarkupPassesThrough(t *testing.T) {
	in := `<p class="a">hi</p>`
	if got := Render(in, Markup); got != in {
		t.Fatalf("unexpected markup output %q", got)
	}
}

func TestRender_CleanTextCollapsesWhitespaceRuns(t *testing.T) {
	in := "<p>one  two</p>\n\n<br>\n<p>\n   three</p>"
	got := Render(in, CleanText)
	if got != "one\ntwo\nthree" {
		t.Fatalf("unexpected clean text %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Fatalf("expected tags to be removed, got %q", got)
	}
}

func TestRender_CleanTextOfPrettyPrintedDocument(t *testing.T) {
	in := "<html>\n <body>\n  <p>\n   hi\n  </p>\n </body>\n</html>\n"
	if got := Render(in, CleanText); got != "\nhi\n" {
		t.Fatalf("unexpected clean text %q", got)
	}
}

func TestDisplayMode_ParseAndCycle(t *testing.T) {
	for code, want := range []DisplayMode{Markup, PlainText, CleanText} {
		got, err := ParseDisplayMode(code)
		if err != nil || got != want {
			t.Fatalf("ParseDisplayMode(%d) = %v, %v", code, got, err)
		}
	}
	if _, err := ParseDisplayMode(3); err == nil {
		t.Fatal("expected error for code 3")
	}
	if _, err := ParseDisplayMode(-1); err == nil {
		t.Fatal("expected error for code -1")
	}
	if m, err := ParseDisplayModeName(" Clean "); err != nil || m != CleanText {
		t.Fatalf("unexpected name parse %v %v", m, err)
	}
	if Markup.Next() != PlainText || PlainText.Next() != CleanText || CleanText.Next() != Markup {
		t.Fatal("unexpected cycle order")
	}
}
