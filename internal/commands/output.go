package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/glabrego/soupdeck/internal/panel"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

// statusSink prints status lines to w. Rendered output is written by the
// command itself once the fetch is done.
type statusSink struct {
	w io.Writer
}

func (s statusSink) Publish(panel.ID, string) {}

func (s statusSink) SetStatus(msg string) {
	fmt.Fprintln(s.w, faint(msg))
}
