package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/panelfile"
	"github.com/glabrego/soupdeck/internal/render"
	"github.com/glabrego/soupdeck/internal/render/richtext"
)

func newFetchCmd(rt *cliEnv) *cobra.Command {
	var (
		filter    string
		textMatch bool
		mode      string
		rich      bool
		width     int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch one URL, filter it and print the result",
		Long: `Fetch runs a single panel without the UI: the page at URL is fetched,
filtered by --filter (a regular expression matched against class names, or
a literal substring of element text with --text) and printed in the chosen
display mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			display, err := render.ParseDisplayModeName(mode)
			if err != nil {
				return err
			}
			match := extract.CSSClass
			if textMatch {
				match = extract.TextContent
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			repo, err := openHistory(ctx, rt.cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			deck := newOrchestrator(rt, statusSink{w: cmd.ErrOrStderr()}, repo)
			settings := panel.Settings{URL: args[0], Filter: filter, Match: match, Display: display}
			summary := deck.LoadRecords(ctx, panelfile.Set{panelfile.FromSettings(settings)})
			if len(summary.Fetch.Errors) > 0 {
				return summary.Fetch.Errors[0]
			}

			panels := deck.Panels()
			if len(panels) == 0 {
				return errors.New("no panel was created")
			}
			text, ok := panels[0].Output()
			if !ok {
				return fmt.Errorf("fetch %s did not complete", args[0])
			}
			if rich && display == render.Markup {
				text = strings.Join(richtext.Lines(text, width), "\n")
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&filter, "filter", "f", "", "class name pattern, or text to look for with --text")
	f.BoolVar(&textMatch, "text", false, "match the filter against element text instead of class names")
	f.StringVarP(&mode, "mode", "m", "markup", "display mode: markup, plain or clean")
	f.BoolVar(&rich, "rich", false, "draw markup output as styled terminal text")
	f.IntVar(&width, "width", 100, "wrap width for --rich")
	f.DurationVar(&timeout, "timeout", 45*time.Second, "overall deadline for the fetch")
	return cmd
}
