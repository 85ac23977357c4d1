package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glabrego/soupdeck/internal/panelfile"
)

func newValidateConfigCmd(rt *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [FILE]",
		Short: "Check a saved panel set and report records that would be skipped",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.cfg.PanelsFile
			if len(args) == 1 {
				path = args[0]
			}
			set, problems, err := panelfile.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, warning("skip ")+p.Error())
			}
			if len(problems) > 0 {
				return fmt.Errorf("%s: %d of %d panels are invalid", path, len(problems), len(set)+len(problems))
			}
			fmt.Fprintf(out, "%s %s: %d panels\n", success("ok"), path, len(set))
			return nil
		},
	}
}
