package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/glabrego/soupdeck/internal/storage"
)

func newHistoryCmd(rt *cliEnv) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent panel fetches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openHistory(cmd.Context(), rt.cfg)
			if err != nil {
				return err
			}
			if repo == nil {
				return errors.New("fetch history is disabled: set a database path with --db-path or SOUPDECK_DB_PATH")
			}
			defer repo.Close()

			records, err := repo.ListFetches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, faint("No fetches recorded yet."))
				return nil
			}
			for _, rec := range records {
				fmt.Fprintln(out, historyLine(rec))
				if rec.Outcome == storage.OutcomeFailed && rec.Message != "" {
					fmt.Fprintln(out, faint("    "+rec.Message))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of fetches to show")
	return cmd
}

func historyLine(rec storage.FetchRecord) string {
	outcome := success(fmt.Sprintf("%-7s", rec.Outcome))
	if rec.Outcome == storage.OutcomeFailed {
		outcome = failure(fmt.Sprintf("%-7s", rec.Outcome))
	}
	code := "  -"
	if rec.StatusCode > 0 {
		code = fmt.Sprintf("%3d", rec.StatusCode)
	}
	return fmt.Sprintf("%-16s %s %s %8s %7s  %s",
		humanize.Time(rec.FetchedAt),
		outcome,
		code,
		humanize.Bytes(uint64(max(rec.BodyBytes, 0))),
		rec.Elapsed.Round(time.Millisecond),
		rec.URL,
	)
}
