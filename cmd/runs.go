package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/store"
)

var (
	runsStage string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Journal.Path)
		if err != nil {
			return eris.Wrap(err, "runs: open journal")
		}
		defer func() { _ = st.Close() }()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "runs: migrate journal")
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Stage: model.Stage(runsStage),
			Limit: runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "runs: list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func formatRuns(w io.Writer, runs []model.StageRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTAGE\tSTATUS\tPROCESSED\tDROPPED\tINPUT\tOUTPUT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Stage, run.Status,
			run.Processed, run.Total, run.Dropped,
			run.Input, run.Output,
		)
	}
	_ = tw.Flush()
}

func init() {
	runsCmd.Flags().StringVar(&runsStage, "stage", "", "filter by stage (harvest, enrich, verify)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum rows to show")
	rootCmd.AddCommand(runsCmd)
}
