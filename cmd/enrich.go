package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mailbox-cli/internal/enrich"
	"github.com/sells-group/mailbox-cli/internal/fetcher"
	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/store"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
)

var (
	enrichInput  string
	enrichFolder string
	enrichOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill in suite/unit details for harvested addresses",
	Long: `Fetches each record's detail page and extracts the suite or unit
designator into the Suite/Apartment column. Progress is checkpointed, so an
interrupted run resumes from its own output; records already carrying a unit
are never refetched.

Examples:
  mailbox-cli enrich --input Public/colorado.csv
  mailbox-cli enrich --folder Public`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if enrichInput != "" && enrichFolder != "" {
			return eris.New("enrich: exactly one of --input or --folder is required")
		}
		if enrichInput == "" && enrichFolder == "" {
			// No input selected: fall back to the harvest output directory.
			enrichFolder = cfg.Directory.OutputDir
			zap.L().Info("no input given; processing default folder", zap.String("folder", enrichFolder))
		}
		if enrichOutput != "" && enrichInput == "" {
			return eris.New("enrich: --output requires --input")
		}

		e := enrich.New(enrich.Options{
			BaseURL:   cfg.Directory.BaseURL,
			Delay:     cfg.Enrich.Delay(),
			BatchSize: cfg.Enrich.BatchSize,
		}, fetcher.New(fetcher.Options{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout(),
		}))

		st := openJournal(ctx)
		defer closeJournal(st)

		if enrichInput != "" {
			if _, err := os.Stat(enrichInput); err != nil {
				return eris.Wrapf(err, "enrich: input %s", enrichInput)
			}
			return enrichOne(ctx, st, e, enrichInput, enrichOutput)
		}

		inputs, err := tablefile.Discover(enrichFolder)
		if err != nil {
			return eris.Wrapf(err, "enrich: folder %s", enrichFolder)
		}
		zap.L().Info("found address tables", zap.Int("count", len(inputs)), zap.String("folder", enrichFolder))
		for _, input := range inputs {
			if err := enrichOne(ctx, st, e, input, ""); err != nil {
				return err
			}
		}
		return nil
	},
}

func enrichOne(ctx context.Context, st store.Store, e *enrich.Enricher, input, output string) error {
	if output == "" {
		output = tablefile.DetailedPath(input)
	}
	run := journalStart(ctx, st, model.StageEnrich, input, output)

	stats, err := e.ProcessFile(ctx, input, output)
	if err != nil {
		journalFail(ctx, st, run, err)
		return eris.Wrapf(err, "enrich %s", input)
	}
	journalComplete(ctx, st, run, stats.Total, stats.Filled, 0)
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "path to one input CSV")
	enrichCmd.Flags().StringVar(&enrichFolder, "folder", "", "process every harvested CSV in this folder")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "explicit output path (default: <input>_detailed.csv)")
	rootCmd.AddCommand(enrichCmd)
}
