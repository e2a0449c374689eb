package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mailbox-cli/internal/fetcher"
	"github.com/sells-group/mailbox-cli/internal/harvest"
	"github.com/sells-group/mailbox-cli/internal/model"
)

var (
	harvestRegion string
	harvestAll    bool
	harvestOut    string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest region listings into raw address tables",
	Long: `Fetches the public directory listing for one region (--region) or every
known region (--all) and writes one CSV of raw addresses per region.
Existing output for a region is overwritten wholesale.

Examples:
  mailbox-cli harvest --region new-york
  mailbox-cli harvest --all --out Public`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if harvestAll == (harvestRegion != "") {
			return eris.New("harvest: exactly one of --region or --all is required")
		}

		opts := harvest.Options{
			BaseURL:     cfg.Directory.BaseURL,
			ListingPath: cfg.Directory.ListingPath,
			OutputDir:   cfg.Directory.OutputDir,
			Workers:     cfg.Directory.Workers,
		}
		if harvestOut != "" {
			opts.OutputDir = harvestOut
		}
		h := harvest.New(opts, fetcher.New(fetcher.Options{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout(),
		}))

		st := openJournal(ctx)
		defer closeJournal(st)

		input := harvestRegion
		if harvestAll {
			input = "all"
		}
		run := journalStart(ctx, st, model.StageHarvest, input, opts.OutputDir)

		if harvestAll {
			results, err := h.HarvestAll(ctx)
			if err != nil {
				journalFail(ctx, st, run, err)
				return eris.Wrap(err, "harvest all")
			}
			saved, dropped := 0, 0
			for _, r := range results {
				saved += r.Saved
				dropped += r.Dropped
			}
			journalComplete(ctx, st, run, saved+dropped, saved, dropped)
			zap.L().Info("harvest complete",
				zap.Int("regions", len(results)),
				zap.Int("addresses", saved),
			)
			return nil
		}

		res, err := h.HarvestRegion(ctx, harvestRegion)
		if err != nil {
			journalFail(ctx, st, run, err)
			return eris.Wrapf(err, "harvest %s", harvestRegion)
		}
		journalComplete(ctx, st, run, res.Saved+res.Dropped, res.Saved, res.Dropped)
		return nil
	},
}

func init() {
	harvestCmd.Flags().StringVar(&harvestRegion, "region", "", "region slug, e.g. new-york")
	harvestCmd.Flags().BoolVar(&harvestAll, "all", false, "harvest every region the directory lists")
	harvestCmd.Flags().StringVar(&harvestOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(harvestCmd)
}
