package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
	"github.com/sells-group/mailbox-cli/internal/verify"
	"github.com/sells-group/mailbox-cli/pkg/smarty"
)

var (
	verifyInput  string
	verifyOutput string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify addresses and attach RDI/CMRA classifications",
	Long: `Runs each record of an enriched table through the Smarty US Street API
and writes a new "_verified" table with RDI and CMRA columns after the zip
code. Failed lookups get sentinel values; rows are never dropped.

Credentials come from a key-value file (default smarty_api_key.txt):
  auth_id=YOUR_AUTH_ID
  auth_token=YOUR_AUTH_TOKEN`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if _, err := os.Stat(verifyInput); err != nil {
			return eris.Wrapf(err, "verify: input %s", verifyInput)
		}

		// Fatal before any work begins: no credentials, no run.
		credPath, err := smarty.FindCredentials(cfg.Verify.CredentialsFile)
		if err != nil {
			return err
		}
		creds, err := smarty.LoadCredentials(credPath)
		if err != nil {
			return err
		}

		client := smarty.New(creds, smarty.Options{
			BaseURL: cfg.Verify.BaseURL,
			Timeout: cfg.Verify.Timeout(),
		})
		v := verify.New(verify.Options{Delay: cfg.Verify.Delay()}, client)

		output := verifyOutput
		if output == "" {
			output = tablefile.VerifiedPath(verifyInput)
		}

		st := openJournal(ctx)
		defer closeJournal(st)
		run := journalStart(ctx, st, model.StageVerify, verifyInput, output)

		stats, err := v.ProcessFile(ctx, verifyInput, output)
		if err != nil {
			journalFail(ctx, st, run, err)
			return eris.Wrapf(err, "verify %s", verifyInput)
		}
		journalComplete(ctx, st, run, stats.Total, stats.Verified, stats.Errors)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyInput, "input", "", "path to input CSV (required)")
	verifyCmd.Flags().StringVar(&verifyOutput, "output", "", "explicit output path (default: <input>_verified.csv)")
	_ = verifyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(verifyCmd)
}
