// Package verify runs enriched address tables through the Smarty US Street
// API and writes a new table with RDI and CMRA classification columns.
package verify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
	"github.com/sells-group/mailbox-cli/pkg/smarty"
)

// SentinelError marks both classification fields when the external call
// itself failed; the row is still written.
const SentinelError = "Error"

// AddressVerifier is the external validation lookup. Satisfied by
// *smarty.Client; tests inject fakes.
type AddressVerifier interface {
	Verify(ctx context.Context, lookup smarty.Lookup) (smarty.Result, error)
}

// Options configures a Verifier.
type Options struct {
	Delay time.Duration // fixed inter-call delay
}

// Stats summarizes one verification run.
type Stats struct {
	Total    int
	Verified int // rows written, sentinel rows included
	Errors   int // rows that hit an external-call failure
}

// Verifier is the sequential per-record verification loop.
type Verifier struct {
	client  AddressVerifier
	limiter *rate.Limiter
	log     *zap.Logger
}

// New creates a Verifier.
func New(opts Options, client AddressVerifier) *Verifier {
	if opts.Delay <= 0 {
		opts.Delay = 50 * time.Millisecond
	}
	return &Verifier{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
		log:     zap.L(),
	}
}

// ProcessFile verifies every record of inputPath into a wholly new output
// table, one flushed row per lookup so partial output is always readable.
// The input file is never mutated. An empty outputPath derives the
// conventional "_verified" sibling name.
func (v *Verifier) ProcessFile(ctx context.Context, inputPath, outputPath string) (Stats, error) {
	if outputPath == "" {
		outputPath = tablefile.VerifiedPath(inputPath)
	}
	detailed := tablefile.IsDetailed(inputPath)

	tbl, err := tablefile.Load(inputPath)
	if err != nil {
		return Stats{}, eris.Wrapf(err, "verify: load input %s", inputPath)
	}

	// Re-derive the classification columns from scratch so their position
	// is fixed regardless of what the input carried: directly after the
	// zip code, RDI then CMRA.
	tbl.InsertFieldsAfter(model.FieldZip, model.FieldRDI, model.FieldCMRA)

	v.log.Info("verifying table",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("records", tbl.Len()),
		zap.Bool("detailed", detailed),
	)

	w, err := tablefile.NewAppendWriter(outputPath, tbl.Fields)
	if err != nil {
		return Stats{}, eris.Wrap(err, "verify: open output")
	}
	defer func() { _ = w.Close() }()

	stats := Stats{Total: tbl.Len()}
	for idx, row := range tbl.Rows {
		if err := v.limiter.Wait(ctx); err != nil {
			return stats, eris.Wrap(err, "verify: cancelled")
		}

		lookup := smarty.Lookup{
			Street:  row.Get(model.FieldStreet),
			City:    row.Get(model.FieldCity),
			State:   row.Get(model.FieldState),
			ZipCode: row.Get(model.FieldZip),
		}
		if detailed {
			if sec := row.Get(model.FieldUnit); sec != "#" {
				// A bare "#" is leftover placeholder text, not a unit.
				lookup.Secondary = sec
			}
		}

		res, err := v.client.Verify(ctx, lookup)
		if err != nil {
			v.log.Warn("verification call failed",
				zap.Int("row", idx+1),
				zap.String("street", lookup.Street),
				zap.Error(err),
			)
			res = smarty.Result{RDI: SentinelError, CMRA: SentinelError}
			stats.Errors++
		}

		row.Set(model.FieldRDI, res.RDI)
		row.Set(model.FieldCMRA, res.CMRA)
		if err := w.Write(row); err != nil {
			return stats, eris.Wrap(err, "verify: write row")
		}
		stats.Verified++

		v.log.Debug("verified",
			zap.Int("row", idx+1),
			zap.Int("total", stats.Total),
			zap.String("rdi", res.RDI),
			zap.String("cmra", res.CMRA),
		)
	}

	if err := w.Close(); err != nil {
		return stats, err
	}
	v.log.Info("verification complete",
		zap.String("output", outputPath),
		zap.Int("verified", stats.Verified),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}
