// Package enrich fills in the secondary-unit column of a harvested address
// table, one detail-page fetch per record, with checkpointed resumption.
//
// The pass is idempotent and best-effort: records already carrying a unit
// are never touched, every failure mode leaves the record unresolved for a
// later invocation, and the working table is persisted atomically at batch
// boundaries so an interruption costs at most one batch of progress.
package enrich

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/mailbox-cli/internal/fetcher"
	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
)

// unitFieldIndex is the fixed column position for Suite/Apartment, directly
// after the street. Keeping it constant makes the schema stable across
// interrupted and resumed runs.
const unitFieldIndex = 1

// PageFetcher fetches one HTML page. Satisfied by *fetcher.Client.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*fetcher.Page, error)
}

// Options configures an Enricher.
type Options struct {
	BaseURL   string        // detail URLs are synthesized under this host
	Delay     time.Duration // fixed politeness delay between fetches
	BatchSize int           // checkpoint interval, in records
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Total   int
	Filled  int // records resolved, including ones resolved before this pass
	Fetched int // detail pages attempted this pass
}

// Enricher runs the sequential per-record enrichment loop. It is the sole
// owner of the working table for the duration of a pass; there is no
// intra-run concurrency.
type Enricher struct {
	opts    Options
	fetch   PageFetcher
	limiter *rate.Limiter
	log     *zap.Logger
}

// New creates an Enricher.
func New(opts Options, fetch PageFetcher) *Enricher {
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &Enricher{
		opts:    opts,
		fetch:   fetch,
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
		log:     zap.L(),
	}
}

// ProcessFile enriches the table at inputPath, checkpointing to outputPath.
// An empty outputPath derives the conventional "_detailed" sibling name.
func (e *Enricher) ProcessFile(ctx context.Context, inputPath, outputPath string) (Stats, error) {
	if outputPath == "" {
		outputPath = tablefile.DetailedPath(inputPath)
	}

	input, err := tablefile.Load(inputPath)
	if err != nil {
		return Stats{}, eris.Wrapf(err, "enrich: load input %s", inputPath)
	}
	e.log.Info("processing table",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("records", input.Len()),
	)
	if input.Len() == 0 {
		return Stats{}, nil
	}

	working := e.resume(input, outputPath)
	return e.processTable(ctx, working, outputPath)
}

// resume implements the checkpoint-adoption protocol: a prior output table
// supersedes the fresh input when it holds at least as many rows, since it
// already carries earlier progress (rows and column order both). Anything
// smaller is stale and discarded.
func (e *Enricher) resume(input *model.Table, outputPath string) *model.Table {
	prior, err := tablefile.Load(outputPath)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			e.log.Debug("no usable checkpoint", zap.String("path", outputPath), zap.Error(err))
		}
		return input
	}
	if prior.Len() >= input.Len() {
		e.log.Info("resuming from checkpoint",
			zap.String("path", outputPath),
			zap.Int("records", prior.Len()),
		)
		return prior
	}
	e.log.Warn("checkpoint smaller than input; starting fresh",
		zap.Int("checkpoint", prior.Len()),
		zap.Int("input", input.Len()),
	)
	return input
}

func (e *Enricher) processTable(ctx context.Context, working *model.Table, outputPath string) (Stats, error) {
	working.EnsureFieldAt(model.FieldUnit, unitFieldIndex)

	stats := Stats{Total: working.Len()}
	dirty := false

	for idx, row := range working.Rows {
		if row.Get(model.FieldUnit) != "" {
			// RESOLVED: prior progress, never refetched.
			stats.Filled++
			continue
		}

		city := row.Get(model.FieldCity)
		street := row.Get(model.FieldStreet)
		if city == "" || street == "" {
			e.log.Warn("record missing city or street; skipping", zap.Int("row", idx))
			continue
		}

		url := row.Get(model.FieldDetailURL)
		if url == "" {
			url = DetailURL(e.opts.BaseURL, city, street)
		}

		stats.Fetched++
		if unit, ok := e.fetchUnit(ctx, idx, stats.Total, city, street, url); ok {
			row.Set(model.FieldUnit, unit)
			stats.Filled++
			dirty = true
		}

		// Checkpoint at batch boundaries and on the final record, so an
		// interruption loses at most one batch of fills.
		if dirty && (idx%e.opts.BatchSize == 0 || idx == stats.Total-1) {
			if err := tablefile.Save(outputPath, working); err != nil {
				return stats, eris.Wrap(err, "enrich: checkpoint")
			}
			dirty = false
		}

		if err := ctx.Err(); err != nil {
			return stats, eris.Wrap(err, "enrich: cancelled")
		}
	}

	if err := tablefile.Save(outputPath, working); err != nil {
		return stats, eris.Wrap(err, "enrich: final save")
	}
	e.log.Info("pass complete",
		zap.String("output", outputPath),
		zap.Int("filled", stats.Filled),
		zap.Int("total", stats.Total),
	)
	return stats, nil
}

// fetchUnit performs the single fetch a record gets per pass. Every failure
// path returns ok=false and is logged; nothing here is fatal to the run.
func (e *Enricher) fetchUnit(ctx context.Context, idx, total int, city, street, url string) (string, bool) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", false
	}

	log := e.log.With(
		zap.Int("row", idx+1),
		zap.Int("total", total),
		zap.String("city", city),
		zap.String("street", street),
	)

	page, err := e.fetch.FetchPage(ctx, url)
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return "", false
	}

	// A redirect to the generic listings page or the site root means the
	// synthesized URL does not exist.
	if page.FinalURL != url && e.isGenericRedirect(page.FinalURL) {
		log.Warn("redirected off the detail page", zap.String("final_url", page.FinalURL))
		return "", false
	}

	if page.StatusCode != http.StatusOK {
		log.Warn("detail page unavailable", zap.Int("status", page.StatusCode))
		return "", false
	}

	unit, containerFound := ExtractUnit(page.Body)
	if unit == "" {
		if !containerFound {
			log.Debug("no address container on page")
		} else {
			log.Debug("no unit line matched")
		}
		return "", false
	}

	log.Info("unit found", zap.String("unit", unit))
	return unit, true
}

func (e *Enricher) isGenericRedirect(finalURL string) bool {
	return strings.Contains(finalURL, "locations") ||
		strings.Trim(finalURL, "/") == strings.Trim(e.opts.BaseURL, "/")
}
