// Package harvest turns the public mailbox directory's region listings into
// raw address tables, one CSV per region.
package harvest

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mailbox-cli/internal/fetcher"
	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
)

// PageFetcher fetches one HTML page. Satisfied by *fetcher.Client; tests
// inject fakes.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*fetcher.Page, error)
}

// Options configures a Harvester. All endpoint shapes and limits are
// explicit so tests can point at a local server.
type Options struct {
	BaseURL     string // e.g. https://www.anytimemailbox.com
	ListingPath string // e.g. /l/usa; region pages live at ListingPath/<slug>
	OutputDir   string
	Workers     int // fan-out concurrency ceiling
}

// Result summarizes one region's harvest.
type Result struct {
	Region  string
	Path    string // empty when nothing was written
	Saved   int
	Dropped int
}

// Harvester fetches region listings and writes one address table per region.
type Harvester struct {
	opts  Options
	fetch PageFetcher
	log   *zap.Logger
}

// New creates a Harvester.
func New(opts Options, fetch PageFetcher) *Harvester {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	return &Harvester{opts: opts, fetch: fetch, log: zap.L()}
}

func (h *Harvester) listingURL(slug string) string {
	return h.opts.BaseURL + h.opts.ListingPath + "/" + slug
}

// HarvestRegion fetches one region listing and writes <outdir>/<slug>.csv,
// overwriting any previous harvest for that region. An unknown region or a
// listing with no parseable entries yields an empty Result and a warning,
// not an error; errors are reserved for transport and filesystem failures.
func (h *Harvester) HarvestRegion(ctx context.Context, slug string) (Result, error) {
	res := Result{Region: slug}
	url := h.listingURL(slug)

	h.log.Info("harvesting region", zap.String("region", slug), zap.String("url", url))

	page, err := h.fetch.FetchPage(ctx, url)
	if err != nil {
		return res, err
	}
	if page.StatusCode != http.StatusOK {
		h.log.Warn("region listing unavailable",
			zap.String("region", slug),
			zap.Int("status", page.StatusCode),
		)
		return res, nil
	}

	records, dropped, err := ParseListing(page.Body, h.opts.BaseURL)
	if err != nil {
		return res, err
	}
	res.Dropped = dropped
	if dropped > 0 {
		h.log.Warn("dropped unparseable listing entries",
			zap.String("region", slug),
			zap.Int("dropped", dropped),
		)
	}
	if len(records) == 0 {
		h.log.Warn("no valid addresses parsed; check the region name", zap.String("region", slug))
		return res, nil
	}

	tbl := model.NewTable(model.FieldStreet, model.FieldCity, model.FieldState, model.FieldZip, model.FieldDetailURL)
	for _, rec := range records {
		tbl.Append(rec)
	}

	if err := os.MkdirAll(h.opts.OutputDir, 0o755); err != nil {
		return res, err
	}
	path := filepath.Join(h.opts.OutputDir, slug+".csv")
	if err := tablefile.Save(path, tbl); err != nil {
		return res, err
	}

	res.Path = path
	res.Saved = tbl.Len()
	h.log.Info("region saved",
		zap.String("region", slug),
		zap.String("path", path),
		zap.Int("addresses", res.Saved),
	)
	return res, nil
}

// ListRegions fetches the national directory page and returns the region
// slugs it links to.
func (h *Harvester) ListRegions(ctx context.Context) ([]string, error) {
	page, err := h.fetch.FetchPage(ctx, h.opts.BaseURL+h.opts.ListingPath)
	if err != nil {
		return nil, err
	}
	return ParseRegionIndex(page.Body, h.opts.ListingPath)
}

// HarvestAll processes every known region through a bounded worker pool.
// A failing region is logged and does not cancel its siblings; the returned
// results cover only regions that completed.
func (h *Harvester) HarvestAll(ctx context.Context) ([]Result, error) {
	slugs, err := h.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	h.log.Info("starting fan-out", zap.Int("regions", len(slugs)), zap.Int("workers", h.opts.Workers))

	results := make([]Result, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Workers)

	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			res, err := h.HarvestRegion(gctx, slug)
			if err != nil {
				// Isolate the failure; siblings keep running.
				h.log.Error("region harvest failed", zap.String("region", slug), zap.Error(err))
				res = Result{Region: slug}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	kept := results[:0]
	for _, r := range results {
		if r.Path != "" {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
