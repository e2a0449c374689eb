package harvest

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mailbox-cli/internal/fetcher"
	"github.com/sells-group/mailbox-cli/internal/model"
	"github.com/sells-group/mailbox-cli/internal/tablefile"
)

// fakeFetcher serves canned pages by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetcher.Page
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (*fetcher.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return &fetcher.Page{StatusCode: http.StatusNotFound, FinalURL: url}, nil
}

func okPage(body string) *fetcher.Page {
	return &fetcher.Page{Body: body, StatusCode: http.StatusOK}
}

const regionPage = `<html><body>
<div class="theme-location-item">
  <div class="t-addr">123 Main St<br>Airmont, NY 10901</div>
  <a class="theme-button" href="/s/airmont-123-main-st">Select Plan</a>
</div>
</body></html>`

func newTestHarvester(t *testing.T, f *fakeFetcher) *Harvester {
	t.Helper()
	return New(Options{
		BaseURL:     "https://directory.test",
		ListingPath: "/l/usa",
		OutputDir:   t.TempDir(),
		Workers:     3,
	}, f)
}

func TestHarvestRegion_WritesTable(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*fetcher.Page{
		"https://directory.test/l/usa/new-york": okPage(regionPage),
	}}
	h := newTestHarvester(t, f)

	res, err := h.HarvestRegion(context.Background(), "new-york")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, filepath.Join(h.opts.OutputDir, "new-york.csv"), res.Path)

	tbl, err := tablefile.Load(res.Path)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{model.FieldStreet, model.FieldCity, model.FieldState, model.FieldZip, model.FieldDetailURL},
		tbl.Fields,
	)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Airmont", tbl.Rows[0][model.FieldCity])
}

func TestHarvestRegion_OverwritesPreviousOutput(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*fetcher.Page{
		"https://directory.test/l/usa/new-york": okPage(regionPage),
	}}
	h := newTestHarvester(t, f)

	_, err := h.HarvestRegion(context.Background(), "new-york")
	require.NoError(t, err)
	res, err := h.HarvestRegion(context.Background(), "new-york")
	require.NoError(t, err)

	tbl, err := tablefile.Load(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len(), "re-harvest replaces, never merges")
}

func TestHarvestRegion_UnknownRegionIsNotFatal(t *testing.T) {
	h := newTestHarvester(t, &fakeFetcher{})

	res, err := h.HarvestRegion(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Zero(t, res.Saved)
	assert.Empty(t, res.Path)
}

func TestHarvestAll_IsolatesRegionFailures(t *testing.T) {
	index := `<html><body>
	  <a class="theme-loc-link" href="/l/usa/colorado">Colorado</a>
	  <a class="theme-loc-link" href="/l/usa/idaho">Idaho</a>
	  <a class="theme-loc-link" href="/l/usa/new-york">New York</a>
	</body></html>`

	f := &fakeFetcher{
		pages: map[string]*fetcher.Page{
			"https://directory.test/l/usa":          okPage(index),
			"https://directory.test/l/usa/colorado": okPage(regionPage),
			"https://directory.test/l/usa/new-york": okPage(regionPage),
		},
		errs: map[string]error{
			"https://directory.test/l/usa/idaho": eris.New("connection reset"),
		},
	}
	h := newTestHarvester(t, f)

	results, err := h.HarvestAll(context.Background())
	require.NoError(t, err)

	regions := make([]string, 0, len(results))
	for _, r := range results {
		regions = append(regions, r.Region)
		assert.FileExists(t, r.Path)
	}
	assert.ElementsMatch(t, []string{"colorado", "new-york"}, regions)
}
