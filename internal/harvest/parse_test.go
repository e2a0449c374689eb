package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mailbox-cli/internal/model"
)

func TestParseAddressLine(t *testing.T) {
	city, state, zip, ok := ParseAddressLine("Airmont, NY 10901")
	require.True(t, ok)
	assert.Equal(t, "Airmont", city)
	assert.Equal(t, "NY", state)
	assert.Equal(t, "10901", zip)
}

func TestParseAddressLine_ZipPlusFour(t *testing.T) {
	city, state, zip, ok := ParseAddressLine("Salt Lake City, UT 84101-2205")
	require.True(t, ok)
	assert.Equal(t, "Salt Lake City", city)
	assert.Equal(t, "UT", state)
	assert.Equal(t, "84101-2205", zip)
}

func TestParseAddressLine_Rejects(t *testing.T) {
	for _, line := range []string{
		"Somewhere Else 12345", // no comma, no 2-letter state
		"Airmont, New York 10901",
		"Airmont, NY 109",
		"",
	} {
		_, _, _, ok := ParseAddressLine(line)
		assert.False(t, ok, "line %q should not parse", line)
	}
}

const listingHTML = `<html><body>
<div class="theme-location-item">
  <div class="t-title">Airmont</div>
  <div class="t-addr">123 Main St<br>Airmont, NY 10901</div>
  <a class="theme-button" href="/s/airmont-123-main-st">Select Plan</a>
</div>
<div class="theme-location-item">
  <div class="t-addr">9 Elm Ave<br>Somewhere Else 12345</div>
  <a class="theme-button" href="/s/elsewhere">Select Plan</a>
</div>
<div class="theme-location-item">
  <div class="t-addr">500 Broadway<br>New York, NY 10012</div>
  <a class="theme-button" href="https://example.com/s/broadway">Select Plan</a>
</div>
<div class="theme-location-item">
  <div class="t-title">No address block at all</div>
</div>
</body></html>`

func TestParseListing(t *testing.T) {
	records, dropped, err := ParseListing(listingHTML, "https://directory.test")
	require.NoError(t, err)

	// The malformed last line is dropped; the block with no address is
	// skipped without counting as a parse failure.
	assert.Equal(t, 1, dropped)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "123 Main St", first[model.FieldStreet])
	assert.Equal(t, "Airmont", first[model.FieldCity])
	assert.Equal(t, "NY", first[model.FieldState])
	assert.Equal(t, "10901", first[model.FieldZip])
	assert.Equal(t, "https://directory.test/s/airmont-123-main-st", first[model.FieldDetailURL])

	// Absolute detail links pass through verbatim.
	assert.Equal(t, "https://example.com/s/broadway", records[1][model.FieldDetailURL])
}

func TestParseListing_EmptyPage(t *testing.T) {
	records, dropped, err := ParseListing("<html><body></body></html>", "https://directory.test")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, dropped)
}

func TestParseRegionIndex_DedupesAndSorts(t *testing.T) {
	page := `<html><body>
	  <a class="theme-loc-link" href="/l/usa/new-york">New York</a>
	  <a class="theme-loc-link" href="/l/usa/colorado">Colorado</a>
	  <a class="theme-loc-link" href="/l/usa/new-york">New York (again)</a>
	  <a class="theme-loc-link" href="/l/canada/ontario">Ontario</a>
	  <a href="/l/usa/idaho">Not a region link</a>
	</body></html>`

	slugs, err := ParseRegionIndex(page, "/l/usa")
	require.NoError(t, err)
	assert.Equal(t, []string{"colorado", "new-york"}, slugs)
}
