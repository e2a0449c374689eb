package harvest

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/mailbox-cli/internal/model"
)

// cityStateZipRe matches the final address line: "City, ST 12345" with an
// optional zip+4 extension.
var cityStateZipRe = regexp.MustCompile(`^(.*),\s+([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)

// ParseAddressLine parses a "City, ST Zip" line. ok is false when the line
// does not match the expected shape.
func ParseAddressLine(line string) (city, state, zip string, ok bool) {
	m := cityStateZipRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], m[3], true
}

var (
	brRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe = regexp.MustCompile(`<[^>]+>`)
)

// blockLines renders a selection's inner HTML as trimmed, non-empty text
// lines, treating <br> as a line break.
func blockLines(sel *goquery.Selection) []string {
	inner, err := sel.Html()
	if err != nil {
		return nil
	}
	inner = brRe.ReplaceAllString(inner, "\n")
	inner = tagRe.ReplaceAllString(inner, "\n")
	inner = html.UnescapeString(inner)

	var lines []string
	for _, line := range strings.Split(inner, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseListing extracts raw address records from a region listing page.
// Each location block must carry an address whose last line parses as
// City/State/Zip; blocks that fail are dropped, trading recall for
// precision. dropped counts those rejects.
func ParseListing(pageHTML, baseURL string) (records []model.Record, dropped int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, 0, err
	}

	doc.Find(".theme-location-item").Each(func(_ int, item *goquery.Selection) {
		addr := item.Find(".t-addr").First()
		if addr.Length() == 0 {
			return
		}

		lines := blockLines(addr)
		if len(lines) == 0 {
			return
		}

		street := lines[0]
		city, state, zip, ok := ParseAddressLine(lines[len(lines)-1])
		if !ok || street == "" {
			dropped++
			return
		}

		detailURL := ""
		if href, exists := item.Find("a.theme-button[href]").First().Attr("href"); exists {
			if strings.HasPrefix(href, "/") {
				detailURL = baseURL + href
			} else {
				detailURL = href
			}
		}

		records = append(records, model.Record{
			model.FieldStreet:    street,
			model.FieldCity:      city,
			model.FieldState:     state,
			model.FieldZip:       zip,
			model.FieldDetailURL: detailURL,
		})
	})

	return records, dropped, nil
}

// ParseRegionIndex extracts the region slugs linked from the national
// directory page, deduplicated and sorted for a deterministic fan-out order.
func ParseRegionIndex(pageHTML, listingPrefix string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	doc.Find(`a.theme-loc-link[href^="` + listingPrefix + `/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		slug := href[strings.LastIndex(href, "/")+1:]
		if slug != "" {
			seen[slug] = true
		}
	})

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}
