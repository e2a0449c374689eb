package enrich

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Boilerplate markers that appear inside the address container but never on
// the suite line. Matching is case-sensitive on purpose.
var boilerplateMarkers = []string{
	"United States",
	"Your Real Street Address",
	"YOUR NAME",
}

// unitWordRe matches a whole-word suite designator, case-insensitive.
var unitWordRe = regexp.MustCompile(`(?i)\b(?:suite|ste|unit|apt)\b`)

var (
	brRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe = regexp.MustCompile(`<[^>]+>`)
)

// addrLines renders a selection's inner HTML as trimmed, non-empty lines,
// treating <br> and nested tags as line breaks.
func addrLines(sel *goquery.Selection) []string {
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

// ExtractUnit pulls the suite/unit designator from a detail page. Only the
// dedicated address container is inspected, which keeps footer addresses
// (the site's own "Suite 244") out of scope. found reports whether the
// container was present at all, so callers can log the two miss cases apart.
//
// Within the container: boilerplate lines are discarded, then the first
// line carrying a whole-word Suite/Ste/Unit/Apt or a '#' wins, with any
// literal MAILBOX placeholder stripped. Results of one character or less
// are treated as empty.
func ExtractUnit(pageHTML string) (unit string, found bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", false
	}

	addr := doc.Find(".t-addr").First()
	if addr.Length() == 0 {
		return "", false
	}

	for _, line := range addrLines(addr) {
		skip := false
		for _, marker := range boilerplateMarkers {
			if strings.Contains(line, marker) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		if unitWordRe.MatchString(line) || strings.Contains(line, "#") {
			clean := strings.TrimSpace(strings.ReplaceAll(line, "MAILBOX", ""))
			if len(clean) > 1 {
				return clean, true
			}
		}
	}
	return "", true
}
