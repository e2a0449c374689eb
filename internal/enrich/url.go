package enrich

import "strings"

// collapseSpaces normalizes internal whitespace runs to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(collapseSpaces(s)), " ", "-")
}

// DetailURL deterministically synthesizes a detail-page URL from a record's
// city and street when the listing carried no explicit link. The same
// (city, street) pair always yields the same URL: lowercase, whitespace
// runs become single hyphens, and periods and '#' are stripped from the
// street component.
func DetailURL(baseURL, city, street string) string {
	citySlug := slug(city)
	streetSlug := strings.NewReplacer(".", "", "#", "").Replace(slug(street))
	return baseURL + "/s/" + citySlug + "-" + streetSlug
}
