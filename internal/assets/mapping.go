package assets

import "strings"

// Mapping records, per site, which replica URL replaces each original image
// URL. Sites without a replica fall back to the original URL so a post never
// ships a broken image.
type Mapping map[string]map[string]string

// NewMapping builds a mapping from one upload: the upload's per-site URLs
// keyed by the original URL the content references.
func NewMapping(originalURL string, upload *Upload) Mapping {
	m := make(Mapping, len(upload.SiteURLs))
	for siteID, url := range upload.SiteURLs {
		m[siteID] = map[string]string{originalURL: url}
	}
	return m
}

// Merge folds other into m, overwriting on conflict. Merging keeps mappings
// accumulated across wizard steps intact instead of replacing them.
func (m Mapping) Merge(other Mapping) {
	for siteID, urls := range other {
		if m[siteID] == nil {
			m[siteID] = make(map[string]string, len(urls))
		}
		for original, replica := range urls {
			m[siteID][original] = replica
		}
	}
}

// RewriteBody substitutes every mapped original URL in the HTML body with
// the site's replica. Substitution is exact-string; unmapped URLs pass
// through unchanged.
func (m Mapping) RewriteBody(siteID, body string) string {
	urls := m[siteID]
	if len(urls) == 0 {
		return body
	}
	pairs := make([]string, 0, len(urls)*2)
	for original, replica := range urls {
		pairs = append(pairs, original, replica)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// RewriteList maps each original URL to the site's replica, keeping the
// original where no replica exists.
func (m Mapping) RewriteList(siteID string, originals []string) []string {
	urls := m[siteID]
	out := make([]string, len(originals))
	for i, original := range originals {
		if replica, ok := urls[original]; ok {
			out[i] = replica
		} else {
			out[i] = original
		}
	}
	return out
}
