// internal/normalize/text.go
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseWhitespace trims a string and folds runs of whitespace,
// including non-breaking spaces, into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

var diacriticsFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips combining marks: "žádost" becomes "zadost".
// Used for matching and slugs, never for stored display text.
func FoldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticsFolder, s)
	if err != nil {
		return s
	}
	return folded
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify produces a stable ASCII identifier fragment from a title.
func Slugify(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = slugStripRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var listSplitRe = regexp.MustCompile(`[;\n•]|,\s(?:[A-ZÁČĎÉĚÍŇÓŘŠŤÚŮÝŽ])`)

// SplitList breaks a scraped enumeration (regions, eligible
// applicants) into trimmed items. Portals separate items with
// semicolons, bullets, newlines and occasionally commas.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var parts []string
	last := 0
	for _, loc := range listSplitRe.FindAllStringIndex(s, -1) {
		// A comma split keeps the capitalized next item intact.
		end := loc[0]
		parts = append(parts, s[last:end])
		if s[loc[0]] == ',' {
			last = loc[0] + 1
		} else {
			last = loc[1]
		}
	}
	parts = append(parts, s[last:])

	items := make([]string, 0, len(parts))
	seen := make(map[string]bool)
	for _, p := range parts {
		p = CollapseWhitespace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		items = append(items, p)
	}
	return items
}

// Truncate shortens a description to at most n runes, cutting at a
// word boundary and appending an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
