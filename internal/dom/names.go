package dom

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	leadingDigits    = regexp.MustCompile(`^[0-9]+`)
)

// removeDiacritics folds accented letters to their base letter.
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// camelCase joins whitespace-separated words, upper-casing the first letter
// of every word but the first.
func camelCase(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}

// slugifyName turns a free-form candidate into an identifier-safe name,
// falling back to fallback when nothing usable remains.
func slugifyName(candidate, fallback string) string {
	slug := camelCase(strings.Fields(removeDiacritics(candidate)))
	slug = invalidNameChars.ReplaceAllString(slug, "_")
	slug = leadingDigits.ReplaceAllString(slug, "")
	if slug == "" {
		return fallback
	}
	return slug
}

// uniqueName returns base if it is free, else the first of base1, base2, ...
// that is.
func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken(name) {
			return name
		}
	}
}

// nameTaken reports names used in d by any node other than except.
func nameTaken(idx *index, except NodeID) func(string) bool {
	names := idx.nameMap()
	return func(name string) bool {
		id, ok := names[name]
		return ok && id != except
	}
}
