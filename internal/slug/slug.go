// Package slug canonicalizes offer and post slugs. Every lookup key in the
// system (neighbor graph, database, ledger files) goes through Normalize
// first so that percent-encoded or Unicode-dash variants of the same slug
// resolve to one row.
package slug

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxDecodePasses bounds the percent-decode loop; scraped inputs have been
// seen double-encoded, never deeper.
const maxDecodePasses = 3

// Normalize canonicalizes a free-form slug into its lowercase ASCII form.
// It percent-decodes until stable, folds Unicode dashes and whitespace to
// "-", strips diacritics, and drops anything outside [a-z0-9-].
// Normalize is idempotent.
func Normalize(raw string) string {
	s := raw
	for i := 0; i < maxDecodePasses; i++ {
		dec, err := url.PathUnescape(s)
		if err != nil || dec == s {
			break
		}
		s = dec
	}
	return fold(s)
}

// Slugify derives a canonical slug from a display name, e.g.
// "My App 2.0!" -> "my-app-20". Unlike Normalize it never percent-decodes.
func Slugify(name string) string {
	return fold(name)
}

func fold(s string) string {
	s = norm.NFKD.String(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from NFKD, drop it
		case r == '-' || r == '_' || r == '−' || unicode.IsSpace(r) || unicode.Is(unicode.Pd, r):
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
