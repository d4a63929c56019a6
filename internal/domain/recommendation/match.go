package recommendation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s, strips accents, straightens typographic apostrophes and
// collapses whitespace, so that "Salle d’Opération" and "salle d'operation"
// compare equal.
func fold(s string) string {
	// Transformers keep state, build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Map(straightQuote), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

func straightQuote(r rune) rune {
	switch r {
	case '\u2018', '\u2019', '\u02BC', '\u00B4', '\u0060':
		return '\''
	}
	return r
}

// offers reports whether want names one of the carried items. An item matches
// when it equals want or contains it as a run of whole words.
func offers(carried []string, want string) bool {
	w := fold(want)
	if w == "" {
		return false
	}
	for _, item := range carried {
		if containsWords(fold(item), w) {
			return true
		}
	}
	return false
}

func containsWords(haystack, needle string) bool {
	if haystack == needle {
		return true
	}
	return strings.HasPrefix(haystack, needle+" ") ||
		strings.HasSuffix(haystack, " "+needle) ||
		strings.Contains(haystack, " "+needle+" ")
}

func isPediatricSpecialty(specialty string) bool {
	return strings.Contains(fold(specialty), "pediatr")
}

// split partitions wanted into carried and missing, keeping request order.
// Blanks and repeats of an item already seen (after folding) are dropped.
func split(available, wanted []string) (have, missing []string) {
	seen := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		key := fold(w)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if offers(available, w) {
			have = append(have, w)
		} else {
			missing = append(missing, w)
		}
	}
	return have, missing
}
