// Package normalize canonicalizes the external identifiers used as lookup
// keys, so cache/ledger keys never fragment on formatting differences
// ("US-RC1-17-07839" and "USRC11707839" are the same recording).
package normalize

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ISRC canonicalizes a recording code to its 12-character compact form.
func ISRC(raw string) (string, error) {
	code := stripSeparators(raw)
	if len(code) != 12 {
		return "", eris.Errorf("normalize: invalid isrc %q", raw)
	}
	for i, r := range code {
		if i < 5 {
			if !isAlnum(r) {
				return "", eris.Errorf("normalize: invalid isrc %q", raw)
			}
		} else if r < '0' || r > '9' {
			return "", eris.Errorf("normalize: invalid isrc %q", raw)
		}
	}
	return code, nil
}

// ISWC canonicalizes a work code to the compact T + 9 digits + check digit form.
func ISWC(raw string) (string, error) {
	code := stripSeparators(raw)
	if len(code) != 11 || code[0] != 'T' {
		return "", eris.Errorf("normalize: invalid iswc %q", raw)
	}
	for _, r := range code[1:] {
		if r < '0' || r > '9' {
			return "", eris.Errorf("normalize: invalid iswc %q", raw)
		}
	}
	return code, nil
}

// ISNI canonicalizes a name identifier to 16 characters (final may be X).
func ISNI(raw string) (string, error) {
	code := stripSeparators(raw)
	if len(code) != 16 {
		return "", eris.Errorf("normalize: invalid isni %q", raw)
	}
	for i, r := range code {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == 'X' && i == 15 {
			continue
		}
		return "", eris.Errorf("normalize: invalid isni %q", raw)
	}
	return code, nil
}

// Name folds an artist or work title for comparison: decomposed, diacritics
// stripped, lowercased, whitespace collapsed.
func Name(raw string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch r {
		case '-', '.', ' ':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
