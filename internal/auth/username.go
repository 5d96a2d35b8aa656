package auth

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GenerateUsername derives a login name from a person's names: the first
// letter of the first name, the father surname and the first letter of the
// mother surname, lower-case ASCII without spaces. "José", "Núñez", "Ávila"
// gives "jnuneza".
func GenerateUsername(firstName, fatherSurname, motherSurname string) string {
	var b strings.Builder
	if r := firstRune(firstName); r != 0 {
		b.WriteRune(r)
	}
	b.WriteString(strings.TrimSpace(fatherSurname))
	if r := firstRune(motherSurname); r != 0 {
		b.WriteRune(r)
	}
	return Slugify(b.String())
}

// Slugify lower-cases s, strips diacritics and drops everything that is not
// an ASCII letter or digit.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstRune(s string) rune {
	for _, r := range strings.TrimSpace(s) {
		return r
	}
	return 0
}
