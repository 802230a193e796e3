// Package ident turns arbitrary JSON property names into SQL identifiers.
//
// The rule is deliberately small:
//  1. the first character is kept when it is an ASCII letter, otherwise it is
//     replaced by the letter 'i'
//  2. every later character outside [A-Za-z0-9_] is dropped
//
// So "_AmO_(Nit)" becomes "iAmO_Nit" and "_12" becomes "i12". Case is kept;
// the target databases compare unquoted identifiers case-insensitively.
package ident

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitize maps raw to a SQL-safe identifier. An empty raw name yields "";
// callers treat that as an error.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	first := true
	for _, r := range raw {
		if first {
			first = false
			if isLetter(r) {
				b.WriteRune(r)
			} else {
				b.WriteByte('i')
			}
			continue
		}
		if isLetter(r) || isDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether id is non-empty, starts with an ASCII letter and
// contains only [A-Za-z0-9_].
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		if i == 0 {
			if !isLetter(r) {
				return false
			}
			continue
		}
		if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// Sanitizer is a configurable variant of Sanitize.
//
// With FoldDiacritics set, accented letters are reduced to their base letter
// before the rule runs ("číslo" -> "cislo" instead of "islo"). The zero value
// behaves exactly like Sanitize.
type Sanitizer struct {
	FoldDiacritics bool
}

// Sanitize applies the configured pre-pass and then the package rule.
func (s Sanitizer) Sanitize(raw string) string {
	if s.FoldDiacritics {
		raw = fold(raw)
	}
	return Sanitize(raw)
}

// fold decomposes, removes nonspacing marks and recomposes.
func fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
