package cascade

import (
	"strings"
	"unicode"
)

// legacyMatch is the outcome of looking for a tour reference in debt notes.
type legacyMatch int

const (
	legacyNone legacyMatch = iota
	legacyExact
	// legacyAmbiguous means the reference was found only as a prefix of a
	// longer ID, e.g. "Tour ID: T10" when looking for T1.
	legacyAmbiguous
)

// matchLegacyTourReference looks for prefix+tourID in notes written before
// debts carried a tourId field.
//
// TODO: backfill tourId on legacy debts from their notes and drop this lookup.
func matchLegacyTourReference(notes, prefix, tourID string) legacyMatch {
	if notes == "" || tourID == "" {
		return legacyNone
	}
	needle := prefix + tourID

	result := legacyNone
	for rest := notes; ; {
		i := strings.Index(rest, needle)
		if i < 0 {
			return result
		}
		after := rest[i+len(needle):]
		if after == "" || !isIDRune(firstRune(after)) {
			return legacyExact
		}
		result = legacyAmbiguous
		rest = after
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func isIDRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}
