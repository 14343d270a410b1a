package phone

import "strings"

// Normalize converts a raw phone string into the canonical digits-only form
// the messaging platform expects: country code followed by the 10-digit
// subscriber number. Normalizing an already-normalized number is a no-op.
func Normalize(raw, countryCode string) string {
	digits := stripNonDigits(raw)

	switch {
	case len(digits) == 10:
		return countryCode + digits
	case len(digits) == len(countryCode)+10 && strings.HasPrefix(digits, countryCode):
		return digits
	case len(digits) == 12:
		// Wrong 12-digit prefix: rebuild from the subscriber part.
		return countryCode + digits[len(digits)-10:]
	default:
		return digits
	}
}

// IsNormalized reports whether raw is already in canonical form.
func IsNormalized(raw, countryCode string) bool {
	return raw == Normalize(raw, countryCode)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
