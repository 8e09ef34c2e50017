// internal/pkg/pii/pii.go
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultCountryCode replaces a single leading zero of a local phone number
const DefaultCountryCode = "971"

// NormalizePhone strips every non-digit character and replaces a single
// leading zero with countryCode. An input without digits yields "".
func NormalizePhone(raw, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return countryCode + digits[1:]
	}
	return digits
}

// Hash trims and lower-cases v and returns its hex SHA-256 digest
func Hash(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:])
}

// HashOptional is Hash for optional fields: blank input yields "" so the
// field can be omitted instead of carrying the digest of an empty string.
func HashOptional(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return Hash(v)
}

// HashPhone normalizes then hashes a phone number; "" when no digits remain
func HashPhone(raw, countryCode string) string {
	return HashOptional(NormalizePhone(raw, countryCode))
}
