// Package device holds device-identifier and user-input normalization used
// at the claim and invite boundaries. Validation here is local: invalid
// input is rejected before any store round-trip.
package device

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidID is returned for identifiers that are not MAC-shaped after
// normalization.
var ErrInvalidID = errors.New("device: invalid device id")

// macPattern matches six colon-separated uppercase hex octet pairs.
var macPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// NormalizeID uppercases a device identifier and converts hyphen separators
// to colons. It does not validate; pair with ValidID.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), "-", ":"))
}

// ValidID reports whether a normalized identifier is a well-formed MAC.
func ValidID(id string) bool {
	return macPattern.MatchString(id)
}

// ParseID normalizes and validates in one step.
func ParseID(id string) (string, error) {
	n := NormalizeID(id)
	if !ValidID(n) {
		return "", ErrInvalidID
	}
	return n, nil
}

// emailPattern is a light shape check; the identity provider does the real
// verification when the invite is accepted.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// SanitizeEmailKey turns an email address into a store-safe key. Store keys
// cannot contain dots, so they are replaced with commas (reversible).
func SanitizeEmailKey(email string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(email)), ".", ",")
}
