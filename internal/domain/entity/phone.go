// Package entity contains the core business objects of the project.
package entity

import (
	"strings"

	domainerrors "otpgate/internal/domain/errors"
)

// Phone is the canonical identity key for an account: an Iranian mobile
// number in local form, exactly 11 digits starting with "09".
type Phone string

// String returns the string representation of the Phone.
func (p Phone) String() string {
	return string(p)
}

// NormalizePhone canonicalizes raw phone input into the single local form
// used everywhere as the identity key. It strips all non-digit characters,
// collapses the international prefixes "0098" and "98" to the leading "0",
// and adds the leading "0" when missing. Anything that does not end up
// matching 09xxxxxxxxx is rejected with ErrInvalidPhoneFormat.
//
// The function is pure and idempotent: an already-canonical number passes
// through unchanged, and equivalent spellings of one number always yield the
// same key.
func NormalizePhone(raw string) (Phone, error) {
	var digits strings.Builder
	digits.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	p := digits.String()
	switch {
	case strings.HasPrefix(p, "0098"):
		p = "0" + p[4:]
	case strings.HasPrefix(p, "98"):
		p = "0" + p[2:]
	case !strings.HasPrefix(p, "0"):
		p = "0" + p
	}

	if !isCanonicalMobile(p) {
		return "", domainerrors.ErrInvalidPhoneFormat
	}

	return Phone(p), nil
}

// isCanonicalMobile reports whether p matches 09 followed by nine digits.
func isCanonicalMobile(p string) bool {
	if len(p) != 11 || p[0] != '0' || p[1] != '9' {
		return false
	}
	for i := 2; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}

	return true
}
