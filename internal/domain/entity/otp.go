// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// OtpChallenge is the stored record of one outstanding OTP issuance. Multiple
// challenges may coexist for a phone (older ones age out); verification always
// targets the most recently created one.
type OtpChallenge struct {
	ID        uuid.UUID // The unique ID for this challenge record.
	Phone     Phone     // The canonical phone the code was sent to.
	CodeHash  string    // bcrypt hash of the code; the plaintext is never stored.
	Attempts  int       // Failed verification count; monotonically increasing.
	ExpiresAt time.Time // CreatedAt + the configured code TTL.
	CreatedAt time.Time
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Locked reports whether the attempt cap has been reached. A locked challenge
// stays locked until it expires; there is no reset path.
func (c *OtpChallenge) Locked(maxAttempts int) bool {
	return c.Attempts >= maxAttempts
}
