// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User account status flags.
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// User is the core identity in the system, keyed by a canonical phone number.
// It is created lazily on the first successful OTP verification for a phone;
// the phone is unique and immutable after creation.
type User struct {
	ID            uuid.UUID // The unique identifier for the user.
	Phone         Phone     // Canonical mobile number; the login identity.
	Name          string    // Optional display name.
	Email         string    // Optional contact email.
	Avatar        string    // Optional avatar URL.
	BirthDate     string    // Optional birth date, stored as the client supplied it.
	Gender        int       // Optional gender code.
	Role          Role      // Authorization role; defaults to RoleUser.
	Credit        int64     // Wallet balance managed by the surrounding application.
	BlockedCredit int64     // Portion of credit held by pending operations.
	Status        int       // Account status flag: 1 active, 0 disabled.

	// IsVerified flips to true on the first successful OTP verification and
	// never flips back.
	IsVerified bool

	// RefreshTokenHash is the bcrypt hash of the single currently-valid
	// refresh token, or nil when no session family is active. It is replaced
	// wholesale on every successful verification (rotation) and cleared on
	// logout; the raw token is never stored.
	RefreshTokenHash *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
