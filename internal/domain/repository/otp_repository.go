// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"otpgate/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrChallengeNotFound is returned when no matching challenge exists.
// Consume returns it when another caller already consumed the challenge, so
// concurrent verifications can never both succeed.
var ErrChallengeNotFound = errors.New("otp challenge not found")

// OtpChallengeRepository defines the persistence operations for OTP challenges.
type OtpChallengeRepository interface {
	// CountCreatedSince counts challenges created for a phone since the given
	// instant. Used by the send rate limit.
	CountCreatedSince(ctx context.Context, phone entity.Phone, since time.Time) (int, error)

	// Create persists a new challenge with attempts = 0.
	Create(ctx context.Context, challenge *entity.OtpChallenge) error

	// Latest returns the most recently created challenge for a phone, or
	// ErrChallengeNotFound when none exists.
	Latest(ctx context.Context, phone entity.Phone) (*entity.OtpChallenge, error)

	// IncrementAttempts atomically increments the attempt counter of one
	// challenge. It must be a storage-level increment, never read-modify-write.
	IncrementAttempts(ctx context.Context, id uuid.UUID) error

	// Consume deletes the challenge by ID. Exactly one concurrent caller
	// observes success; the rest get ErrChallengeNotFound.
	Consume(ctx context.Context, id uuid.UUID) error
}
