// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"otpgate/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user identity persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByPhone retrieves a single user by their canonical phone number.
	FindByPhone(ctx context.Context, phone entity.Phone) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// UpdateRefreshTokenHash replaces the stored refresh token hash for a user.
	// Passing nil clears it, invalidating every previously issued refresh token.
	UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error

	// List returns all users ordered by creation time descending.
	List(ctx context.Context) ([]*entity.User, error)
}
