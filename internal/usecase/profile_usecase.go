package usecase

import (
	"context"

	"otpgate/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateProfileInput carries the editable profile fields. Nil pointers mean
// "leave unchanged".
type UpdateProfileInput struct {
	Name      *string
	Email     *string
	Avatar    *string
	BirthDate *string
	Gender    *int
}

// ProfileUsecase defines the interface for user profile operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*entity.User, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
}
