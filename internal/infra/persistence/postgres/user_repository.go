package postgres

import (
	"context"

	"otpgate/internal/domain/entity"
	domainerrors "otpgate/internal/domain/errors"
	"otpgate/internal/domain/repository"
	"otpgate/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain's UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByPhone retrieves a single user by their canonical phone number.
func (repo *userRepository) FindByPhone(ctx context.Context, phone entity.Phone) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("phone = ?", string(phone)).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by phone")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("phone already registered")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewUnavailableError(err, "failed to create user")
	}

	// Propagate the generated ID and timestamps back to the entity.
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update modifies an existing user entity in the database.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":        userM.Name,
			"email":       userM.Email,
			"avatar":      userM.Avatar,
			"birth_date":  userM.BirthDate,
			"gender":      userM.Gender,
			"role":        userM.Role,
			"status":      userM.Status,
			"is_verified": userM.IsVerified,
		})
	if result.Error != nil {
		return domainerrors.NewUnavailableError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpdateRefreshTokenHash replaces the stored refresh token hash for a user.
// A nil hash clears the column, invalidating every outstanding refresh token.
func (repo *userRepository) UpdateRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", id).
		Update("refresh_token_hash", hash)
	if result.Error != nil {
		return domainerrors.NewUnavailableError(result.Error, "failed to update refresh token hash")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// List returns all users ordered by creation time descending.
func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	var userMs []*model.UserModel
	if err := repo.db.WithContext(ctx).Order("created_at desc").Find(&userMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(userMs))
	for _, userM := range userMs {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// toUserDomain maps a persistence model to a pure domain entity.
func toUserDomain(userM *model.UserModel) *entity.User {
	return &entity.User{
		ID:               userM.ID,
		Phone:            entity.Phone(userM.Phone),
		Name:             userM.Name,
		Email:            userM.Email,
		Avatar:           userM.Avatar,
		BirthDate:        userM.BirthDate,
		Gender:           userM.Gender,
		Role:             entity.RoleFromString(userM.Role),
		Credit:           userM.Credit,
		BlockedCredit:    userM.BlockedCredit,
		Status:           userM.Status,
		IsVerified:       userM.IsVerified,
		RefreshTokenHash: userM.RefreshTokenHash,
		CreatedAt:        userM.CreatedAt,
		UpdatedAt:        userM.UpdatedAt,
	}
}

// fromUserDomain maps a pure domain entity to a persistence model.
func fromUserDomain(user *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:               user.ID,
		Phone:            string(user.Phone),
		Name:             user.Name,
		Email:            user.Email,
		Avatar:           user.Avatar,
		BirthDate:        user.BirthDate,
		Gender:           user.Gender,
		Role:             user.Role.String(),
		Credit:           user.Credit,
		BlockedCredit:    user.BlockedCredit,
		Status:           user.Status,
		IsVerified:       user.IsVerified,
		RefreshTokenHash: user.RefreshTokenHash,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}
