package postgres

import (
	"context"
	"time"

	"otpgate/internal/domain/entity"
	"otpgate/internal/domain/repository"
	"otpgate/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// otpRepository implements the domain's OtpChallengeRepository interface using GORM.
type otpRepository struct {
	db *gorm.DB
}

// NewOtpRepository is the constructor for otpRepository.
func NewOtpRepository(db *gorm.DB) repository.OtpChallengeRepository {
	return &otpRepository{db: db}
}

// CountCreatedSince counts challenges created for a phone within the rate limit window.
func (repo *otpRepository) CountCreatedSince(ctx context.Context, phone entity.Phone, since time.Time) (int, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&model.OtpChallengeModel{}).
		Where("phone = ? AND created_at >= ?", string(phone), since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count otp challenges")
	}

	return int(count), nil
}

// Create persists a new challenge.
func (repo *otpRepository) Create(ctx context.Context, challenge *entity.OtpChallenge) error {
	challengeM := fromOtpDomain(challenge)

	if err := repo.db.WithContext(ctx).Create(challengeM).Error; err != nil {
		return errors.Wrap(err, "failed to create otp challenge")
	}

	challenge.ID = challengeM.ID
	challenge.CreatedAt = challengeM.CreatedAt

	return nil
}

// Latest returns the most recently created challenge for a phone.
func (repo *otpRepository) Latest(ctx context.Context, phone entity.Phone) (*entity.OtpChallenge, error) {
	var challengeM model.OtpChallengeModel
	err := repo.db.WithContext(ctx).
		Where("phone = ?", string(phone)).
		Order("created_at desc").
		First(&challengeM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrChallengeNotFound
		}

		return nil, errors.Wrap(err, "failed to find latest otp challenge")
	}

	return toOtpDomain(&challengeM), nil
}

// IncrementAttempts bumps the attempt counter in a single UPDATE so concurrent
// verifications never lose an increment.
func (repo *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Model(&model.OtpChallengeModel{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to increment otp attempts")
	}
	if result.RowsAffected == 0 {
		return repository.ErrChallengeNotFound
	}

	return nil
}

// Consume deletes the challenge by ID. The row count tells us whether this
// caller won the race; losers get ErrChallengeNotFound.
func (repo *otpRepository) Consume(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.OtpChallengeModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to consume otp challenge")
	}
	if result.RowsAffected == 0 {
		return repository.ErrChallengeNotFound
	}

	return nil
}

func toOtpDomain(challengeM *model.OtpChallengeModel) *entity.OtpChallenge {
	return &entity.OtpChallenge{
		ID:        challengeM.ID,
		Phone:     entity.Phone(challengeM.Phone),
		CodeHash:  challengeM.CodeHash,
		Attempts:  challengeM.Attempts,
		ExpiresAt: challengeM.ExpiresAt,
		CreatedAt: challengeM.CreatedAt,
	}
}

func fromOtpDomain(challenge *entity.OtpChallenge) *model.OtpChallengeModel {
	return &model.OtpChallengeModel{
		ID:        challenge.ID,
		Phone:     string(challenge.Phone),
		CodeHash:  challenge.CodeHash,
		Attempts:  challenge.Attempts,
		ExpiresAt: challenge.ExpiresAt,
		CreatedAt: challenge.CreatedAt,
	}
}
