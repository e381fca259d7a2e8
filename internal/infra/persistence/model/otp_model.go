package model

import (
	"time"

	"github.com/google/uuid"
)

// OtpChallengeModel mirrors the 'otp_challenges' table. A row is a single
// pending code for a phone number; verification deletes the row.
type OtpChallengeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Phone     string    `gorm:"type:varchar(11);not null;index:idx_otp_challenges_phone"`
	CodeHash  string    `gorm:"type:varchar(255);not null"`
	Attempts  int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_otp_challenges_created_at"`
}

// TableName explicitly sets the table name for GORM.
func (OtpChallengeModel) TableName() string {
	return "otp_challenges"
}
