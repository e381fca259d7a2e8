package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Phone            string    `gorm:"type:varchar(11);unique;not null"`
	Name             string    `gorm:"type:varchar(100)"`
	Email            string    `gorm:"type:varchar(255)"`
	Avatar           string    `gorm:"type:varchar(255)"`
	BirthDate        string    `gorm:"type:varchar(10)"`
	Gender           int
	Role             string  `gorm:"type:varchar(20);not null;default:user"`
	Credit           int64   `gorm:"not null;default:0"`
	BlockedCredit    int64   `gorm:"not null;default:0"`
	Status           int     `gorm:"not null;default:1"`
	IsVerified       bool    `gorm:"not null;default:false"`
	RefreshTokenHash *string `gorm:"type:varchar(255)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
