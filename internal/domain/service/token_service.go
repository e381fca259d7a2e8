package service

import (
	"otpgate/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token classes. Each class is signed with its own secret and lifetime, and
// verification checks the class embedded in the token, so a token of one class
// can never pass verification as another.
const (
	TokenClassTemp    = "temp"
	TokenClassAccess  = "access"
	TokenClassRefresh = "refresh"
)

// Claims defines the custom claims carried by the JWT tokens.
type Claims struct {
	UserID uuid.UUID
	Phone  entity.Phone
	Role   entity.Role
	Type   string
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating the three
// token classes. This abstracts the details of token creation from the use cases.
type TokenService interface {
	// SignTempToken creates a short-lived token binding a phone number. It is
	// the capability required to attempt OTP verification.
	SignTempToken(phone entity.Phone) (string, error)

	// VerifyTempToken validates a temp token and returns the bound phone.
	VerifyTempToken(tokenString string) (entity.Phone, error)

	// GenerateTokens creates a new access and refresh token pair for a user.
	GenerateTokens(userID uuid.UUID, phone entity.Phone, role entity.Role) (accessToken string, refreshToken string, err error)

	// SignAccessToken creates a new access token only. Used by the refresh
	// flow, which never rotates the refresh token.
	SignAccessToken(userID uuid.UUID, phone entity.Phone, role entity.Role) (string, error)

	// VerifyAccessToken validates an access token and returns its claims.
	VerifyAccessToken(tokenString string) (*Claims, error)

	// VerifyRefreshToken validates a refresh token and returns its claims.
	VerifyRefreshToken(tokenString string) (*Claims, error)
}
