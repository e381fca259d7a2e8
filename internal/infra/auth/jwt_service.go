// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"otpgate/config"
	"otpgate/internal/domain/entity"
	domainerrors "otpgate/internal/domain/errors"
	"otpgate/internal/domain/service"
)

const (
	defaultTempTTL    = time.Minute * 5
	defaultAccessTTL  = time.Minute * 15
	defaultRefreshTTL = time.Hour * 24 * 7
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// Each token class carries its own secret and lifetime; the class name is
// embedded as a "type" claim and cross-checked on verification, so a token of
// one class never validates as another even if a secret leaks.
type jwtService struct {
	tempSecret    string
	accessSecret  string
	refreshSecret string
	tempTTL       time.Duration
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTService is the constructor for jwtService.
// It fails fast when any of the three class secrets is absent.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Temp == "" || cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided for all token classes")
	}

	svc := &jwtService{
		tempSecret:    cfg.SecretKey.Temp,
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		tempTTL:       defaultTempTTL,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
	}
	if cfg.Token != nil {
		if cfg.Token.TempTTL > 0 {
			svc.tempTTL = cfg.Token.TempTTL
		}
		if cfg.Token.AccessTTL > 0 {
			svc.accessTTL = cfg.Token.AccessTTL
		}
		if cfg.Token.RefreshTTL > 0 {
			svc.refreshTTL = cfg.Token.RefreshTTL
		}
	}

	return svc, nil
}

// SignTempToken creates the short-lived capability token for verify-otp,
// binding only the phone number.
func (s *jwtService) SignTempToken(phone entity.Phone) (string, error) {
	claims := jwt.MapClaims{
		"phone": phone.String(),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.tempTTL).Unix(),
		"type":  service.TokenClassTemp,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.tempSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign temp token")
	}

	return signed, nil
}

// VerifyTempToken validates a temp token and returns the bound phone.
func (s *jwtService) VerifyTempToken(tokenString string) (entity.Phone, error) {
	claims, err := s.parseToken(tokenString, s.tempSecret, service.TokenClassTemp)
	if err != nil {
		return "", err
	}

	phone, ok := claims["phone"].(string)
	if phone == "" || !ok {
		return "", errors.New("phone missing from temp token")
	}

	return entity.Phone(phone), nil
}

// GenerateTokens creates a new access token and refresh token pair for a user.
func (s *jwtService) GenerateTokens(userID uuid.UUID, phone entity.Phone, role entity.Role) (accessToken string, refreshToken string, err error) {
	accessToken, err = s.generateToken(userID, phone, role, s.accessTTL, s.accessSecret, service.TokenClassAccess)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.generateToken(userID, phone, role, s.refreshTTL, s.refreshSecret, service.TokenClassRefresh)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// SignAccessToken creates a new access token only, leaving any outstanding
// refresh token untouched.
func (s *jwtService) SignAccessToken(userID uuid.UUID, phone entity.Phone, role entity.Role) (string, error) {
	return s.generateToken(userID, phone, role, s.accessTTL, s.accessSecret, service.TokenClassAccess)
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *jwtService) VerifyAccessToken(tokenString string) (*service.Claims, error) {
	return s.verifyUserToken(tokenString, s.accessSecret, service.TokenClassAccess)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *jwtService) VerifyRefreshToken(tokenString string) (*service.Claims, error) {
	return s.verifyUserToken(tokenString, s.refreshSecret, service.TokenClassRefresh)
}

// generateToken is a private helper to create a JWT with specific claims.
func (s *jwtService) generateToken(userID uuid.UUID, phone entity.Phone, role entity.Role, ttl time.Duration, secret, tokenType string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"phone": phone.String(),
		"role":  role.String(),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
		"type":  tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign %s token", tokenType)
	}

	return signed, nil
}

// verifyUserToken parses a token under the given class and maps the claims.
func (s *jwtService) verifyUserToken(tokenString, secret, tokenType string) (*service.Claims, error) {
	mapClaims, err := s.parseToken(tokenString, secret, tokenType)
	if err != nil {
		return nil, err
	}

	sub, _ := mapClaims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.Wrap(err, "invalid subject in token")
	}

	phone, _ := mapClaims["phone"].(string)
	role, _ := mapClaims["role"].(string)

	return &service.Claims{
		UserID: userID,
		Phone:  entity.Phone(phone),
		Role:   entity.RoleFromString(role),
		Type:   tokenType,
	}, nil
}

// parseToken validates signature, expiry and class for one token string.
func (s *jwtService) parseToken(tokenString, secret, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerrors.ErrTokenExpired.WrapMessage("token past its TTL")
		}

		return nil, errors.Wrap(err, "failed to parse token structure")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("failed to parse token claims")
	}

	// Reject tokens of another class even when structurally valid.
	if claimedType, _ := claims["type"].(string); claimedType != tokenType {
		return nil, errors.Errorf("token is not a %s token", tokenType)
	}

	return claims, nil
}
