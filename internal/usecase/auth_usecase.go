// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"otpgate/internal/domain/entity"
)

// --- Input DTOs ---

// SendOtpInput defines the data required to request an OTP code.
type SendOtpInput struct {
	Phone string
}

// VerifyOtpInput defines the data required to verify an OTP code.
type VerifyOtpInput struct {
	TempToken string
	Code      string
}

// RefreshTokenInput defines the data required to mint a new access token.
type RefreshTokenInput struct {
	Phone        string
	RefreshToken string
}

// LogoutInput defines the data required to log a user out.
type LogoutInput struct {
	Phone string
}

// --- Output DTOs ---

// SendOtpOutput returns the temp token that authorizes a verification attempt.
// Code is populated only when the deployment explicitly opts in to exposing
// it (local development and end-to-end tests); it is empty in production.
type SendOtpOutput struct {
	TempToken string
	Code      string
}

// VerifyOtpOutput returns the credential pair after a successful verification.
type VerifyOtpOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
	NewUser      bool
}

// RefreshTokenOutput returns the newly minted access token.
type RefreshTokenOutput struct {
	AccessToken string
}

// OtpAuthUsecase defines the interface for the phone-number authentication flow.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type OtpAuthUsecase interface {
	// SendOtp issues a fresh challenge for the phone and dispatches the code.
	SendOtp(ctx context.Context, input *SendOtpInput) (*SendOtpOutput, error)

	// VerifyOtp checks the submitted code against the pending challenge and,
	// on success, issues the access/refresh credential pair.
	VerifyOtp(ctx context.Context, input *VerifyOtpInput) (*VerifyOtpOutput, error)

	// RefreshToken mints a new access token from a valid refresh token.
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*RefreshTokenOutput, error)

	// Logout invalidates the user's outstanding refresh token. Idempotent.
	Logout(ctx context.Context, input *LogoutInput) error
}
