// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"otpgate/internal/delivery/http/middleware"
	"otpgate/internal/delivery/http/response"
	"otpgate/internal/domain/entity"
	"otpgate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for the OTP authentication endpoints.
type AuthHandler struct {
	uc     usecase.OtpAuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.OtpAuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

type sendOtpRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type sendOtpResponse struct {
	TempToken string `json:"temp_token"`
	// Code is only present when the deployment opts in to exposing it.
	Code string `json:"code,omitempty"`
}

type verifyOtpRequest struct {
	TempToken string `json:"temp_token" validate:"required"`
	Code      string `json:"code" validate:"required,numeric"`
}

type verifyOtpResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	NewUser      bool      `json:"new_user"`
	User         *userView `json:"user"`
}

type refreshTokenRequest struct {
	Phone        string `json:"phone" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// SendOtp handles the OTP request endpoint.
func (h *AuthHandler) SendOtp(c echo.Context) error {
	var req sendOtpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid send otp input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.SendOtp(c.Request().Context(), &usecase.SendOtpInput{Phone: req.Phone})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sendOtpResponse{
		TempToken: output.TempToken,
		Code:      output.Code,
	}, "Verification code sent")
}

// VerifyOtp handles the OTP verification endpoint.
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verify otp input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.VerifyOtp(c.Request().Context(), &usecase.VerifyOtpInput{
		TempToken: req.TempToken,
		Code:      req.Code,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, verifyOtpResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		NewUser:      output.NewUser,
		User:         toUserView(output.User),
	}, "Phone number verified")
}

// RefreshToken handles the token refresh endpoint.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh token input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.RefreshToken(c.Request().Context(), &usecase.RefreshTokenInput{
		Phone:        req.Phone,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, refreshTokenResponse{
		AccessToken: output.AccessToken,
	}, "Token refreshed successfully")
}

// Logout handles the logout endpoint. The phone comes from the verified
// access token, not the request body.
func (h *AuthHandler) Logout(c echo.Context) error {
	phone, ok := c.Get(middleware.ContextKeyPhone).(entity.Phone)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Phone missing from token")
	}

	if err := h.uc.Logout(c.Request().Context(), &usecase.LogoutInput{Phone: phone.String()}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}
