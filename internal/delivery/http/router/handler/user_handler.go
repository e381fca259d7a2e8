package handler

import (
	"log/slog"
	"net/http"
	"time"

	"otpgate/internal/delivery/http/middleware"
	"otpgate/internal/delivery/http/response"
	"otpgate/internal/domain/entity"
	"otpgate/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for the profile endpoints.
type UserHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: logger,
	}
}

// userView is the outward shape of a user. The refresh token hash never
// leaves the persistence boundary.
type userView struct {
	ID            uuid.UUID `json:"id"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	BirthDate     string    `json:"birth_date,omitempty"`
	Gender        int       `json:"gender,omitempty"`
	Role          string    `json:"role"`
	Credit        int64     `json:"credit"`
	BlockedCredit int64     `json:"blocked_credit"`
	Status        int       `json:"status"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserView(user *entity.User) *userView {
	if user == nil {
		return nil
	}

	return &userView{
		ID:            user.ID,
		Phone:         user.Phone.String(),
		Name:          user.Name,
		Email:         user.Email,
		Avatar:        user.Avatar,
		BirthDate:     user.BirthDate,
		Gender:        user.Gender,
		Role:          user.Role.String(),
		Credit:        user.Credit,
		BlockedCredit: user.BlockedCredit,
		Status:        user.Status,
		IsVerified:    user.IsVerified,
		CreatedAt:     user.CreatedAt,
	}
}

type updateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender    *int    `json:"gender" validate:"omitempty,min=0,max=2"`
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "User ID missing from token")
	}

	user, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserView(user), "")
}

// UpdateProfile applies partial profile changes for the authenticated user.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "User ID missing from token")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), userID, &usecase.UpdateProfileInput{
		Name:      req.Name,
		Email:     req.Email,
		Avatar:    req.Avatar,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserView(user), "Profile updated")
}

// ListUsers returns every registered user. Superadmin only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.uc.ListUsers(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]*userView, 0, len(users))
	for _, user := range users {
		views = append(views, toUserView(user))
	}

	return response.Success(c, http.StatusOK, views, "")
}
