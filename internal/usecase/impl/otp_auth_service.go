// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"otpgate/config"
	deliverycontext "otpgate/internal/delivery/context"
	"otpgate/internal/domain/entity"
	domainerrors "otpgate/internal/domain/errors"
	"otpgate/internal/domain/repository"
	"otpgate/internal/domain/service"
	"otpgate/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultCodeLength      = 4
	defaultCodeTTL         = 2 * time.Minute
	defaultRateLimitWindow = time.Hour
	defaultRateLimitMax    = 5
	defaultMaxAttempts     = 5

	// How long fire-and-forget work (code dispatch, event publish) may run
	// after the originating request has completed.
	asyncDispatchTimeout = 30 * time.Second
)

// otpAuthService implements the OtpAuthUsecase interface.
type otpAuthService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	otpRepo      repository.OtpChallengeRepository
	hasher       service.CodeHasher
	tokenService service.TokenService
	sender       service.OtpSender
	publisher    service.EventPublisher
	logger       *slog.Logger

	codeLength      int
	codeTTL         time.Duration
	rateLimitWindow time.Duration
	rateLimitMax    int
	maxAttempts     int
	exposeCode      bool
}

// OtpAuthServiceParams holds dependencies for otpAuthService, injected by Fx.
type OtpAuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	OtpRepo      repository.OtpChallengeRepository
	Hasher       service.CodeHasher
	TokenService service.TokenService
	Sender       service.OtpSender
	Publisher    service.EventPublisher
	Config       *config.Config
	Logger       *slog.Logger
}

// NewOtpAuthService is the constructor for otpAuthService. It receives all dependencies as interfaces.
func NewOtpAuthService(params OtpAuthServiceParams) usecase.OtpAuthUsecase {
	srv := &otpAuthService{
		txManager:       params.TxManager,
		userRepo:        params.UserRepo,
		otpRepo:         params.OtpRepo,
		hasher:          params.Hasher,
		tokenService:    params.TokenService,
		sender:          params.Sender,
		publisher:       params.Publisher,
		logger:          params.Logger,
		codeLength:      defaultCodeLength,
		codeTTL:         defaultCodeTTL,
		rateLimitWindow: defaultRateLimitWindow,
		rateLimitMax:    defaultRateLimitMax,
		maxAttempts:     defaultMaxAttempts,
	}

	if cfg := params.Config.Otp; cfg != nil {
		if cfg.CodeLength > 0 {
			srv.codeLength = cfg.CodeLength
		}
		if cfg.CodeTTL > 0 {
			srv.codeTTL = cfg.CodeTTL
		}
		if cfg.RateLimitWindow > 0 {
			srv.rateLimitWindow = cfg.RateLimitWindow
		}
		if cfg.RateLimitMax > 0 {
			srv.rateLimitMax = cfg.RateLimitMax
		}
		if cfg.MaxAttempts > 0 {
			srv.maxAttempts = cfg.MaxAttempts
		}
		srv.exposeCode = cfg.ExposeCodeInResponse
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *otpAuthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SendOtp issues a fresh challenge for the phone and dispatches the code.
// Re-sending within the rate limit never invalidates earlier pending codes;
// verification always checks the most recent one.
func (srv *otpAuthService) SendOtp(ctx context.Context, input *usecase.SendOtpInput) (*usecase.SendOtpOutput, error) {
	phone, err := entity.NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	since := time.Now().Add(-srv.rateLimitWindow)
	sent, err := srv.otpRepo.CountCreatedSince(ctx, phone, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count recent otp challenges")
	}
	if sent >= srv.rateLimitMax {
		srv.log(ctx).Warn("OTP send rate limit hit", slog.String("phone", phone.String()))

		return nil, domainerrors.ErrRateLimited
	}

	code, err := generateNumericCode(srv.codeLength)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate otp code")
	}

	codeHash, err := srv.hasher.Hash(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash otp code")
	}

	challenge := &entity.OtpChallenge{
		Phone:     phone,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(srv.codeTTL),
	}
	if err := srv.otpRepo.Create(ctx, challenge); err != nil {
		return nil, errors.Wrap(err, "failed to store otp challenge")
	}

	tempToken, err := srv.tokenService.SignTempToken(phone)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign temp token")
	}

	srv.dispatchCode(ctx, phone, code)

	srv.log(ctx).Info("OTP challenge issued", slog.String("phone", phone.String()))

	out := &usecase.SendOtpOutput{TempToken: tempToken}
	if srv.exposeCode {
		out.Code = code
	}

	return out, nil
}

// VerifyOtp checks the submitted code against the most recent pending
// challenge and, on success, consumes it and issues the credential pair.
func (srv *otpAuthService) VerifyOtp(ctx context.Context, input *usecase.VerifyOtpInput) (*usecase.VerifyOtpOutput, error) {
	phone, err := srv.tokenService.VerifyTempToken(input.TempToken)
	if err != nil {
		srv.log(ctx).Warn("Temp token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrTempTokenInvalid
	}

	challenge, err := srv.otpRepo.Latest(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, domainerrors.ErrChallengeNotFound
		}

		return nil, errors.Wrap(err, "failed to load otp challenge")
	}

	if challenge.Expired(time.Now()) {
		// Best effort cleanup; the expiry check itself already ended this attempt.
		if err := srv.otpRepo.Consume(ctx, challenge.ID); err != nil && !errors.Is(err, repository.ErrChallengeNotFound) {
			srv.log(ctx).Warn("Failed to discard expired challenge", slog.Any("error", err))
		}

		return nil, domainerrors.ErrOtpExpired
	}

	if challenge.Locked(srv.maxAttempts) {
		return nil, domainerrors.ErrTooManyAttempts
	}

	if !srv.hasher.Check(ctx, input.Code, challenge.CodeHash) {
		if err := srv.otpRepo.IncrementAttempts(ctx, challenge.ID); err != nil && !errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, errors.Wrap(err, "failed to record failed attempt")
		}

		return nil, domainerrors.ErrInvalidOtp
	}

	// Exactly one concurrent verification can consume the challenge; everyone
	// else lands here with ErrChallengeNotFound.
	if err := srv.otpRepo.Consume(ctx, challenge.ID); err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, domainerrors.ErrChallengeNotFound
		}

		return nil, errors.Wrap(err, "failed to consume otp challenge")
	}

	var (
		user         *entity.User
		newUser      bool
		accessToken  string
		refreshToken string
	)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		existing, err := userRepo.FindByPhone(ctx, phone)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			user = &entity.User{
				Phone:      phone,
				Role:       entity.RoleUser,
				Status:     entity.UserStatusActive,
				IsVerified: true,
			}
			if err := userRepo.Create(ctx, user); err != nil {
				return err
			}
			newUser = true
		case err != nil:
			return errors.Wrap(err, "failed to find user by phone")
		default:
			user = existing
			if !user.IsVerified {
				user.IsVerified = true
				if err := userRepo.Update(ctx, user); err != nil {
					return err
				}
			}
		}

		accessToken, refreshToken, err = srv.tokenService.GenerateTokens(user.ID, user.Phone, user.Role)
		if err != nil {
			return errors.Wrap(err, "failed to generate tokens")
		}

		refreshHash, err := srv.hasher.Hash(ctx, refreshToken)
		if err != nil {
			return errors.Wrap(err, "failed to hash refresh token")
		}

		// Rotation: storing the new hash invalidates every earlier refresh token.
		if err := userRepo.UpdateRefreshTokenHash(ctx, user.ID, &refreshHash); err != nil {
			return err
		}
		user.RefreshTokenHash = &refreshHash

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute verification transaction", slog.String("phone", phone.String()), slog.Any("error", err))

		return nil, err
	}

	srv.publishAuthEvent(ctx, &service.AuthEvent{
		Type:    service.AuthEventUserVerified,
		UserID:  user.ID.String(),
		Phone:   user.Phone.String(),
		Role:    user.Role.String(),
		NewUser: newUser,
	})

	srv.log(ctx).Info("OTP verified", slog.Any("userID", user.ID), slog.Bool("newUser", newUser))

	return &usecase.VerifyOtpOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		NewUser:      newUser,
	}, nil
}

// RefreshToken mints a new access token from a valid refresh token. The
// refresh token itself is not rotated; it stays valid until its expiry,
// the next verification, or logout.
func (srv *otpAuthService) RefreshToken(ctx context.Context, input *usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error) {
	phone, err := entity.NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	user, err := srv.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUnauthorized
		}

		return nil, errors.Wrap(err, "failed to find user by phone")
	}

	// The stored hash is the single source of truth for which refresh token
	// is outstanding. A cleared or mismatched hash means the token was
	// rotated away or revoked by logout.
	if user.RefreshTokenHash == nil || !srv.hasher.Check(ctx, input.RefreshToken, *user.RefreshTokenHash) {
		return nil, domainerrors.ErrUnauthorized
	}

	claims, err := srv.tokenService.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}

		return nil, domainerrors.ErrUnauthorized
	}

	accessToken, err := srv.tokenService.SignAccessToken(claims.UserID, claims.Phone, claims.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	return &usecase.RefreshTokenOutput{AccessToken: accessToken}, nil
}

// Logout clears the user's refresh token hash, invalidating the outstanding
// refresh token. Unknown phones are a no-op so repeated logouts succeed.
func (srv *otpAuthService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	phone, err := entity.NormalizePhone(input.Phone)
	if err != nil {
		return err
	}

	user, err := srv.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to find user by phone")
	}

	if err := srv.userRepo.UpdateRefreshTokenHash(ctx, user.ID, nil); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}

		return err
	}

	srv.publishAuthEvent(ctx, &service.AuthEvent{
		Type:   service.AuthEventLoggedOut,
		UserID: user.ID.String(),
		Phone:  user.Phone.String(),
		Role:   user.Role.String(),
	})

	srv.log(ctx).Info("User logged out", slog.Any("userID", user.ID))

	return nil
}

// dispatchCode hands the plaintext code to the sender without blocking the
// request. The caller's deadline must not cancel an SMS already in flight.
func (srv *otpAuthService) dispatchCode(ctx context.Context, phone entity.Phone, code string) {
	logger := srv.log(ctx)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncDispatchTimeout)
	go func() {
		defer cancel()

		if err := srv.sender.Send(sendCtx, phone, code); err != nil {
			logger.Error("Failed to dispatch otp code", slog.String("phone", phone.String()), slog.Any("error", err))
		}
	}()
}

// publishAuthEvent publishes asynchronously; auth flows never fail because
// the event bus is down.
func (srv *otpAuthService) publishAuthEvent(ctx context.Context, event *service.AuthEvent) {
	logger := srv.log(ctx)
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncDispatchTimeout)
	go func() {
		defer cancel()

		if err := srv.publisher.PublishAuthEvent(pubCtx, event); err != nil {
			logger.Error("Failed to publish auth event", slog.String("event_type", event.Type), slog.Any("error", err))
		}
	}()
}

// generateNumericCode draws each digit independently from crypto/rand, so
// codes keep their full length including leading zeros.
func generateNumericCode(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", errors.WithStack(err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
