package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"otpgate/config"
	"otpgate/internal/domain/entity"
	domainerrors "otpgate/internal/domain/errors"
	"otpgate/internal/domain/service"
	"otpgate/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// otpAuthFixtures holds all test dependencies for otp auth service tests.
type otpAuthFixtures struct {
	service   usecase.OtpAuthUsecase
	users     *fakeUserRepo
	otps      *fakeOtpRepo
	tokens    *fakeTokenService
	sender    *recordingSender
	publisher *recordingPublisher
}

func createTestOtpAuthService(otpCfg *config.OtpConfig) otpAuthFixtures {
	users := newFakeUserRepo()
	otps := newFakeOtpRepo()
	tokens := newFakeTokenService()
	sender := &recordingSender{}
	publisher := &recordingPublisher{}

	svc := NewOtpAuthService(OtpAuthServiceParams{
		TxManager:    &fakeTxManager{users: users, otps: otps},
		UserRepo:     users,
		OtpRepo:      otps,
		Hasher:       plainHasher{},
		TokenService: tokens,
		Sender:       sender,
		Publisher:    publisher,
		Config:       newTestConfig(otpCfg),
		Logger:       newDiscardLogger(),
	})

	return otpAuthFixtures{
		service:   svc,
		users:     users,
		otps:      otps,
		tokens:    tokens,
		sender:    sender,
		publisher: publisher,
	}
}

func defaultOtpConfig() *config.OtpConfig {
	return &config.OtpConfig{
		CodeLength:           4,
		CodeTTL:              2 * time.Minute,
		RateLimitWindow:      time.Hour,
		RateLimitMax:         5,
		MaxAttempts:          5,
		ExposeCodeInResponse: true,
	}
}

func TestSendOtp_IssuesChallengeForCanonicalPhone(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	out, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "+98 912 345 6789"})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "temp|09123456789", out.TempToken)
	assert.Len(t, out.Code, 4)
	for _, r := range out.Code {
		assert.True(t, r >= '0' && r <= '9')
	}

	challenge, err := fixtures.otps.Latest(ctx, entity.Phone("09123456789"))
	require.NoError(t, err)
	assert.Equal(t, entity.Phone("09123456789"), challenge.Phone)
	assert.Equal(t, "hashed:"+out.Code, challenge.CodeHash)
	assert.Zero(t, challenge.Attempts)
	assert.True(t, challenge.ExpiresAt.After(time.Now()))

	// Delivery is fire-and-forget; wait for the sender to observe the code.
	assert.Eventually(t, func() bool {
		sent := fixtures.sender.all()

		return len(sent) == 1 && sent[0].code == out.Code && sent[0].phone == entity.Phone("09123456789")
	}, time.Second, 10*time.Millisecond)
}

func TestSendOtp_RejectsInvalidPhone(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())

	for _, phone := range []string{"", "12345", "08123456789", "091234567890123"} {
		out, err := fixtures.service.SendOtp(context.Background(), &usecase.SendOtpInput{Phone: phone})
		assert.Nil(t, out)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidPhoneFormat)
	}
}

func TestSendOtp_HidesCodeByDefault(t *testing.T) {
	t.Parallel()

	cfg := defaultOtpConfig()
	cfg.ExposeCodeInResponse = false
	fixtures := createTestOtpAuthService(cfg)

	out, err := fixtures.service.SendOtp(context.Background(), &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)
	assert.Empty(t, out.Code)
	assert.NotEmpty(t, out.TempToken)
}

func TestSendOtp_RateLimitBoundary(t *testing.T) {
	t.Parallel()

	cfg := defaultOtpConfig()
	cfg.RateLimitMax = 3
	fixtures := createTestOtpAuthService(cfg)
	ctx := context.Background()

	for range 3 {
		_, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
		require.NoError(t, err)
	}

	out, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	// Another phone keeps its own counter.
	_, err = fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09351112233"})
	assert.NoError(t, err)
}

func TestSendOtp_RateLimitIgnoresChallengesOutsideWindow(t *testing.T) {
	t.Parallel()

	cfg := defaultOtpConfig()
	cfg.RateLimitMax = 1
	fixtures := createTestOtpAuthService(cfg)
	ctx := context.Background()

	old := &entity.OtpChallenge{
		Phone:     entity.Phone("09123456789"),
		CodeHash:  "hashed:0000",
		ExpiresAt: time.Now().Add(-2 * time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, fixtures.otps.Create(ctx, old))

	_, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	assert.NoError(t, err)
}

func TestVerifyOtp_CreatesAndVerifiesNewUser(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	sendOut, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)

	out, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: sendOut.TempToken,
		Code:      sendOut.Code,
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.True(t, out.NewUser)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	require.NotNil(t, out.User)
	assert.Equal(t, entity.Phone("09123456789"), out.User.Phone)
	assert.Equal(t, entity.RoleUser, out.User.Role)
	assert.True(t, out.User.IsVerified)

	stored, err := fixtures.users.FindByID(ctx, out.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, "hashed:"+out.RefreshToken, *stored.RefreshTokenHash)

	assert.Eventually(t, func() bool {
		events := fixtures.publisher.all()

		return len(events) == 1 &&
			events[0].Type == service.AuthEventUserVerified &&
			events[0].NewUser &&
			events[0].UserID == out.User.ID.String()
	}, time.Second, 10*time.Millisecond)
}

func TestVerifyOtp_SecondVerificationIsNotNewUser(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())

	first := mustVerify(t, fixtures, "09123456789")

	second := mustVerify(t, fixtures, "09123456789")
	assert.False(t, second.NewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestVerifyOtp_RejectsGarbageTempToken(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())

	out, err := fixtures.service.VerifyOtp(context.Background(), &usecase.VerifyOtpInput{
		TempToken: "not-a-token",
		Code:      "1234",
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrTempTokenInvalid)
}

func TestVerifyOtp_NoChallenge(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())

	out, err := fixtures.service.VerifyOtp(context.Background(), &usecase.VerifyOtpInput{
		TempToken: "temp|09123456789",
		Code:      "1234",
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrChallengeNotFound)
}

func TestVerifyOtp_ExpiredChallengeIsDiscarded(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	challenge := &entity.OtpChallenge{
		Phone:     entity.Phone("09123456789"),
		CodeHash:  "hashed:1234",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, fixtures.otps.Create(ctx, challenge))

	out, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: "temp|09123456789",
		Code:      "1234",
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrOtpExpired)

	// The expired challenge is gone; the next attempt sees no challenge at all.
	_, err = fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: "temp|09123456789",
		Code:      "1234",
	})
	assert.ErrorIs(t, err, domainerrors.ErrChallengeNotFound)
}

func TestVerifyOtp_AttemptCap(t *testing.T) {
	t.Parallel()

	cfg := defaultOtpConfig()
	cfg.MaxAttempts = 3
	fixtures := createTestOtpAuthService(cfg)
	ctx := context.Background()

	sendOut, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)

	wrong := "0000"
	if sendOut.Code == wrong {
		wrong = "0001"
	}

	for range 3 {
		_, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
			TempToken: sendOut.TempToken,
			Code:      wrong,
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidOtp)
	}

	// Locked now, even for the correct code.
	out, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: sendOut.TempToken,
		Code:      sendOut.Code,
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrTooManyAttempts)
}

func TestVerifyOtp_ChecksMostRecentChallenge(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	first, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)
	second, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)

	if first.Code != second.Code {
		_, err = fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
			TempToken: first.TempToken,
			Code:      first.Code,
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidOtp)
	}

	out, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: second.TempToken,
		Code:      second.Code,
	})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestVerifyOtp_ConcurrentConsumeIsExactlyOnce(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	sendOut, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: "09123456789"})
	require.NoError(t, err)

	const workers = 16

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, results[i] = fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
				TempToken: sendOut.TempToken,
				Code:      sendOut.Code,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++

			continue
		}
		assert.ErrorIs(t, err, domainerrors.ErrChallengeNotFound)
	}
	assert.Equal(t, 1, succeeded)
}

func TestVerifyOtp_RotationInvalidatesPreviousRefreshToken(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	first := mustVerify(t, fixtures, "09123456789")
	second := mustVerify(t, fixtures, "09123456789")
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-away token no longer matches the stored hash.
	out, err := fixtures.service.RefreshToken(ctx, &usecase.RefreshTokenInput{
		Phone:        "09123456789",
		RefreshToken: first.RefreshToken,
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// The current token still works.
	out, err = fixtures.service.RefreshToken(ctx, &usecase.RefreshTokenInput{
		Phone:        "09123456789",
		RefreshToken: second.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
}

func TestRefreshToken_MintsNewAccessToken(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	verified := mustVerify(t, fixtures, "09123456789")

	out, err := fixtures.service.RefreshToken(ctx, &usecase.RefreshTokenInput{
		Phone:        "0098 912 345 6789",
		RefreshToken: verified.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEqual(t, verified.AccessToken, out.AccessToken)

	claims, err := fixtures.tokens.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, verified.User.ID, claims.UserID)

	// Refresh never rotates; the same refresh token keeps working.
	again, err := fixtures.service.RefreshToken(ctx, &usecase.RefreshTokenInput{
		Phone:        "09123456789",
		RefreshToken: verified.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, again.AccessToken)
}

func TestRefreshToken_UnknownPhone(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())

	out, err := fixtures.service.RefreshToken(context.Background(), &usecase.RefreshTokenInput{
		Phone:        "09123456789",
		RefreshToken: "refresh|whatever|1",
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	verified := mustVerify(t, fixtures, "09123456789")

	require.NoError(t, fixtures.service.Logout(ctx, &usecase.LogoutInput{Phone: "09123456789"}))

	stored, err := fixtures.users.FindByID(ctx, verified.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshTokenHash)

	out, err := fixtures.service.RefreshToken(ctx, &usecase.RefreshTokenInput{
		Phone:        "09123456789",
		RefreshToken: verified.RefreshToken,
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	assert.Eventually(t, func() bool {
		for _, event := range fixtures.publisher.all() {
			if event.Type == service.AuthEventLoggedOut && event.UserID == verified.User.ID.String() {
				return true
			}
		}

		return false
	}, time.Second, 10*time.Millisecond)
}

func TestLogout_IsIdempotent(t *testing.T) {
	t.Parallel()

	fixtures := createTestOtpAuthService(defaultOtpConfig())
	ctx := context.Background()

	mustVerify(t, fixtures, "09123456789")

	require.NoError(t, fixtures.service.Logout(ctx, &usecase.LogoutInput{Phone: "09123456789"}))
	require.NoError(t, fixtures.service.Logout(ctx, &usecase.LogoutInput{Phone: "09123456789"}))

	// Logging out a phone that never registered succeeds silently.
	assert.NoError(t, fixtures.service.Logout(ctx, &usecase.LogoutInput{Phone: "09998887766"}))
}

// mustVerify runs a full send+verify round for the phone and fails the test on any error.
func mustVerify(t *testing.T, fixtures otpAuthFixtures, phone string) *usecase.VerifyOtpOutput {
	t.Helper()
	ctx := context.Background()

	sendOut, err := fixtures.service.SendOtp(ctx, &usecase.SendOtpInput{Phone: phone})
	require.NoError(t, err)

	out, err := fixtures.service.VerifyOtp(ctx, &usecase.VerifyOtpInput{
		TempToken: sendOut.TempToken,
		Code:      sendOut.Code,
	})
	require.NoError(t, err)

	return out
}
