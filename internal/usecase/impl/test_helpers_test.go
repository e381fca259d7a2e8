package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"otpgate/config"
	"otpgate/internal/domain/entity"
	"otpgate/internal/domain/repository"
	"otpgate/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(otp *config.OtpConfig) *config.Config {
	return &config.Config{
		Otp: otp,
	}
}

// --- in-memory repositories ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cloned := *user

	return &cloned, nil
}

func (r *fakeUserRepo) FindByPhone(_ context.Context, phone entity.Phone) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Phone == phone {
			cloned := *user

			return &cloned, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Phone == user.Phone {
			return errors.New("duplicate phone")
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	cloned := *user
	r.users[user.ID] = &cloned

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}

	cloned := *user
	cloned.RefreshTokenHash = stored.RefreshTokenHash
	cloned.UpdatedAt = time.Now()
	r.users[user.ID] = &cloned

	return nil
}

func (r *fakeUserRepo) UpdateRefreshTokenHash(_ context.Context, id uuid.UUID, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.RefreshTokenHash = hash

	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		cloned := *user
		users = append(users, &cloned)
	}

	return users, nil
}

type fakeOtpRepo struct {
	mu         sync.Mutex
	challenges []*entity.OtpChallenge
}

func newFakeOtpRepo() *fakeOtpRepo {
	return &fakeOtpRepo{}
}

func (r *fakeOtpRepo) CountCreatedSince(_ context.Context, phone entity.Phone, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, challenge := range r.challenges {
		if challenge.Phone == phone && !challenge.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (r *fakeOtpRepo) Create(_ context.Context, challenge *entity.OtpChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now()
	}

	cloned := *challenge
	r.challenges = append(r.challenges, &cloned)

	return nil
}

func (r *fakeOtpRepo) Latest(_ context.Context, phone entity.Phone) (*entity.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Insertion order doubles as creation order.
	for i := len(r.challenges) - 1; i >= 0; i-- {
		if r.challenges[i].Phone == phone {
			cloned := *r.challenges[i]

			return &cloned, nil
		}
	}

	return nil, repository.ErrChallengeNotFound
}

func (r *fakeOtpRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, challenge := range r.challenges {
		if challenge.ID == id {
			challenge.Attempts++

			return nil
		}
	}

	return repository.ErrChallengeNotFound
}

func (r *fakeOtpRepo) Consume(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, challenge := range r.challenges {
		if challenge.ID == id {
			r.challenges = append(r.challenges[:i], r.challenges[i+1:]...)

			return nil
		}
	}

	return repository.ErrChallengeNotFound
}

// fakeTxManager runs the callback directly against the shared fakes; the
// fakes are already safe for concurrent use.
type fakeTxManager struct {
	users *fakeUserRepo
	otps  *fakeOtpRepo
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tm)
}

func (tm *fakeTxManager) UserRepo() repository.UserRepository {
	return tm.users
}

func (tm *fakeTxManager) OtpRepo() repository.OtpChallengeRepository {
	return tm.otps
}

// --- domain service fakes ---

// plainHasher is a deterministic stand-in for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, value string) (string, error) {
	return "hashed:" + value, nil
}

func (plainHasher) Check(_ context.Context, value, hash string) bool {
	return "hashed:"+value == hash
}

// fakeTokenService issues structured opaque strings and remembers the claims
// behind each access/refresh token it signed.
type fakeTokenService struct {
	mu      sync.Mutex
	seq     int
	access  map[string]*service.Claims
	refresh map[string]*service.Claims
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{
		access:  make(map[string]*service.Claims),
		refresh: make(map[string]*service.Claims),
	}
}

func (s *fakeTokenService) SignTempToken(phone entity.Phone) (string, error) {
	return "temp|" + phone.String(), nil
}

func (s *fakeTokenService) VerifyTempToken(tokenString string) (entity.Phone, error) {
	phone, ok := strings.CutPrefix(tokenString, "temp|")
	if !ok {
		return "", errors.New("not a temp token")
	}

	return entity.Phone(phone), nil
}

func (s *fakeTokenService) GenerateTokens(userID uuid.UUID, phone entity.Phone, role entity.Role) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	claims := &service.Claims{UserID: userID, Phone: phone, Role: role}

	accessToken := fmt.Sprintf("access|%s|%d", userID, s.seq)
	refreshToken := fmt.Sprintf("refresh|%s|%d", userID, s.seq)
	s.access[accessToken] = claims
	s.refresh[refreshToken] = claims

	return accessToken, refreshToken, nil
}

func (s *fakeTokenService) SignAccessToken(userID uuid.UUID, phone entity.Phone, role entity.Role) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	accessToken := fmt.Sprintf("access|%s|%d", userID, s.seq)
	s.access[accessToken] = &service.Claims{UserID: userID, Phone: phone, Role: role}

	return accessToken, nil
}

func (s *fakeTokenService) VerifyAccessToken(tokenString string) (*service.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims, ok := s.access[tokenString]
	if !ok {
		return nil, errors.New("unknown access token")
	}

	return claims, nil
}

func (s *fakeTokenService) VerifyRefreshToken(tokenString string) (*service.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claims, ok := s.refresh[tokenString]
	if !ok {
		return nil, errors.New("unknown refresh token")
	}

	return claims, nil
}

// recordingSender captures dispatched codes.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentCode
}

type sentCode struct {
	phone entity.Phone
	code  string
}

func (s *recordingSender) Send(_ context.Context, phone entity.Phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, sentCode{phone: phone, code: code})

	return nil
}

func (s *recordingSender) all() []sentCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]sentCode(nil), s.sent...)
}

// recordingPublisher captures published auth events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.AuthEvent
}

func (p *recordingPublisher) PublishAuthEvent(_ context.Context, event *service.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) all() []*service.AuthEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*service.AuthEvent(nil), p.events...)
}
