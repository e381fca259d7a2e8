// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"otpgate/config"
	"otpgate/internal/domain/service"
)

const defaultHashWorkers = 8

// bcryptHasher is a concrete implementation of the CodeHasher interface using bcrypt.
// A buffered-channel semaphore bounds concurrent hashing so a burst of OTP
// verifications cannot monopolize CPU and starve unrelated requests.
type bcryptHasher struct {
	cost    int
	workers chan struct{}
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.CodeHasher interface.
func NewBcryptHasher(cfg *config.Config) service.CodeHasher {
	cost := bcrypt.DefaultCost
	workers := defaultHashWorkers
	if cfg != nil && cfg.Auth != nil {
		if cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
			cost = cfg.Auth.BcryptCost
		}
		if cfg.Auth.HashWorkers > 0 {
			workers = cfg.Auth.HashWorkers
		}
	}

	return &bcryptHasher{
		cost:    cost,
		workers: make(chan struct{}, workers),
	}
}

// Hash generates a salted hash from a plaintext value using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(ctx context.Context, value string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	bytes, err := bcrypt.GenerateFromPassword([]byte(value), h.cost)

	return string(bytes), err
}

// Check compares a plaintext value with a bcrypt hash.
func (h *bcryptHasher) Check(ctx context.Context, value, hash string) bool {
	if err := h.acquire(ctx); err != nil {
		return false
	}
	defer h.release()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(value))
	// err is nil if the value and hash match.
	return err == nil
}

func (h *bcryptHasher) acquire(ctx context.Context) error {
	select {
	case h.workers <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *bcryptHasher) release() {
	<-h.workers
}
