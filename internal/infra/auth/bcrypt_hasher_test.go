package auth

import (
	"context"
	"sync"
	"testing"

	"otpgate/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newFastHasherConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:  bcrypt.MinCost,
			HashWorkers: 4,
		},
	}
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(newFastHasherConfig())
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "1234")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "1234", hash)

	assert.True(t, hasher.Check(ctx, "1234", hash))
	assert.False(t, hasher.Check(ctx, "4321", hash))
	assert.False(t, hasher.Check(ctx, "1234", "not-a-hash"))
}

func TestBcryptHasher_SaltsEveryHash(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(newFastHasherConfig())
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "1234")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "1234")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_CancelledContext(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:  bcrypt.MinCost,
			HashWorkers: 1,
		},
	}
	hasher := NewBcryptHasher(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With the context already cancelled, acquiring a worker slot can fail.
	// Either outcome is acceptable for Hash, but Check must report false.
	if _, err := hasher.Hash(ctx, "1234"); err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestBcryptHasher_ConcurrentUse(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(newFastHasherConfig())
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "1234")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()

			results[i] = hasher.Check(ctx, "1234", hash)
		}()
	}
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
}

func TestBcryptHasher_DefaultsWithoutConfig(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(&config.Config{})
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, hasher.Check(ctx, "1234", hash))
}
