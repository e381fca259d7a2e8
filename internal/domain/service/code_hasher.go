// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// CodeHasher defines the interface for slow hashing of OTP codes and refresh
// tokens. This abstracts the underlying algorithm (e.g., bcrypt), keeping the
// domain pure. Implementations are expected to bound their own concurrency
// since the hash is deliberately expensive.
type CodeHasher interface {
	// Hash generates a salted hash from a plaintext value.
	Hash(ctx context.Context, value string) (string, error)

	// Check compares a plaintext value with a hash to see if they match.
	Check(ctx context.Context, value, hash string) bool
}
