package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher is the one-way password hashing collaborator.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher hashes with bcrypt and caps how many hashes run at once so a
// burst of sign-ins cannot starve the process of CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

var _ Hasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher allowing maxConcurrent bcrypt operations.
func NewBcryptHasher(cost, maxConcurrent int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}
	return string(bytes), nil
}

// Compare reports whether password matches hash. bcrypt compares in constant
// time. A malformed hash is a mismatch, not an error.
func (h *BcryptHasher) Compare(ctx context.Context, password, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// acquire takes a hashing slot. A request that is already cancelled never
// gets one.
func (h *BcryptHasher) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for hasher: %w", err)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for hasher: %w", err)
	}
	return nil
}
