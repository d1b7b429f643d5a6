package authprogram

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/andrebq/taskbox/internal/metrics"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"
)

const (
	saltLen = 16
	keyLen  = 64

	// scrypt cost parameters, N=2^14 r=8 p=1 needs 16MiB per derivation
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
)

type (
	// Hasher runs password derivations on a bounded number of slots.
	// Waiting for a slot (and for the derivation) honours the caller's
	// context, so a slow hash is still bound by the request timeout.
	Hasher struct {
		slots *semaphore.Weighted

		random    io.Reader
		dummyOnce sync.Once
		dummy     string
		dummyErr  error
	}
)

func NewHasher(maxConcurrent int64) *Hasher {
	if maxConcurrent <= 0 {
		maxConcurrent = int64(runtime.NumCPU())
	}
	return &Hasher{slots: semaphore.NewWeighted(maxConcurrent), random: rand.Reader}
}

// HashPassword derives a key from password and a fresh random salt.
func HashPassword(password string) (string, error) {
	var salt [saltLen]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("authprogram: unable to generate salt, cause %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt[:], scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", fmt.Errorf("authprogram: unable to derive key, cause %w", err)
	}
	return hex.EncodeToString(salt[:]) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches stored. Anything that
// does not look like a value produced by HashPassword is a mismatch.
func VerifyPassword(password, stored string) bool {
	saltHex, keyHex, found := strings.Cut(stored, ":")
	if !found {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLen {
		return false
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) != keyLen {
		return false
	}
	actual, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, actual) == 1
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	return runSlot(ctx, h, "hash", func() (string, error) {
		return HashPassword(password)
	})
}

// Verify returns an error only when ctx ends before the comparison finished.
func (h *Hasher) Verify(ctx context.Context, password, stored string) (bool, error) {
	return runSlot(ctx, h, "verify", func() (bool, error) {
		return VerifyPassword(password, stored), nil
	})
}

// Burn spends the same effort as a real verification against a hash that
// cannot match, used when the account does not exist.
func (h *Hasher) Burn(ctx context.Context, password string) error {
	h.dummyOnce.Do(func() {
		var salt [saltLen]byte
		if _, err := io.ReadFull(h.random, salt[:]); err != nil {
			h.dummyErr = fmt.Errorf("authprogram: unable to generate dummy salt, cause %w", err)
			return
		}
		h.dummy = hex.EncodeToString(salt[:]) + ":" + strings.Repeat("00", keyLen)
	})
	if h.dummyErr != nil {
		return h.dummyErr
	}
	_, err := h.Verify(ctx, password, h.dummy)
	return err
}

type slotResult[T any] struct {
	val T
	err error
}

func runSlot[T any](ctx context.Context, h *Hasher, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	done := make(chan slotResult[T], 1)
	go func() {
		defer h.slots.Release(1)
		start := time.Now()
		val, err := fn()
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		done <- slotResult[T]{val: val, err: err}
	}()
	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
