package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/cwrk-planet/signal-service/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPinBytes is bcrypt's input limit. Longer PINs are refused, never cut.
const MaxPinBytes = 72

type PinConfig struct {
	Cost int // bcrypt cost, DefaultCost when 0
}

// NormalizePin trims surrounding whitespace; the rest is compared exactly.
func NormalizePin(pin string) string {
	return strings.TrimSpace(pin)
}

// HashPin returns "" for an empty PIN, meaning the room is open.
// It is CPU-bound; callers keep it off latency-sensitive goroutines.
func HashPin(pin string, cfg PinConfig) (string, error) {
	pin = NormalizePin(pin)
	if pin == "" {
		return "", nil
	}
	if len(pin) > MaxPinBytes {
		return "", domain.ErrPinTooLong
	}
	cost := bcrypt.DefaultCost
	if cfg.Cost > 0 {
		cost = cfg.Cost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePin checks a join attempt against the room's hash.
// An open room accepts any PIN; a protected room rejects a missing one.
func ComparePin(hash, pin string) error {
	if hash == "" {
		return nil
	}
	pin = NormalizePin(pin)
	if pin == "" || len(pin) > MaxPinBytes {
		// nothing this long was ever hashed
		return domain.ErrWrongPin
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrWrongPin
	}
	return err
}

// NewHostToken issues the secret that lets a host reclaim its room from a new connection.
func NewHostToken() string {
	return uuid.NewString()
}

func TokenEqual(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
