package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/you/homeauth/domain"
	"golang.org/x/crypto/bcrypt"
)

type OTPConfig struct {
	Length   int
	TTL      time.Duration
	HashCost int
}

// OTPEngineImpl implements domain.OTPEngine; codes live on the identity record
type OTPEngineImpl struct {
	config OTPConfig
}

// NewOTPEngine creates a new OTP engine
func NewOTPEngine(config OTPConfig) domain.OTPEngine {
	if config.Length <= 0 {
		config.Length = 6
	}
	if config.HashCost < 10 {
		config.HashCost = 10
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	return &OTPEngineImpl{config: config}
}

// TTL implements domain.OTPEngine
func (e *OTPEngineImpl) TTL() time.Duration {
	return e.config.TTL
}

// Generate implements domain.OTPEngine with uniformly distributed digits
func (e *OTPEngineImpl) Generate() (string, error) {
	digits := make([]byte, e.config.Length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// Hash implements domain.OTPEngine
func (e *OTPEngineImpl) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), e.config.HashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare implements domain.OTPEngine
func (e *OTPEngineImpl) Compare(code, hash string) bool {
	if hash == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// Issue implements domain.OTPEngine
func (e *OTPEngineImpl) Issue(identity *domain.Identity, code string, purpose domain.OTPPurpose, channel domain.OTPChannel, now time.Time) error {
	state := &domain.OTPState{
		Purpose:   purpose,
		Channel:   channel,
		ExpiresAt: now.Add(e.config.TTL),
	}
	if channel == domain.ChannelLocal {
		hash, err := e.Hash(code)
		if err != nil {
			return fmt.Errorf("failed to hash OTP: %w", err)
		}
		state.CodeHash = hash
	}
	identity.OTP = state
	return nil
}

// Pending implements domain.OTPEngine
func (e *OTPEngineImpl) Pending(identity *domain.Identity, purposes []domain.OTPPurpose, now time.Time) (*domain.OTPState, error) {
	state := identity.OTP
	if state == nil {
		return nil, domain.ErrNoOTPPending
	}
	if len(purposes) > 0 && !slices.Contains(purposes, state.Purpose) {
		return nil, domain.ErrNoOTPPending
	}
	if state.Channel == domain.ChannelLocal && state.CodeHash == "" {
		return nil, domain.ErrNoOTPPending
	}
	if now.After(state.ExpiresAt) {
		identity.OTP = nil
		return nil, domain.ErrOTPExpired
	}
	return state, nil
}

// Consume implements domain.OTPEngine. A wrong code leaves the state in place.
func (e *OTPEngineImpl) Consume(identity *domain.Identity, code string, purposes []domain.OTPPurpose, now time.Time) (*domain.OTPState, error) {
	state, err := e.Pending(identity, purposes, now)
	if err != nil {
		return nil, err
	}
	if state.Channel != domain.ChannelLocal || !e.Compare(code, state.CodeHash) {
		return nil, domain.ErrOTPInvalid
	}
	identity.OTP = nil
	return state, nil
}
