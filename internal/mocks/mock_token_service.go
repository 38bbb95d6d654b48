package mocks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/you/homeauth/domain"
)

// MockTokenService implements domain.TokenService interface for testing.
// Default tokens are readable strings of the form "<typ>|<id>|<role>|<version>".
type MockTokenService struct {
	IssueTokensFunc          func(identity *domain.Identity) (*domain.TokenPair, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueTokens returns a readable token pair
func (m *MockTokenService) IssueTokens(identity *domain.Identity) (*domain.TokenPair, error) {
	if m.IssueTokensFunc != nil {
		return m.IssueTokensFunc(identity)
	}
	return &domain.TokenPair{
		AccessToken:  mockToken("access", identity),
		RefreshToken: mockToken("refresh", identity),
		ExpiresIn:    900,
	}, nil
}

// ValidateAccessToken parses a default access token
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return parseMockToken("access", token)
}

// ValidateRefreshToken parses a default refresh token
func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	return parseMockToken("refresh", token)
}

func mockToken(typ string, identity *domain.Identity) string {
	return fmt.Sprintf("%s|%s|%s|%d", typ, identity.ID, identity.Role, identity.TokenVersion)
}

func parseMockToken(typ, token string) (*domain.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != typ {
		return nil, domain.ErrTokenInvalid
	}
	version, err := strconv.Atoi(parts[3])
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now().Unix()
	return &domain.TokenClaims{
		Subject:      parts[1],
		Role:         parts[2],
		TokenVersion: version,
		TokenType:    typ,
		IssuedAt:     now,
		ExpiresAt:    now + 900,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
