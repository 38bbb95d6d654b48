package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/you/homeauth/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTConfig holds signing secrets and lifetimes
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string // falls back to AccessSecret when empty
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWTServiceImpl implements domain.TokenService
type JWTServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg JWTConfig) domain.TokenService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.AccessSecret
	}
	return &JWTServiceImpl{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(refresh),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssueTokens implements domain.TokenService
func (j *JWTServiceImpl) IssueTokens(identity *domain.Identity) (*domain.TokenPair, error) {
	now := j.now()

	access := jwt.MapClaims{
		"sub":           identity.ID,
		"role":          identity.Role,
		"token_version": identity.TokenVersion,
		"typ":           tokenTypeAccess,
		"iss":           j.issuer,
		"iat":           now.Unix(),
		"exp":           now.Add(j.accessTTL).Unix(),
		"jti":           uuid.NewString(),
	}
	if identity.Username != "" {
		access["username"] = identity.Username
	}
	if identity.Email != "" {
		access["email"] = identity.Email
	}
	if identity.Phone != "" {
		access["phone"] = identity.Phone
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(j.accessKey)
	if err != nil {
		return nil, err
	}

	refresh := jwt.MapClaims{
		"sub":           identity.ID,
		"role":          identity.Role,
		"token_version": identity.TokenVersion,
		"typ":           tokenTypeRefresh,
		"iss":           j.issuer,
		"iat":           now.Unix(),
		"exp":           now.Add(j.refreshTTL).Unix(),
		"jti":           uuid.NewString(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(j.refreshKey)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(j.accessTTL.Seconds()),
	}, nil
}

// ValidateAccessToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return j.validateToken(tokenString, j.accessKey, tokenTypeAccess)
}

// ValidateRefreshToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.validateToken(tokenString, j.refreshKey, tokenTypeRefresh)
}

// validateToken checks signature, expiry and token type, then extracts claims
func (j *JWTServiceImpl) validateToken(tokenString string, key []byte, expectedType string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	if typ, _ := claims["typ"].(string); typ != expectedType {
		return nil, domain.ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, domain.ErrTokenInvalid
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	// JSON numbers decode as float64
	version, ok := claims["token_version"].(float64)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	tokenClaims := &domain.TokenClaims{
		Subject:      sub,
		Role:         role,
		TokenVersion: int(version),
		TokenType:    expectedType,
		IssuedAt:     int64(iat),
		ExpiresAt:    int64(exp),
	}
	tokenClaims.Username, _ = claims["username"].(string)
	tokenClaims.Email, _ = claims["email"].(string)
	tokenClaims.Phone, _ = claims["phone"].(string)

	return tokenClaims, nil
}
