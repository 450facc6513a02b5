package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Principal is the account a token is issued for
type Principal struct {
	ID           uint
	Email        string
	Role         string
	TokenVersion int
}

// Claims represents JWT claims
type Claims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenType    string `json:"token_type"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, or the zero time when it is missing
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenPair is an access token together with the refresh token that renews it
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// JWTManager signs and verifies HS256 tokens
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config, now: time.Now}
}

// Sign issues a single token of the given type and returns it with its jti
func (j *JWTManager) Sign(p Principal, tokenType string) (string, string, error) {
	ttl := j.config.Expiry
	if tokenType == TokenTypeRefresh {
		ttl = j.config.RefreshExpiry
	}

	now := j.now()
	jti := uuid.NewString()
	claims := Claims{
		UserID:       p.ID,
		Email:        p.Email,
		Role:         p.Role,
		TokenType:    tokenType,
		TokenVersion: p.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   p.Email,
			Issuer:    j.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.config.Secret))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// IssuePair signs a fresh access and refresh token for p
func (j *JWTManager) IssuePair(p Principal) (TokenPair, error) {
	access, _, err := j.Sign(p, TokenTypeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := j.Sign(p, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: j.config.Expiry}, nil
}

// Parse verifies signature, issuer and expiry and requires the given token type
func (j *JWTManager) Parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(j.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.config.Issuer),
		jwt.WithTimeFunc(j.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != tokenType:
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
