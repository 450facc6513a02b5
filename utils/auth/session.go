package auth

import (
	"context"
	"errors"

	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
)

var (
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrUnknownAccount   = errors.New("account not found")
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrTokenInvalidated = errors.New("token has been invalidated")
)

// Sessions maps verified claims back to a live super admin account
type Sessions struct {
	db        *gorm.DB
	blacklist *BlacklistService
}

// NewSessions creates a session resolver over the superadmin datastore
func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db, blacklist: NewBlacklistService(db)}
}

// Blacklist returns the blacklist the resolver checks against
func (s *Sessions) Blacklist() *BlacklistService {
	return s.blacklist
}

// Resolve loads the account behind claims. The token must not be revoked, the
// account must be active and its token version must match.
func (s *Sessions) Resolve(ctx context.Context, claims *Claims) (*model.SuperAdmin, error) {
	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	var admin model.SuperAdmin
	if err := s.db.WithContext(ctx).First(&admin, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	switch {
	case !admin.IsActive:
		return nil, ErrAccountDisabled
	case admin.TokenVersion != claims.TokenVersion:
		return nil, ErrTokenInvalidated
	}
	return &admin, nil
}

// IsSessionError reports whether err means the caller is not authenticated,
// as opposed to a datastore failure
func IsSessionError(err error) bool {
	for _, target := range []error{
		ErrInvalidToken, ErrExpiredToken, ErrWrongTokenType,
		ErrTokenRevoked, ErrUnknownAccount, ErrAccountDisabled, ErrTokenInvalidated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PrincipalOf returns the token subject for a super admin
func PrincipalOf(admin *model.SuperAdmin) Principal {
	return Principal{
		ID:           admin.ID,
		Email:        admin.Email,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
	}
}
