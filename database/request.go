package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
)

// ErrAdminUserNotFound is returned when no admin_users row matches
var ErrAdminUserNotFound = apperror.NotFound("admin user not found")

const adminUserColumns = `id, username, email, password_hash, full_name, role, is_active, created_at, updated_at`

// FindAdminUserByEmail returns the first admin user with the given email, ignoring case
func (s *PostgreSQLStore) FindAdminUserByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	query := s.db.Rebind(`SELECT ` + adminUserColumns + ` FROM admin_users WHERE LOWER(email) = LOWER(?) ORDER BY id LIMIT 1`)

	user := new(model.AdminUser)
	if err := s.db.GetContext(ctx, user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminUserNotFound
		}
		return nil, errors.Wrapf(err, "find admin user by email %q", email)
	}
	return user, nil
}

// GetAdminUserByID loads one admin user
func (s *PostgreSQLStore) GetAdminUserByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	query := s.db.Rebind(`SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = ?`)

	user := new(model.AdminUser)
	if err := s.db.GetContext(ctx, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminUserNotFound
		}
		return nil, errors.Wrapf(err, "get admin user %d", id)
	}
	return user, nil
}

// AdminUsernameExists reports whether a username is already taken
func (s *PostgreSQLStore) AdminUsernameExists(ctx context.Context, username string) (bool, error) {
	query := s.db.Rebind(`SELECT COUNT(1) FROM admin_users WHERE username = ?`)

	var count int
	if err := s.db.GetContext(ctx, &count, query, username); err != nil {
		return false, errors.Wrapf(err, "check username %q", username)
	}
	return count > 0, nil
}

// CreateAdminUser inserts user and fills in its id and timestamps
func (s *PostgreSQLStore) CreateAdminUser(ctx context.Context, user *model.AdminUser) error {
	now := time.Now().UTC()
	query := s.db.Rebind(`
		INSERT INTO admin_users (username, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id uint
	err := s.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.IsActive,
		now,
		now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("admin username already exists")
		}
		return errors.Wrapf(err, "insert admin user %q", user.Username)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// DeleteAdminUser removes an admin user. ErrAdminUserNotFound if nothing was deleted.
func (s *PostgreSQLStore) DeleteAdminUser(ctx context.Context, id uint) error {
	query := s.db.Rebind(`DELETE FROM admin_users WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrapf(err, "delete admin user %d", id)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete admin user rows affected")
	}
	if affected == 0 {
		return ErrAdminUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// sqlite, used in tests
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
