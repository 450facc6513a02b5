package model

import "time"

// AdminUserRole is the role given to accounts provisioned for institutional heads
const AdminUserRole = "Admin"

// AdminUser is a login-capable account in the per-college (primary) datastore.
// It is read and written with raw SQL, hence the db tags.
type AdminUser struct {
	ID           uint      `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose password in JSON
	FullName     string    `db:"full_name" json:"fullName"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
