package database

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Initialize creates the primary datastore tables if they are missing
func (s *PostgreSQLStore) Initialize() error {
	logrus.WithField("driver", s.db.DriverName()).Info("initializing primary datastore tables")
	if err := s.InitTables(); err != nil {
		return err
	}
	s.PrintAllRelationships()
	return nil
}

// identityColumn returns the auto-increment primary key syntax of the connected driver
func (s *PostgreSQLStore) identityColumn() string {
	if s.db.DriverName() == "postgres" {
		return "BIGINT PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (s *PostgreSQLStore) InitTables() error {
	adminUsersTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS admin_users (
		id %s,
		username VARCHAR(255) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL,
		password_hash TEXT NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'Admin',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`, s.identityColumn())

	adminUsersEmailIndex := `CREATE INDEX IF NOT EXISTS idx_admin_users_email_lower ON admin_users (LOWER(email))`

	for _, stmt := range []string{adminUsersTable, adminUsersEmailIndex} {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "create admin_users")
		}
	}
	return nil
}

func (s *PostgreSQLStore) PrintAllRelationships() {
	// admin_users has no in-database relations; it is referenced from the superadmin datastore
	relationships := map[string]string{
		"admin_users": "id <- institutional_heads.admin_user_id (superadmin datastore)",
	}

	for table, relationship := range relationships {
		logrus.WithField("table", table).Debug(relationship)
	}
}
