package database

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sirupsen/logrus"
)

// Storage defines the lifecycle every datastore implementation must satisfy
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
}

var (
	_ Storage = (*GORMStore)(nil)
	_ Storage = (*PostgreSQLStore)(nil)
)

// PostgreSQLStore is the primary (per-college) datastore, accessed with raw SQL
type PostgreSQLStore struct {
	db *sqlx.DB
}

// Start connects to the primary PostgreSQL database
func Start(cfg config.DatabaseConfig) (*PostgreSQLStore, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		logrus.WithError(err).WithField("database", cfg.Name).Error("unable to open primary datastore")
		return nil, errors.Wrap(err, "open primary datastore")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping primary datastore")
	}

	applyPool(db.DB, cfg)

	logrus.WithField("database", cfg.Name).Info("connected to primary datastore")
	return &PostgreSQLStore{
		db: db,
	}, nil
}

// NewPostgreSQLStore wraps an already opened connection
func NewPostgreSQLStore(db *sqlx.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

func (s *PostgreSQLStore) Init() error {
	logrus.Info("initializing primary datastore")
	return s.Initialize()
}

func (s *PostgreSQLStore) Close() error {
	logrus.Info("closing primary datastore")
	return s.db.Close()
}

// DB returns the underlying connection
func (s *PostgreSQLStore) DB() *sqlx.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
