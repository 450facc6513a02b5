package database

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GORMStore is the superadmin datastore: super admins, heads, universities,
// the assignment ledger and the audit trail
type GORMStore struct {
	db *gorm.DB
}

// gormLogLevel logs every statement in development and only failures in production
func gormLogLevel(production bool) logger.LogLevel {
	if production {
		return logger.Error
	}
	return logger.Info
}

// gormLogger routes GORM's own output through logrus
func gormLogger(production bool) logger.Interface {
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLogLevel(production),
		IgnoreRecordNotFoundError: true,
	})
}

func applyPool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// StartGORM connects to the superadmin PostgreSQL database
func StartGORM(cfg config.DatabaseConfig, production bool) (*GORMStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger(production),
		TranslateError: true,
		PrepareStmt:    true,
	})
	if err != nil {
		logrus.WithError(err).WithField("database", cfg.Name).Error("unable to connect to superadmin datastore")
		return nil, errors.Wrap(err, "open superadmin datastore")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, cfg)

	logrus.WithField("database", cfg.Name).Info("connected to superadmin datastore")
	return &GORMStore{db: db}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// Init migrates every superadmin table
func (s *GORMStore) Init() error {
	models := model.SuperadminModels()
	if err := s.db.AutoMigrate(models...); err != nil {
		return errors.Wrap(err, "migrate superadmin datastore")
	}
	logrus.WithField("tables", len(models)).Info("superadmin datastore migrated")
	return nil
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	logrus.Info("closing superadmin datastore")
	return sqlDB.Close()
}

// DB returns the GORM handle services are built on
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck pings the underlying connection
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
