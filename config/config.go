package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is not set")

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// DatabaseConfig holds the connection settings of one datastore
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds a libpq keyword/value connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type EnviornmentVariable struct {
	GO_ENV string
	PORT   int

	// Cross-tenant master data (universities, heads, super admins)
	SUPERADMIN_DB DatabaseConfig
	// Per-college operational data (admin_users)
	PRIMARY_DB DatabaseConfig

	// JWT Configuration
	JWT_SECRET         string
	JWT_ISSUER         string
	JWT_EXPIRY         time.Duration
	JWT_REFRESH_EXPIRY time.Duration

	// Redis Configuration
	REDIS_URL string

	// Background jobs
	CRON_ENABLED           bool
	RECONCILE_GRACE_PERIOD time.Duration

	// Provisioning
	DEFAULT_ADMIN_PASSWORD string
	ADMIN_EMAIL            string
	ADMIN_PASSWORD         string

	ALLOWED_ORIGINS string
	LOG_LEVEL       string
	LOG_FILE        string
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("PORT", 8080)

	for _, prefix := range []string{"SUPERADMIN_DB", "PRIMARY_DB"} {
		v.SetDefault(prefix+"_HOST", "localhost")
		v.SetDefault(prefix+"_PORT", "5432")
		v.SetDefault(prefix+"_USER_NAME", "postgres")
		v.SetDefault(prefix+"_SSL_MODE", "disable")
		v.SetDefault(prefix+"_MAX_IDLE_CONNS", 10)
		v.SetDefault(prefix+"_CONN_MAX_LIFETIME", time.Hour)
	}
	v.SetDefault("SUPERADMIN_DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("PRIMARY_DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("SUPERADMIN_DB_NAME", "college_superadmin")
	v.SetDefault("PRIMARY_DB_NAME", "college_primary")

	v.SetDefault("JWT_ISSUER", "college-admin-api")
	v.SetDefault("JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7*24*time.Hour)

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")

	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("RECONCILE_GRACE_PERIOD", 5*time.Minute)

	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "Admin@123")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("LOG_LEVEL", "info")
}

func databaseConfig(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:     v.GetString(prefix + "_HOST"),
		Port:     v.GetString(prefix + "_PORT"),
		User:     v.GetString(prefix + "_USER_NAME"),
		Password: v.GetString(prefix + "_PASSWORD"),
		Name:     v.GetString(prefix + "_NAME"),
		SSLMode:  v.GetString(prefix + "_SSL_MODE"),

		MaxOpenConns:    v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt(prefix + "_MAX_IDLE_CONNS"),
		ConnMaxLifetime: v.GetDuration(prefix + "_CONN_MAX_LIFETIME"),
	}
}

func Get() (*EnviornmentVariable, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	envVariables := &EnviornmentVariable{
		GO_ENV:        v.GetString("GO_ENV"),
		PORT:          v.GetInt("PORT"),
		SUPERADMIN_DB: databaseConfig(v, "SUPERADMIN_DB"),
		PRIMARY_DB:    databaseConfig(v, "PRIMARY_DB"),
		// JWT
		JWT_SECRET:         v.GetString("JWT_SECRET"),
		JWT_ISSUER:         v.GetString("JWT_ISSUER"),
		JWT_EXPIRY:         v.GetDuration("JWT_EXPIRY"),
		JWT_REFRESH_EXPIRY: v.GetDuration("JWT_REFRESH_EXPIRY"),
		// Redis
		REDIS_URL: v.GetString("REDIS_URL"),
		// Jobs
		CRON_ENABLED:           v.GetBool("CRON_ENABLED"),
		RECONCILE_GRACE_PERIOD: v.GetDuration("RECONCILE_GRACE_PERIOD"),
		// Provisioning
		DEFAULT_ADMIN_PASSWORD: v.GetString("DEFAULT_ADMIN_PASSWORD"),
		ADMIN_EMAIL:            v.GetString("ADMIN_EMAIL"),
		ADMIN_PASSWORD:         v.GetString("ADMIN_PASSWORD"),

		ALLOWED_ORIGINS: v.GetString("ALLOWED_ORIGINS"),
		LOG_LEVEL:       v.GetString("LOG_LEVEL"),
		LOG_FILE:        v.GetString("LOG_FILE"),
	}

	if envVariables.PORT <= 0 {
		envVariables.PORT = 8080
	}

	return envVariables, nil
}

// Validate checks settings the server cannot start without
func (e *EnviornmentVariable) Validate() error {
	if e.JWT_SECRET == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
