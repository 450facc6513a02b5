package app

import (
	"time"

	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sirupsen/logrus"
)

const assignmentLockTTL = 30 * time.Second

// Runtime holds the opened datastores and the services built on them. It is
// shared by the HTTP server and the collegectl commands.
type Runtime struct {
	Config     *config.EnviornmentVariable
	Superadmin *database.GORMStore
	Primary    *database.PostgreSQLStore
	Redis      *cache.RedisCache // nil when Redis is unreachable

	Heads        *services.HeadService
	Universities *services.UniversityService
	Assignments  *services.AssignmentService

	closeLog func() error
}

// Bootstrap loads configuration, configures logging and connects to both
// datastores. Redis is optional.
func Bootstrap() (*Runtime, error) {
	if err := config.LoadENV(); err != nil {
		return nil, err
	}

	cfg, err := config.Get()
	if err != nil {
		return nil, err
	}

	closeLog, err := utils.ConfigureLogger(utils.LoggerConfig{
		Level:      cfg.LOG_LEVEL,
		File:       cfg.LOG_FILE,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, closeLog: closeLog}

	rt.Superadmin, err = database.StartGORM(cfg.SUPERADMIN_DB, cfg.IsProduction())
	if err != nil {
		logrus.Error("check whether the superadmin PostgreSQL is running")
		rt.Close()
		return nil, err
	}

	rt.Primary, err = database.Start(cfg.PRIMARY_DB)
	if err != nil {
		logrus.Error("check whether the primary PostgreSQL is running")
		rt.Close()
		return nil, err
	}

	rt.Redis, err = cache.NewRedisCache(cfg.REDIS_URL)
	if err != nil {
		logrus.WithError(err).Warn("failed to connect to Redis; brute force protection and assignment locks are disabled")
		rt.Redis = nil
	}

	opts := services.AssignmentOptions{DefaultPassword: cfg.DEFAULT_ADMIN_PASSWORD}
	if rt.Redis != nil {
		opts.Locker = cache.NewLocker(rt.Redis, assignmentLockTTL)
	}

	db := rt.Superadmin.DB()
	rt.Assignments = services.NewAssignmentService(db, rt.Primary, opts)
	rt.Heads = services.NewHeadService(db, rt.Primary)
	rt.Universities = services.NewUniversityService(db, rt.Heads, rt.Assignments)

	return rt, nil
}

// Migrate creates or updates the tables of both datastores
func (rt *Runtime) Migrate() error {
	if err := rt.Superadmin.Init(); err != nil {
		return err
	}
	return rt.Primary.Init()
}

// Close releases every connection that was opened
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close Redis")
		}
	}
	if rt.Primary != nil {
		if err := rt.Primary.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close primary datastore")
		}
	}
	if rt.Superadmin != nil {
		if err := rt.Superadmin.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close superadmin datastore")
		}
	}
	if rt.closeLog != nil {
		_ = rt.closeLog()
	}
}
