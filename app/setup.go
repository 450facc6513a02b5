package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/college-admin-api/api"
	"github.com/sahilchouksey/college-admin-api/router"
	"github.com/sahilchouksey/college-admin-api/services/cron"
	"github.com/sahilchouksey/college-admin-api/utils"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func SetupAndRunServer() error {
	rt, err := Bootstrap()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Config.Validate(); err != nil {
		return err
	}

	if err := rt.Migrate(); err != nil {
		logrus.WithError(err).Error("failed to initialize database tables")
		return err
	}

	// Initialize Cron Manager (only if enabled)
	if rt.Config.CRON_ENABLED {
		cronManager := cron.NewCronManager(rt.Superadmin.DB(), rt.Assignments, rt.Config.RECONCILE_GRACE_PERIOD)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logrus.WithError(err).Warn("failed to start cron jobs")
		} else {
			defer cronManager.Stop()
		}
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        rt.Config.JWT_SECRET,
		Issuer:        rt.Config.JWT_ISSUER,
		Expiry:        rt.Config.JWT_EXPIRY,
		RefreshExpiry: rt.Config.JWT_REFRESH_EXPIRY,
	})

	server := api.NewAPIServer(fmt.Sprintf(":%d", rt.Config.PORT))
	router.SetupRoutes(server.GetEngine(), router.Dependencies{
		DB:           rt.Superadmin.DB(),
		JWTManager:   jwtManager,
		RedisCache:   rt.Redis,
		Heads:        rt.Heads,
		Universities: rt.Universities,
		Assignments:  rt.Assignments,
		Stores: map[string]utils.HealthChecker{
			"superadmin": rt.Superadmin,
			"primary":    rt.Primary,
		},
		Security: middleware.SecurityConfig{
			AllowedOrigins:    rt.Config.ALLOWED_ORIGINS,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(ctx)
}
