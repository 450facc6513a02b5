package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/utils"
	"github.com/sirupsen/logrus"
)

// HandleCheckHealth pings every datastore and answers 503 when one of them is down
func HandleCheckHealth(c *fiber.Ctx, stores map[string]utils.HealthChecker) error {
	checks := fiber.Map{}
	healthy := true

	for name, store := range stores {
		if err := store.HealthCheck(); err != nil {
			logrus.WithError(err).WithField("datastore", name).Warn("health check failed")
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":     "degraded",
			"datastores": checks,
		})
	}

	return c.JSON(fiber.Map{
		"status":     "ok",
		"datastores": checks,
	})
}
