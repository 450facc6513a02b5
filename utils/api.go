package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// HealthChecker is anything that can report whether its backing service is reachable
type HealthChecker interface {
	HealthCheck() error
}

// MakeHTTPHandleFunc adapts a handler that needs the datastores into a fiber handler
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, stores map[string]HealthChecker) error, stores map[string]HealthChecker) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, stores); err != nil {
			logrus.WithError(err).WithField("path", c.Path()).Error("handler failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return nil
	}
}
