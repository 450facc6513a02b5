package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sirupsen/logrus"
)

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	AllowedOrigins    string // comma separated
	RateLimitRequests int    // per IP and window; 0 disables the limiter
	RateLimitWindow   time.Duration
}

// SetupSecurity installs the global middleware chain. Call it before any route is registered.
func SetupSecurity(app *fiber.App, config SecurityConfig) {
	origins := normalizeOrigins(config.AllowedOrigins)

	app.Use(
		requestid.New(),
		RequestLogger(),
		recover.New(recover.Config{EnableStackTrace: true}),
		helmet.New(helmet.Config{
			XSSProtection:      "1; mode=block",
			ContentTypeNosniff: "nosniff",
			XFrameOptions:      "DENY",
			HSTSMaxAge:         31536000,
			ReferrerPolicy:     "no-referrer",
		}),
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: origins != "*",
			MaxAge:           int((24 * time.Hour).Seconds()),
		}),
	)

	if config.RateLimitRequests > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          config.RateLimitRequests,
			Expiration:   config.RateLimitWindow,
			KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
			LimitReached: func(c *fiber.Ctx) error {
				return response.Error(c, fiber.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
			},
		}))
	}
}

// normalizeOrigins trims blanks around each origin and drops empty entries
func normalizeOrigins(raw string) string {
	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

// RequestLogger logs one structured line per request
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		entry := logrus.WithFields(logrus.Fields{
			"status":     status,
			"method":     c.Method(),
			"path":       c.Path(),
			"ip":         c.IP(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		})
		switch {
		case err != nil:
			entry.WithError(err).Error("request failed")
		case status >= fiber.StatusInternalServerError:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return err
	}
}
