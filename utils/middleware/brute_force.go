package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sirupsen/logrus"
)

const attemptWindow = 15 * time.Minute

// lockoutTiers escalate with the number of failures inside the attempt window,
// largest threshold first
var lockoutTiers = []struct {
	attempts int64
	lockout  time.Duration
}{
	{attempts: 25, lockout: 24 * time.Hour},
	{attempts: 10, lockout: time.Hour},
	{attempts: 5, lockout: 2 * time.Minute},
}

// LockoutFor returns how long an IP is locked out after the given number of failures
func LockoutFor(attempts int64) time.Duration {
	for _, tier := range lockoutTiers {
		if attempts >= tier.attempts {
			return tier.lockout
		}
	}
	return 0
}

// BruteForceProtection throttles login attempts per client IP using Redis
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

func attemptKey(ip string) string { return "brute_force:attempts:" + ip }
func lockKey(ip string) string    { return "brute_force:lock:" + ip }

// CheckAndRecordAttempt rejects requests from locked out IPs with 429
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ttl, err := b.redisCache.TTL(c.UserContext(), lockKey(c.IP()))
		if err != nil {
			// a cache outage must not lock everyone out
			logrus.WithError(err).Warn("brute force check unavailable")
			return c.Next()
		}
		if ttl <= 0 {
			return c.Next()
		}

		retryAfter := int(ttl.Seconds()) + 1
		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailedAttempt counts a failed login and locks the IP out once a tier is reached
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.UserContext()

	attempts, err := b.redisCache.IncrementWindow(ctx, attemptKey(ip), attemptWindow)
	if err != nil {
		return err
	}

	lockout := LockoutFor(attempts)
	if lockout == 0 {
		return nil
	}

	logrus.WithFields(logrus.Fields{"ip": ip, "attempts": attempts, "lockout": lockout.String()}).Warn("locking out login attempts")
	return b.redisCache.Set(ctx, lockKey(ip), attempts, lockout)
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	return b.redisCache.Delete(c.UserContext(), attemptKey(ip), lockKey(ip))
}
