package middleware

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLogger records super admin mutations into admin_audit_logs
type AuditLogger struct {
	db    *gorm.DB
	async bool
}

// NewAuditLogger creates an audit logger that writes entries in the background
func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{db: db, async: true}
}

// Log creates an audit log entry for the wrapped route. Must run after Required.
func (a *AuditLogger) Log(action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, ok := GetUserID(c)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		for _, key := range []string{"id", "universityId"} {
			if raw := c.Params(key); raw != "" {
				if parsedID, err := strconv.ParseUint(raw, 10, 32); err == nil {
					resourceID = uint(parsedID)
					break
				}
			}
		}

		var newValue datatypes.JSON
		if body := c.Body(); len(body) > 0 && json.Valid(body) {
			newValue = datatypes.JSON(append([]byte(nil), body...))
		}

		err := c.Next()

		// fiber recycles the ctx and its strings once the handler returns
		entry := model.AdminAuditLog{
			AdminID:     adminID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    newValue,
			StatusCode:  c.Response().StatusCode(),
			IPAddress:   strings.Clone(c.IP()),
			UserAgent:   strings.Clone(c.Get("User-Agent")),
			Description: c.Method() + " " + c.OriginalURL(),
		}

		if a.async {
			go a.write(entry)
		} else {
			a.write(entry)
		}

		return err
	}
}

func (a *AuditLogger) write(entry model.AdminAuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":   entry.Action,
			"resource": entry.Resource,
		}).Error("failed to write audit log")
	}
}
