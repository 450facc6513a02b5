package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/handlers"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"gorm.io/gorm"
)

// AuditHandler serves the super admin audit trail
type AuditHandler struct {
	db *gorm.DB
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

// ListAuditLogs handles GET /api/audit-logs
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	page := response.NewPage(handlers.QueryInt(c, "page", 1), handlers.QueryInt(c, "limit", 20))

	query := h.db.WithContext(c.UserContext()).Model(&model.AdminAuditLog{})

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if adminID := handlers.QueryInt(c, "adminId", 0); adminID > 0 {
		query = query.Where("admin_id = ?", adminID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.FromError(c, err, "Failed to count audit logs")
	}

	logs := []model.AdminAuditLog{}
	if err := query.Preload("Admin").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&logs).Error; err != nil {
		return response.FromError(c, err, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, page.Meta(total))
}

// GetAuditLog handles GET /api/audit-logs/:id
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := h.db.WithContext(c.UserContext()).Preload("Admin").First(&entry, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Audit log not found")
		}
		return response.FromError(c, err, "Failed to fetch audit log")
	}

	return response.Success(c, entry)
}
