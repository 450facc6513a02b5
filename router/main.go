package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/handlers"
	admin_handlers "github.com/sahilchouksey/college-admin-api/handlers/admin"
	auth_handlers "github.com/sahilchouksey/college-admin-api/handlers/auth"
	head_handlers "github.com/sahilchouksey/college-admin-api/handlers/institutionalhead"
	university_handlers "github.com/sahilchouksey/college-admin-api/handlers/university"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"gorm.io/gorm"
)

// Dependencies are the long-lived collaborators the routes are built from
type Dependencies struct {
	DB           *gorm.DB
	JWTManager   *auth.JWTManager
	RedisCache   *cache.RedisCache // optional; enables brute force protection
	Heads        *services.HeadService
	Universities *services.UniversityService
	Assignments  *services.AssignmentService
	Stores       map[string]utils.HealthChecker
	Security     middleware.SecurityConfig
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	var bruteForceProtection *middleware.BruteForceProtection
	if deps.RedisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(deps.RedisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager, deps.DB)
	auditLogger := middleware.NewAuditLogger(deps.DB)

	authHandler := auth_handlers.NewAuthHandler(deps.DB, deps.JWTManager, bruteForceProtection)
	headHandler := head_handlers.NewHeadHandler(deps.Heads)
	universityHandler := university_handlers.NewUniversityHandler(deps.Universities, deps.Assignments)
	auditHandler := admin_handlers.NewAuditHandler(deps.DB)

	middleware.SetupSecurity(app, deps.Security)

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Stores))

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)

	superAdmin := authMiddleware.RequireSuperAdmin()

	// Institutional heads
	heads := api.Group("/institutional-heads", authMiddleware.Required())
	heads.Get("/", headHandler.ListHeads)
	heads.Get("/:id", headHandler.GetHead)
	heads.Post("/", superAdmin, auditLogger.Log("head_create", "institutional_heads"), headHandler.CreateHead)
	heads.Put("/:id", superAdmin, auditLogger.Log("head_update", "institutional_heads"), headHandler.UpdateHead)
	heads.Delete("/:id", superAdmin, auditLogger.Log("head_delete", "institutional_heads"), headHandler.DeleteHead)

	// Universities
	universities := api.Group("/universities", authMiddleware.Required())
	universities.Get("/", universityHandler.ListUniversities)
	universities.Get("/:id", universityHandler.GetUniversity)
	universities.Post("/", superAdmin, auditLogger.Log("university_create", "universities"), universityHandler.CreateUniversity)
	universities.Patch("/:id", superAdmin, auditLogger.Log("university_update", "universities"), universityHandler.UpdateUniversity)
	universities.Delete("/:id", superAdmin, auditLogger.Log("university_delete", "universities"), universityHandler.DeleteUniversity)
	universities.Post("/:id/assign-head/:headId", superAdmin, auditLogger.Log("head_assign", "universities"), universityHandler.AssignHead)
	universities.Delete("/:id/assign-head/:headId", superAdmin, auditLogger.Log("head_unassign", "universities"), universityHandler.UnassignHead)

	// Audit trail
	auditLogs := api.Group("/audit-logs", authMiddleware.Required(), superAdmin)
	auditLogs.Get("/", auditHandler.ListAuditLogs)
	auditLogs.Get("/:id", auditHandler.GetAuditLog)
}
