// Package server assembles the Fiber application: middleware stack and routes.
package server

import (
	"strings"
	"time"

	"pos-backend/internal/apperr"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/config"
	"pos-backend/internal/dashboard"
	"pos-backend/internal/inventory"
	"pos-backend/internal/sales"
	"pos-backend/internal/tracing"
	"pos-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const Version = "1.0.0"

// New builds the HTTP application on top of an initialised database.
func New(cfg *config.Config, db *gorm.DB, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ErrorHandler: apperr.ErrorHandler(logger.Named(log, "http")),
		BodyLimit:    1 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.Middleware(logger.Named(log, "access")))
	app.Use(tracing.Middleware(cfg.ServiceName))
	app.Use(helmet.New())

	// CORS origins come comma separated
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, x-access-token",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to the POS backend API"})
	})

	api := app.Group("/api")
	api.Get("/welcome", WelcomeHandler())

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(db))
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        cfg.LoginRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many login attempts, try again later")
		},
	}), auth.LoginHandler(db, cfg.JWTSecret, cfg.TokenTTL))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Get("/users", auth.ListUsersHandler(db))

	// Catalog
	protected.Get("/item-types", inventory.ListItemTypesHandler(db))
	protected.Post("/item-types", inventory.CreateItemTypeHandler(db))
	protected.Get("/items", inventory.ListItemsHandler(db))
	protected.Post("/items", inventory.CreateItemHandler(db))
	protected.Get("/items/:id", inventory.GetItemHandler(db))
	protected.Put("/items/:id", inventory.UpdateItemHandler(db))
	protected.Delete("/items/:id", inventory.DeleteItemHandler(db))

	// Stock batches
	alloc := inventory.NewAllocator(db, logger.Named(log, "inventory"))
	protected.Get("/inventory", inventory.ListBatchesHandler(db))
	protected.Post("/inventory", inventory.CreateBatchHandler(alloc))
	protected.Get("/inventory/:id", inventory.GetBatchHandler(db))
	protected.Put("/inventory/:id", inventory.UpdateBatchHandler(alloc))
	protected.Delete("/inventory/:id", inventory.DeleteBatchHandler(alloc))

	// Sales
	rec := sales.NewRecorder(db, logger.Named(log, "sales"))
	protected.Post("/sales", sales.CreateSaleHandler(rec))
	protected.Get("/sales", sales.ListSalesHandler(rec))
	protected.Get("/sales/:id", sales.GetSaleHandler(rec))

	// Dashboard
	protected.Get("/dashboard/stats", dashboard.StatsHandler(db, cfg.LowStockThreshold))
	protected.Get("/dashboard/activities", dashboard.ActivitiesHandler(db))
	protected.Get("/dashboard/low-stock", dashboard.LowStockHandler(db, cfg.LowStockThreshold))

	// Audit trail
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	return app
}

// GET /api/welcome
func WelcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "Welcome to the POS backend API",
			"version":   Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"endpoints": fiber.Map{
				"auth":      "/api/auth",
				"items":     "/api/items",
				"itemTypes": "/api/item-types",
				"inventory": "/api/inventory",
				"sales":     "/api/sales",
				"users":     "/api/users",
				"dashboard": "/api/dashboard",
				"auditLogs": "/api/audit-logs",
			},
		})
	}
}
