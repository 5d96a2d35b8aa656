// Package api serves the JSON endpoints used by the companion mobile client
// and by scripts: scan ingestion, reading history and read-only reports.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/scan"
)

// Handler serves the /api routes.
type Handler struct {
	DB        *sqlx.DB
	JWTSecret string
	TokenTTL  time.Duration
	Scans     *scan.Ingester

	// Readings limits for GET /api/readings.
	DefaultLimit int
	MaxLimit     int
}

// Register mounts the API under /api.
func Register(r fiber.Router, h *Handler) {
	api := r.Group("/api")

	// Public: companion clients do not log in.
	api.Post("/scan", h.Scan)
	api.Post("/submit-nfc", h.SubmitNFC)
	api.Get("/readings", h.Readings)
	api.Get("/stats", h.Stats)
	api.Post("/auth/login", h.Login)

	api.Post("/auth/logout", h.BearerAuth, h.Logout)
	api.Get("/me", h.BearerAuth, h.Me)
	api.Get("/reports/locations", h.BearerAuth, RequireRole(model.RoleAdmin), h.Locations)
	api.Get("/reports/stores", h.BearerAuth, RequireRole(model.RoleAdmin), h.Stores)
	api.Get("/dashboard", h.BearerAuth, RequireRole(model.RoleAdmin), h.Dashboard)
}
