package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/report"
	"github.com/itec-nfc/inventario/internal/store"
)

type locationsResponse struct {
	Locations []model.LocationRow        `json:"locations"`
	Summary   map[model.LocationKind]int `json:"summary"`
	Warning   string                     `json:"warning,omitempty"`
}

// Locations handles GET /api/reports/locations. A failing query yields an
// empty report with a warning instead of an error.
func (h *Handler) Locations(c *fiber.Ctx) error {
	rows, err := store.BuildLocationReport(c.UserContext(), h.DB)
	resp := locationsResponse{Locations: rows}
	if err != nil {
		log.Warn().Err(err).Msg("building location report")
		resp = locationsResponse{Warning: "location report unavailable"}
	}
	if resp.Locations == nil {
		resp.Locations = []model.LocationRow{}
	}
	resp.Summary = report.Summarize(resp.Locations)
	for _, k := range report.Kinds {
		if _, ok := resp.Summary[k]; !ok {
			resp.Summary[k] = 0
		}
	}
	return c.JSON(resp)
}

// Stores handles GET /api/reports/stores.
func (h *Handler) Stores(c *fiber.Ctx) error {
	groups, err := store.BuildStoreStock(c.UserContext(), h.DB)
	if err != nil {
		return fail(c, "building store stock", err)
	}
	if groups == nil {
		groups = []model.StoreStockGroup{}
	}
	return c.JSON(fiber.Map{"stores": groups})
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	stats, err := store.DashboardStats(c.UserContext(), h.DB)
	if err != nil {
		return fail(c, "loading dashboard stats", err)
	}
	return c.JSON(stats)
}
