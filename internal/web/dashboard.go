package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/store"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats, err := store.DashboardStats(ctx, s.DB)
	if err != nil {
		return err
	}
	readings, err := store.ReadingStats(ctx, s.DB)
	if err != nil {
		return err
	}

	var tickets []model.Maintenance
	if sess := sessionOf(c); sess.Role == model.RoleTechnician {
		if tickets, err = store.ListMaintenance(ctx, s.DB, sess); err != nil {
			return err
		}
	}

	return c.Render("dashboard", struct {
		PageData
		Stats    *model.DashboardStats
		Readings *model.ScanStats
		Tickets  []model.Maintenance
	}{
		PageData: s.page(c, "Panel principal"),
		Stats:    stats,
		Readings: readings,
		Tickets:  tickets,
	})
}

func (s *Server) publishInventoryStats(c *fiber.Ctx) {
	if s.Hub == nil {
		return
	}
	stats, err := store.DashboardStats(c.UserContext(), s.DB)
	if err != nil {
		log.Warn().Err(err).Msg("refreshing inventory stats")
		return
	}
	s.Hub.Publish(realtime.EventInventoryStats, stats)
}
