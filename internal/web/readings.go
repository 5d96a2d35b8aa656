package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/store"
)

const (
	readingsPageLimit = 100
	readingsPageMax   = 1000
)

// ReadingsPage handles GET /lecturas.
func (s *Server) ReadingsPage(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", readingsPageLimit)
	if limit <= 0 || limit > readingsPageMax {
		limit = readingsPageLimit
	}

	ctx := c.UserContext()
	readings, err := store.ListReadings(ctx, s.DB, limit)
	if err != nil {
		return err
	}
	stats, err := store.ReadingStats(ctx, s.DB)
	if err != nil {
		return err
	}
	return c.Render("lecturas", struct {
		PageData
		Readings []model.ScanReading
		Stats    *model.ScanStats
	}{
		PageData: s.page(c, "Lecturas"),
		Readings: readings,
		Stats:    stats,
	})
}

// LivePage handles GET /tiempo-real.
func (s *Server) LivePage(c *fiber.Ctx) error {
	stats, err := store.ReadingStats(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("tiempo_real", struct {
		PageData
		Stats *model.ScanStats
	}{
		PageData: s.page(c, "Tiempo real"),
		Stats:    stats,
	})
}

// greeting is sent to every dashboard right after it connects.
func (s *Server) greeting() []realtime.Event {
	events := []realtime.Event{{
		Name: realtime.EventStatus,
		Data: map[string]string{"message": "Conectado al servidor I-Tec"},
	}}
	stats, err := store.ReadingStats(context.Background(), s.DB)
	if err != nil {
		log.Warn().Err(err).Msg("loading stats for new dashboard")
		return events
	}
	return append(events, realtime.Event{Name: realtime.EventStatsUpdate, Data: stats})
}
