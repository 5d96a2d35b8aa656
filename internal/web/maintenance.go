package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/store"
)

// MaintenancePage handles GET /mantenimientos.
func (s *Server) MaintenancePage(c *fiber.Ctx) error {
	list, err := store.ListMaintenance(c.UserContext(), s.DB, sessionOf(c))
	if err != nil {
		return err
	}
	return c.Render("mantenimientos", struct {
		PageData
		Tickets []model.Maintenance
	}{
		PageData: s.page(c, "Mantenimientos"),
		Tickets:  list,
	})
}

// MaintenanceNewPage handles GET /mantenimientos/nuevo.
func (s *Server) MaintenanceNewPage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	products, err := store.ListRepairableProducts(ctx, s.DB)
	if err != nil {
		return err
	}
	technicians, err := store.ListTechnicians(ctx, s.DB)
	if err != nil {
		return err
	}
	return c.Render("mantenimiento_nuevo", struct {
		PageData
		Products    []model.Product
		Technicians []model.User
	}{
		PageData:    s.page(c, "Nuevo mantenimiento"),
		Products:    products,
		Technicians: technicians,
	})
}

// MaintenanceCreateSubmit handles POST /mantenimientos/nuevo.
func (s *Server) MaintenanceCreateSubmit(c *fiber.Ctx) error {
	const back = "/mantenimientos/nuevo"

	productID, technicianID := formID(c, "producto_id"), formID(c, "tecnico_id")
	if productID == nil || technicianID == nil {
		s.setFlash(c, flashError, "Seleccione un producto y un técnico.")
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	m, err := store.CreateMaintenance(c.UserContext(), s.DB, sessionOf(c), *productID, *technicianID, c.FormValue("descripcion"))
	if err != nil {
		return s.fail(c, "opening maintenance", err, back)
	}
	log.Info().Int64("maintenance", m.ID).Int64("product", m.ProductID).Int64("technician", m.TechnicianID).
		Msg("maintenance opened")
	s.publishInventoryStats(c)
	return s.done(c, fmt.Sprintf("Mantenimiento de %s asignado a %s.", m.ProductName, m.TechnicianName),
		"/mantenimientos")
}

// MaintenanceDetailPage handles GET /mantenimientos/:id.
func (s *Server) MaintenanceDetailPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	m, err := store.GetMaintenance(c.UserContext(), s.DB, id)
	if err != nil {
		return err
	}
	if m == nil {
		return fiber.NewError(fiber.StatusNotFound, "El mantenimiento no existe.")
	}
	if !store.CanEditMaintenance(sessionOf(c), m) {
		return fiber.ErrForbidden
	}
	return c.Render("mantenimiento", struct {
		PageData
		Ticket *model.Maintenance
	}{
		PageData: s.page(c, fmt.Sprintf("Mantenimiento #%d", m.ID)),
		Ticket:   m,
	})
}

// MaintenanceUpdateSubmit handles POST /mantenimientos/:id.
func (s *Server) MaintenanceUpdateSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/mantenimientos/%d", id)
	finish := formBool(c, "finalizar")

	m, err := store.UpdateMaintenance(c.UserContext(), s.DB, sessionOf(c), id, c.FormValue("descripcion"), finish)
	if err != nil {
		return s.fail(c, "updating maintenance", err, back)
	}
	if finish {
		log.Info().Int64("maintenance", m.ID).Str("by", sessionOf(c).Username).Msg("maintenance finished")
		s.publishInventoryStats(c)
		return s.done(c, fmt.Sprintf("Mantenimiento finalizado. %s está disponible.", m.ProductName), "/mantenimientos")
	}
	return s.done(c, "Mantenimiento actualizado.", back)
}
