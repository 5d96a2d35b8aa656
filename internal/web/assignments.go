package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/store"
)

// AssignmentsPage handles GET /inventario/asignaciones.
func (s *Server) AssignmentsPage(c *fiber.Ctx) error {
	list, err := store.ListAssignments(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("asignaciones", struct {
		PageData
		Assignments []model.Assignment
	}{
		PageData:    s.page(c, "Historial de movimientos"),
		Assignments: list,
	})
}

// AssignmentNewPage handles GET /inventario/asignaciones/nueva. The
// product can be preselected with ?producto=ID.
func (s *Server) AssignmentNewPage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	products, err := store.ListProducts(ctx, s.DB)
	if err != nil {
		return err
	}
	users, err := store.ListUsers(ctx, s.DB)
	if err != nil {
		return err
	}
	types, err := store.ListMovementTypes(ctx, s.DB)
	if err != nil {
		return err
	}
	return c.Render("asignacion_nueva", struct {
		PageData
		Products  []model.Product
		Users     []model.User
		Types     []model.MovementType
		ProductID int64
	}{
		PageData:  s.page(c, "Registrar movimiento"),
		Products:  products,
		Users:     users,
		Types:     types,
		ProductID: int64(c.QueryInt("producto")),
	})
}

// AssignmentCreateSubmit handles POST /inventario/asignaciones/nueva.
func (s *Server) AssignmentCreateSubmit(c *fiber.Ctx) error {
	const back = "/inventario/asignaciones/nueva"

	in := model.MovementInput{Comment: c.FormValue("comentarios")}
	for name, dst := range map[string]*int64{
		"producto_id":        &in.ProductID,
		"usuario_id":         &in.UserID,
		"tipo_movimiento_id": &in.MovementTypeID,
	} {
		if id := formID(c, name); id != nil {
			*dst = *id
		}
	}

	a, err := store.RecordMovement(c.UserContext(), s.DB, sessionOf(c), in)
	if err != nil {
		return s.fail(c, "recording movement", err, back)
	}
	log.Info().Int64("product", a.ProductID).Int64("user", a.UserID).Str("movement", a.MovementName).
		Str("by", sessionOf(c).Username).Msg("movement recorded")
	s.publish(c, realtime.EventMovementRecorded, a)
	return s.done(c, fmt.Sprintf("%s de %s a %s registrada.", a.MovementName, a.ProductName, a.UserName),
		"/inventario/asignaciones")
}
