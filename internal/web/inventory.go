package web

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/report"
	"github.com/itec-nfc/inventario/internal/store"
)

type locationCount struct {
	Kind  model.LocationKind
	Count int
}

// LocationReportPage handles GET /inventario/ubicacion. A failed query
// renders an empty report with a warning.
func (s *Server) LocationReportPage(c *fiber.Ctx) error {
	data := s.page(c, "Ubicación del inventario")

	rows, err := store.BuildLocationReport(c.UserContext(), s.DB)
	if err != nil {
		log.Warn().Err(err).Msg("building location report")
		data.Flash = &Flash{Kind: flashError, Message: "No se pudo generar el reporte de ubicación."}
	}

	summary := report.Summarize(rows)
	counts := make([]locationCount, len(report.Kinds))
	for i, k := range report.Kinds {
		counts[i] = locationCount{Kind: k, Count: summary[k]}
	}

	return c.Render("ubicacion", struct {
		PageData
		Rows   []model.LocationRow
		Counts []locationCount
	}{
		PageData: data,
		Rows:     rows,
		Counts:   counts,
	})
}

// LocationReportPDF handles GET /inventario/ubicacion.pdf.
func (s *Server) LocationReportPDF(c *fiber.Ctx) error {
	rows, err := store.BuildLocationReport(c.UserContext(), s.DB)
	if err != nil {
		return s.fail(c, "building location report", err, "/inventario/ubicacion")
	}
	now := time.Now()
	doc, err := report.LocationPDF(rows, now)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ubicacion-%s.pdf"`, now.Format("20060102-1504")))
	return c.Send(doc)
}

// StoreStockPage handles GET /inventario/tiendas.
func (s *Server) StoreStockPage(c *fiber.Ctx) error {
	groups, err := store.BuildStoreStock(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("tiendas_stock", struct {
		PageData
		Groups []model.StoreStockGroup
	}{
		PageData: s.page(c, "Stock en tiendas"),
		Groups:   groups,
	})
}

// WithdrawalNewPage handles GET /retiros/nuevo/:producto/:tienda.
func (s *Server) WithdrawalNewPage(c *fiber.Ctx) error {
	productID, err := paramID(c, "producto")
	if err != nil {
		return err
	}
	storeID, err := paramID(c, "tienda")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	product, err := store.GetProduct(ctx, s.DB, productID)
	if err != nil {
		return err
	}
	shop, err := store.GetStore(ctx, s.DB, storeID)
	if err != nil {
		return err
	}
	if product == nil || shop == nil {
		return fiber.NewError(fiber.StatusNotFound, "El producto o la tienda no existe.")
	}
	available, err := store.StoreStock(ctx, s.DB, productID, storeID)
	if err != nil {
		return err
	}

	return c.Render("retiro_nuevo", struct {
		PageData
		Product   *model.Product
		Store     *model.Store
		Available int
	}{
		PageData:  s.page(c, "Solicitar retiro"),
		Product:   product,
		Store:     shop,
		Available: available,
	})
}

// WithdrawalCreateSubmit handles POST /retiros/nuevo/:producto/:tienda.
func (s *Server) WithdrawalCreateSubmit(c *fiber.Ctx) error {
	productID, err := paramID(c, "producto")
	if err != nil {
		return err
	}
	storeID, err := paramID(c, "tienda")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/retiros/nuevo/%d/%d", productID, storeID)

	qty, err := formInt(c, "cantidad")
	if err != nil {
		return s.fail(c, "parsing withdrawal", err, back)
	}
	w, err := store.RequestWithdrawal(c.UserContext(), s.DB, sessionOf(c), productID, storeID, qty)
	if err != nil {
		return s.fail(c, "requesting withdrawal", err, back)
	}
	s.publish(c, realtime.EventWithdrawalRequested, w)
	return s.done(c, fmt.Sprintf("Retiro de %d unidades solicitado. Pendiente de confirmación.", w.Quantity),
		"/retiros/pendientes")
}

// PendingWithdrawalsPage handles GET /retiros/pendientes.
func (s *Server) PendingWithdrawalsPage(c *fiber.Ctx) error {
	list, err := store.ListPendingWithdrawals(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("retiros_pendientes", struct {
		PageData
		Withdrawals []model.Withdrawal
	}{
		PageData:    s.page(c, "Retiros pendientes"),
		Withdrawals: list,
	})
}

// WithdrawalConfirmSubmit handles POST /retiros/:id/confirmar.
func (s *Server) WithdrawalConfirmSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := store.ConfirmWithdrawal(c.UserContext(), s.DB, sessionOf(c), id)
	if err != nil {
		return s.fail(c, "confirming withdrawal", err, "/retiros/pendientes")
	}
	log.Info().Int64("withdrawal", id).Str("by", sessionOf(c).Username).Msg("withdrawal completed")
	s.publish(c, realtime.EventWithdrawalCompleted, w)
	return s.done(c, fmt.Sprintf("Retiro confirmado: %d unidades de %s volvieron a bodega.", w.Quantity, w.ProductName),
		"/retiros/pendientes")
}
