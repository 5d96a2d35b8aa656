package web

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/itec-nfc/inventario/internal/imaging"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/store"
)

const thumbnailSize = 160

type productFormData struct {
	PageData
	Product     *model.Product
	Types       []model.ProductType
	Suppliers   []model.Supplier
	States      []model.EquipmentState
	Assignments []model.Assignment
	Stores      []model.Store
}

// loadProductForm fills the lookup lists used by the product forms.
func (s *Server) loadProductForm(c *fiber.Ctx, d *productFormData) error {
	ctx := c.UserContext()
	var err error
	if d.Types, err = store.ListProductTypes(ctx, s.DB); err != nil {
		return err
	}
	if d.Suppliers, err = store.ListSuppliers(ctx, s.DB); err != nil {
		return err
	}
	d.States, err = store.ListEquipmentStates(ctx, s.DB)
	return err
}

// ProductsPage handles GET /productos.
func (s *Server) ProductsPage(c *fiber.Ctx) error {
	products, err := store.ListProducts(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("productos", struct {
		PageData
		Products []model.Product
	}{
		PageData: s.page(c, "Productos"),
		Products: products,
	})
}

// ProductNewPage handles GET /productos/nuevo.
func (s *Server) ProductNewPage(c *fiber.Ctx) error {
	d := productFormData{PageData: s.page(c, "Nuevo producto")}
	if err := s.loadProductForm(c, &d); err != nil {
		return err
	}
	return c.Render("producto_form", d)
}

// ProductDetailPage handles GET /productos/:id.
func (s *Server) ProductDetailPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	product, err := store.GetProduct(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if product == nil {
		return fiber.NewError(fiber.StatusNotFound, "El producto no existe.")
	}

	d := productFormData{PageData: s.page(c, product.Name), Product: product}
	if err := s.loadProductForm(c, &d); err != nil {
		return err
	}
	if d.Assignments, err = store.ListProductAssignments(ctx, s.DB, id); err != nil {
		return err
	}
	if d.Stores, err = store.ListStores(ctx, s.DB); err != nil {
		return err
	}
	return c.Render("producto", d)
}

func productFromForm(c *fiber.Ctx) (model.ProductInput, error) {
	stock, err := formInt(c, "stock_actual")
	if err != nil {
		return model.ProductInput{}, err
	}

	value := decimal.Zero
	// Accept both 1500.50 and 1500,50.
	if raw := strings.ReplaceAll(strings.TrimSpace(c.FormValue("valor_unitario")), ",", "."); raw != "" {
		if value, err = decimal.NewFromString(raw); err != nil {
			return model.ProductInput{}, fmt.Errorf("%w: invalid unit value %q", model.ErrInvalidArgument, raw)
		}
	}

	return model.ProductInput{
		Name:             c.FormValue("nombre"),
		TypeID:           formID(c, "tipo_producto_id"),
		SupplierID:       formID(c, "proveedor_id"),
		Serial:           c.FormValue("numero_serie"),
		Stock:            stock,
		EquipmentStateID: formID(c, "estado_equipo_id"),
		Location:         c.FormValue("ubicacion_fisica"),
		UnitValue:        value,
		Active:           formBool(c, "activo"),
	}, nil
}

// ProductCreateSubmit handles POST /productos.
func (s *Server) ProductCreateSubmit(c *fiber.Ctx) error {
	in, err := productFromForm(c)
	if err != nil {
		return s.fail(c, "parsing product", err, "/productos/nuevo")
	}
	product, err := store.CreateProduct(c.UserContext(), s.DB, in)
	if err != nil {
		return s.fail(c, "creating product", err, "/productos/nuevo")
	}
	s.publishInventoryStats(c)
	return s.done(c, fmt.Sprintf("Producto %s creado.", product.Name), fmt.Sprintf("/productos/%d", product.ID))
}

// ProductUpdateSubmit handles POST /productos/:id.
func (s *Server) ProductUpdateSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/productos/%d", id)

	in, err := productFromForm(c)
	if err != nil {
		return s.fail(c, "parsing product", err, back)
	}
	if err := store.UpdateProduct(c.UserContext(), s.DB, id, in); err != nil {
		return s.fail(c, "updating product", err, back)
	}
	s.publishInventoryStats(c)
	return s.done(c, "Producto actualizado.", back)
}

// ProductDeleteSubmit handles POST /productos/:id/eliminar.
func (s *Server) ProductDeleteSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := store.DeleteProduct(c.UserContext(), s.DB, id); err != nil {
		return s.fail(c, "deleting product", err, fmt.Sprintf("/productos/%d", id))
	}
	s.publishInventoryStats(c)
	return s.done(c, "Producto eliminado.", "/productos")
}

// ProductImageSubmit handles POST /productos/:id/imagen.
func (s *Server) ProductImageSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/productos/%d", id)

	fh, err := c.FormFile("imagen")
	if err != nil {
		s.setFlash(c, flashError, "Seleccione una imagen.")
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	f, err := fh.Open()
	if err != nil {
		return s.fail(c, "opening upload", err, back)
	}
	defer f.Close()

	photo, err := imaging.Process(f, imaging.DefaultOptions)
	if err != nil {
		log.Warn().Err(err).Int64("product", id).Msg("rejected product image")
		s.setFlash(c, flashError, "La imagen no es válida. Use JPEG o PNG de hasta 4 MB.")
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if err := store.SetProductImage(c.UserContext(), s.DB, id, photo.Data, photo.MIME); err != nil {
		return s.fail(c, "saving product image", err, back)
	}
	return s.done(c, "Imagen actualizada.", back)
}

// ProductImage handles GET /productos/:id/imagen. With ?miniatura=1 it
// serves a square thumbnail.
func (s *Server) ProductImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	data, mime, err := store.GetProductImage(c.UserContext(), s.DB, id)
	if err != nil {
		return err
	}
	if data == nil {
		return fiber.ErrNotFound
	}

	if c.QueryBool("miniatura") {
		thumb, err := imaging.Thumbnail(data, thumbnailSize)
		if err != nil {
			return err
		}
		data, mime = thumb.Data, thumb.MIME
	}

	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderContentDisposition, "inline")
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(data)
}

// ShipPage handles GET /productos/:id/enviar-tienda.
func (s *Server) ShipPage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	product, err := store.GetProduct(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if product == nil {
		return fiber.NewError(fiber.StatusNotFound, "El producto no existe.")
	}
	stores, err := store.ListStores(ctx, s.DB)
	if err != nil {
		return err
	}
	return c.Render("enviar_tienda", struct {
		PageData
		Product *model.Product
		Stores  []model.Store
	}{
		PageData: s.page(c, "Enviar a tienda"),
		Product:  product,
		Stores:   stores,
	})
}

// ShipSubmit handles POST /productos/:id/enviar-tienda.
func (s *Server) ShipSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/productos/%d/enviar-tienda", id)

	storeID := formID(c, "tienda_id")
	qty, err := formInt(c, "cantidad")
	if err != nil {
		return s.fail(c, "parsing shipment", err, back)
	}
	if storeID == nil {
		return s.fail(c, "parsing shipment", fmt.Errorf("%w: store is required", model.ErrInvalidArgument), back)
	}

	shipment, err := store.ShipToStore(c.UserContext(), s.DB, sessionOf(c), id, *storeID, qty)
	if err != nil {
		return s.fail(c, "shipping to store", err, back)
	}
	log.Info().Int64("product", id).Int64("store", *storeID).Int("quantity", qty).
		Str("by", sessionOf(c).Username).Msg("shipment created")
	s.publish(c, realtime.EventShipmentCreated, shipment)
	return s.done(c, fmt.Sprintf("Se enviaron %d unidades de %s a %s.",
		shipment.Quantity, shipment.ProductName, shipment.StoreName), "/inventario/tiendas")
}
