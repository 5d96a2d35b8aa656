package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/model"
)

const productSelect = `
	SELECT p.producto_id, p.nombre, p.tipo_producto_id, tp.nombre_producto AS nombre_tipo,
	       p.proveedor_id, pr.nombre AS nombre_proveedor, p.numero_serie, p.stock_actual,
	       p.estado_equipo_id, e.nombre AS nombre_estado, p.ubicacion_fisica, p.valor_unitario,
	       p.activo, p.imagen_mime, p.fecha_registro
	FROM productos p
	LEFT JOIN tipos_producto tp ON tp.tipo_producto_id = p.tipo_producto_id
	LEFT JOIN proveedores pr ON pr.proveedor_id = p.proveedor_id
	LEFT JOIN estados_equipo e ON e.estado_equipo_id = p.estado_equipo_id`

func validateProduct(in *model.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: product name is required", model.ErrInvalidArgument)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", model.ErrInvalidArgument)
	}
	if in.UnitValue.IsNegative() {
		return fmt.Errorf("%w: unit value cannot be negative", model.ErrInvalidArgument)
	}
	return nil
}

// nullableSerial stores blank serials as NULL so bulk products don't collide
// on the unique index.
func nullableSerial(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateProduct creates a product.
func CreateProduct(ctx context.Context, db *sqlx.DB, in model.ProductInput) (*model.Product, error) {
	if err := validateProduct(&in); err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "product",
		`INSERT INTO productos (nombre, tipo_producto_id, proveedor_id, numero_serie, stock_actual,
		                        estado_equipo_id, ubicacion_fisica, valor_unitario, activo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.TypeID, in.SupplierID, nullableSerial(in.Serial), in.Stock,
		in.EquipmentStateID, strings.TrimSpace(in.Location), in.UnitValue.String(), in.Active,
	)
	if err != nil {
		return nil, err
	}
	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sqlx.DB, id int64) (*model.Product, error) {
	var p model.Product
	err := db.GetContext(ctx, &p, productSelect+` WHERE p.producto_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", translate(err))
	}
	return &p, nil
}

// ListProducts returns all products ordered by name.
func ListProducts(ctx context.Context, db *sqlx.DB) ([]model.Product, error) {
	var products []model.Product
	if err := db.SelectContext(ctx, &products, productSelect+` ORDER BY p.nombre, p.producto_id`); err != nil {
		return nil, fmt.Errorf("listing products: %w", translate(err))
	}
	return products, nil
}

// ListRepairableProducts returns active products that are not already in
// repair, the candidates for a new maintenance ticket.
func ListRepairableProducts(ctx context.Context, db *sqlx.DB) ([]model.Product, error) {
	var products []model.Product
	err := db.SelectContext(ctx, &products,
		productSelect+` WHERE p.activo = 1 AND p.estado_equipo_id IS NOT ? ORDER BY p.nombre`,
		model.EquipmentStateInRepair)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", translate(err))
	}
	return products, nil
}

// UpdateProduct replaces the editable fields of a product.
func UpdateProduct(ctx context.Context, db *sqlx.DB, id int64, in model.ProductInput) error {
	if err := validateProduct(&in); err != nil {
		return err
	}
	return execUpdate(ctx, db, "product",
		`UPDATE productos SET nombre = ?, tipo_producto_id = ?, proveedor_id = ?, numero_serie = ?,
		        stock_actual = ?, estado_equipo_id = ?, ubicacion_fisica = ?, valor_unitario = ?, activo = ?
		 WHERE producto_id = ?`,
		in.Name, in.TypeID, in.SupplierID, nullableSerial(in.Serial), in.Stock,
		in.EquipmentStateID, strings.TrimSpace(in.Location), in.UnitValue.String(), in.Active, id,
	)
}

// DeleteProduct deletes a product with no open assignment. Products that
// appear in the ledger stay referenced and fail with ErrConflict.
func DeleteProduct(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "product", `DELETE FROM productos WHERE producto_id = ?`, id,
		usage{`SELECT COUNT(*) FROM historico_asignaciones WHERE producto_id = ? AND fecha_devolucion IS NULL`,
			"currently assigned"})
}

// SetProductImage stores an already processed photo for a product.
func SetProductImage(ctx context.Context, db *sqlx.DB, id int64, data []byte, mime string) error {
	if len(data) == 0 || mime == "" {
		return fmt.Errorf("%w: empty image", model.ErrInvalidArgument)
	}
	return execUpdate(ctx, db, "product image",
		`UPDATE productos SET imagen = ?, imagen_mime = ? WHERE producto_id = ?`, data, mime, id)
}

// GetProductImage returns a product's photo and its MIME type. It returns
// nil data when the product has no photo.
func GetProductImage(ctx context.Context, db *sqlx.DB, id int64) ([]byte, string, error) {
	var row struct {
		Data []byte         `db:"imagen"`
		Mime sql.NullString `db:"imagen_mime"`
	}
	err := db.GetContext(ctx, &row, `SELECT imagen, imagen_mime FROM productos WHERE producto_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting product image: %w", translate(err))
	}
	if len(row.Data) == 0 || !row.Mime.Valid {
		return nil, "", nil
	}
	return row.Data, row.Mime.String, nil
}
