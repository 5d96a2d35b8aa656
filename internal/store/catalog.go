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

// usage is a query counting rows that reference the entity being deleted.
type usage struct {
	query  string
	reason string
}

func requireName(name, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name is required", model.ErrInvalidArgument, what)
	}
	return name, nil
}

// deleteUnused deletes the row with id unless one of the usages finds a
// reference to it.
func deleteUnused(ctx context.Context, db *sqlx.DB, what, deleteQuery string, id int64, usages ...usage) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, u := range usages {
			var n int
			if err := tx.GetContext(ctx, &n, u.query, id); err != nil {
				return fmt.Errorf("checking %s usage: %w", what, translate(err))
			}
			if n > 0 {
				return fmt.Errorf("deleting %s: %s: %w", what, u.reason, model.ErrConflict)
			}
		}
		res, err := tx.ExecContext(ctx, deleteQuery, id)
		if err != nil {
			return fmt.Errorf("deleting %s: %w", what, translate(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("deleting %s %d: %w", what, id, model.ErrNotFound)
		}
		return nil
	})
}

func execUpdate(ctx context.Context, db *sqlx.DB, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", what, translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating %s: %w", what, model.ErrNotFound)
	}
	return nil
}

func getOne[T any](ctx context.Context, db *sqlx.DB, what, query string, id int64) (*T, error) {
	var v T
	err := db.GetContext(ctx, &v, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", what, translate(err))
	}
	return &v, nil
}

func insert(ctx context.Context, db *sqlx.DB, what, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", what, translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting %s id: %w", what, err)
	}
	return id, nil
}

// Areas.

// CreateArea creates an area.
func CreateArea(ctx context.Context, db *sqlx.DB, name string) (*model.Area, error) {
	name, err := requireName(name, "area")
	if err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "area", `INSERT INTO areas (nombre_area) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return GetArea(ctx, db, id)
}

// GetArea returns an area by ID.
func GetArea(ctx context.Context, db *sqlx.DB, id int64) (*model.Area, error) {
	return getOne[model.Area](ctx, db, "area", `SELECT area_id, nombre_area FROM areas WHERE area_id = ?`, id)
}

// ListAreas returns all areas ordered by name.
func ListAreas(ctx context.Context, db *sqlx.DB) ([]model.Area, error) {
	var areas []model.Area
	if err := db.SelectContext(ctx, &areas, `SELECT area_id, nombre_area FROM areas ORDER BY nombre_area`); err != nil {
		return nil, fmt.Errorf("listing areas: %w", translate(err))
	}
	return areas, nil
}

// UpdateArea renames an area.
func UpdateArea(ctx context.Context, db *sqlx.DB, id int64, name string) error {
	name, err := requireName(name, "area")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "area", `UPDATE areas SET nombre_area = ? WHERE area_id = ?`, name, id)
}

// DeleteArea deletes an area that no user belongs to.
func DeleteArea(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "area", `DELETE FROM areas WHERE area_id = ?`, id,
		usage{`SELECT COUNT(*) FROM usuarios WHERE area_id = ?`, "assigned to users"})
}

// Roles.

// CreateRole creates a role.
func CreateRole(ctx context.Context, db *sqlx.DB, name string) (*model.Role, error) {
	name, err := requireName(name, "role")
	if err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "role", `INSERT INTO roles (nombre_rol) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return GetRole(ctx, db, id)
}

// GetRole returns a role by ID.
func GetRole(ctx context.Context, db *sqlx.DB, id int64) (*model.Role, error) {
	return getOne[model.Role](ctx, db, "role", `SELECT id_rol, nombre_rol FROM roles WHERE id_rol = ?`, id)
}

// GetRoleByName returns a role by name.
func GetRoleByName(ctx context.Context, db *sqlx.DB, name string) (*model.Role, error) {
	var r model.Role
	err := db.GetContext(ctx, &r, `SELECT id_rol, nombre_rol FROM roles WHERE nombre_rol = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting role: %w", translate(err))
	}
	return &r, nil
}

// ListRoles returns all roles ordered by name.
func ListRoles(ctx context.Context, db *sqlx.DB) ([]model.Role, error) {
	var roles []model.Role
	if err := db.SelectContext(ctx, &roles, `SELECT id_rol, nombre_rol FROM roles ORDER BY nombre_rol`); err != nil {
		return nil, fmt.Errorf("listing roles: %w", translate(err))
	}
	return roles, nil
}

// UpdateRole renames a role.
func UpdateRole(ctx context.Context, db *sqlx.DB, id int64, name string) error {
	name, err := requireName(name, "role")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "role", `UPDATE roles SET nombre_rol = ? WHERE id_rol = ?`, name, id)
}

// DeleteRole deletes a role no user holds.
func DeleteRole(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "role", `DELETE FROM roles WHERE id_rol = ?`, id,
		usage{`SELECT COUNT(*) FROM usuarios WHERE id_rol = ?`, "assigned to users"})
}

// Stores.

// CreateStore creates a store.
func CreateStore(ctx context.Context, db *sqlx.DB, name, address string) (*model.Store, error) {
	name, err := requireName(name, "store")
	if err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "store",
		`INSERT INTO tiendas (nombre_tienda, direccion) VALUES (?, ?)`, name, strings.TrimSpace(address))
	if err != nil {
		return nil, err
	}
	return GetStore(ctx, db, id)
}

// GetStore returns a store by ID.
func GetStore(ctx context.Context, db *sqlx.DB, id int64) (*model.Store, error) {
	return getOne[model.Store](ctx, db, "store",
		`SELECT tienda_id, nombre_tienda, direccion FROM tiendas WHERE tienda_id = ?`, id)
}

// ListStores returns all stores ordered by name.
func ListStores(ctx context.Context, db *sqlx.DB) ([]model.Store, error) {
	var stores []model.Store
	if err := db.SelectContext(ctx, &stores,
		`SELECT tienda_id, nombre_tienda, direccion FROM tiendas ORDER BY nombre_tienda`); err != nil {
		return nil, fmt.Errorf("listing stores: %w", translate(err))
	}
	return stores, nil
}

// UpdateStore updates a store.
func UpdateStore(ctx context.Context, db *sqlx.DB, id int64, name, address string) error {
	name, err := requireName(name, "store")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "store",
		`UPDATE tiendas SET nombre_tienda = ?, direccion = ? WHERE tienda_id = ?`, name, strings.TrimSpace(address), id)
}

// DeleteStore deletes a store without users or stock movements.
func DeleteStore(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "store", `DELETE FROM tiendas WHERE tienda_id = ?`, id,
		usage{`SELECT COUNT(*) FROM usuarios WHERE tienda_id = ?`, "assigned to users"},
		usage{`SELECT COUNT(*) FROM envios_tienda WHERE tienda_id = ?`, "has shipments"},
		usage{`SELECT COUNT(*) FROM retiros_tienda WHERE tienda_id = ?`, "has withdrawals"})
}

// Suppliers.

// CreateSupplier creates a supplier.
func CreateSupplier(ctx context.Context, db *sqlx.DB, s model.Supplier) (*model.Supplier, error) {
	name, err := requireName(s.Name, "supplier")
	if err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "supplier",
		`INSERT INTO proveedores (nombre, contacto, telefono, email) VALUES (?, ?, ?, ?)`,
		name, s.Contact, s.Phone, s.Email)
	if err != nil {
		return nil, err
	}
	return GetSupplier(ctx, db, id)
}

// GetSupplier returns a supplier by ID.
func GetSupplier(ctx context.Context, db *sqlx.DB, id int64) (*model.Supplier, error) {
	return getOne[model.Supplier](ctx, db, "supplier",
		`SELECT proveedor_id, nombre, contacto, telefono, email FROM proveedores WHERE proveedor_id = ?`, id)
}

// ListSuppliers returns all suppliers ordered by name.
func ListSuppliers(ctx context.Context, db *sqlx.DB) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	if err := db.SelectContext(ctx, &suppliers,
		`SELECT proveedor_id, nombre, contacto, telefono, email FROM proveedores ORDER BY nombre`); err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", translate(err))
	}
	return suppliers, nil
}

// UpdateSupplier updates a supplier.
func UpdateSupplier(ctx context.Context, db *sqlx.DB, s model.Supplier) error {
	name, err := requireName(s.Name, "supplier")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "supplier",
		`UPDATE proveedores SET nombre = ?, contacto = ?, telefono = ?, email = ? WHERE proveedor_id = ?`,
		name, s.Contact, s.Phone, s.Email, s.ID)
}

// DeleteSupplier deletes a supplier no product references.
func DeleteSupplier(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "supplier", `DELETE FROM proveedores WHERE proveedor_id = ?`, id,
		usage{`SELECT COUNT(*) FROM productos WHERE proveedor_id = ?`, "used by products"})
}

// Product types.

// CreateProductType creates a product type. An empty category defaults to
// model.DefaultProductCategory.
func CreateProductType(ctx context.Context, db *sqlx.DB, name, category string) (*model.ProductType, error) {
	name, err := requireName(name, "product type")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		category = model.DefaultProductCategory
	}
	id, err := insert(ctx, db, "product type",
		`INSERT INTO tipos_producto (nombre_producto, tipo_producto) VALUES (?, ?)`, name, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	return GetProductType(ctx, db, id)
}

// GetProductType returns a product type by ID.
func GetProductType(ctx context.Context, db *sqlx.DB, id int64) (*model.ProductType, error) {
	return getOne[model.ProductType](ctx, db, "product type",
		`SELECT tipo_producto_id, nombre_producto, tipo_producto FROM tipos_producto WHERE tipo_producto_id = ?`, id)
}

// ListProductTypes returns all product types ordered by name.
func ListProductTypes(ctx context.Context, db *sqlx.DB) ([]model.ProductType, error) {
	var types []model.ProductType
	if err := db.SelectContext(ctx, &types,
		`SELECT tipo_producto_id, nombre_producto, tipo_producto FROM tipos_producto ORDER BY nombre_producto`); err != nil {
		return nil, fmt.Errorf("listing product types: %w", translate(err))
	}
	return types, nil
}

// UpdateProductType renames a product type.
func UpdateProductType(ctx context.Context, db *sqlx.DB, id int64, name string) error {
	name, err := requireName(name, "product type")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "product type",
		`UPDATE tipos_producto SET nombre_producto = ? WHERE tipo_producto_id = ?`, name, id)
}

// DeleteProductType deletes a product type no product uses.
func DeleteProductType(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "product type", `DELETE FROM tipos_producto WHERE tipo_producto_id = ?`, id,
		usage{`SELECT COUNT(*) FROM productos WHERE tipo_producto_id = ?`, "used by products"})
}

// Equipment states.

// CreateEquipmentState creates an equipment state.
func CreateEquipmentState(ctx context.Context, db *sqlx.DB, name string) (*model.EquipmentState, error) {
	name, err := requireName(name, "equipment state")
	if err != nil {
		return nil, err
	}
	id, err := insert(ctx, db, "equipment state", `INSERT INTO estados_equipo (nombre) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	return GetEquipmentState(ctx, db, id)
}

// GetEquipmentState returns an equipment state by ID.
func GetEquipmentState(ctx context.Context, db *sqlx.DB, id int64) (*model.EquipmentState, error) {
	return getOne[model.EquipmentState](ctx, db, "equipment state",
		`SELECT estado_equipo_id, nombre FROM estados_equipo WHERE estado_equipo_id = ?`, id)
}

// ListEquipmentStates returns all equipment states ordered by name.
func ListEquipmentStates(ctx context.Context, db *sqlx.DB) ([]model.EquipmentState, error) {
	var states []model.EquipmentState
	if err := db.SelectContext(ctx, &states,
		`SELECT estado_equipo_id, nombre FROM estados_equipo ORDER BY nombre`); err != nil {
		return nil, fmt.Errorf("listing equipment states: %w", translate(err))
	}
	return states, nil
}

// UpdateEquipmentState renames an equipment state.
func UpdateEquipmentState(ctx context.Context, db *sqlx.DB, id int64, name string) error {
	name, err := requireName(name, "equipment state")
	if err != nil {
		return err
	}
	return execUpdate(ctx, db, "equipment state",
		`UPDATE estados_equipo SET nombre = ? WHERE estado_equipo_id = ?`, name, id)
}

// DeleteEquipmentState deletes an equipment state no product is in.
func DeleteEquipmentState(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteUnused(ctx, db, "equipment state", `DELETE FROM estados_equipo WHERE estado_equipo_id = ?`, id,
		usage{`SELECT COUNT(*) FROM productos WHERE estado_equipo_id = ?`, "used by products"})
}

// Movement types.

// CreateMovementType creates a movement type with an explicit stock effect.
func CreateMovementType(ctx context.Context, db *sqlx.DB, name string, kind model.MovementKind) (*model.MovementType, error) {
	name, err := requireName(name, "movement type")
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown movement kind %q", model.ErrInvalidArgument, kind)
	}
	id, err := insert(ctx, db, "movement type",
		`INSERT INTO tipos_movimiento (nombre, clase) VALUES (?, ?)`, name, kind)
	if err != nil {
		return nil, err
	}
	return GetMovementType(ctx, db, id)
}

// GetMovementType returns a movement type by ID.
func GetMovementType(ctx context.Context, db *sqlx.DB, id int64) (*model.MovementType, error) {
	return getOne[model.MovementType](ctx, db, "movement type",
		`SELECT tipo_movimiento_id, nombre, clase FROM tipos_movimiento WHERE tipo_movimiento_id = ?`, id)
}

// ListMovementTypes returns all movement types in ID order.
func ListMovementTypes(ctx context.Context, db *sqlx.DB) ([]model.MovementType, error) {
	var types []model.MovementType
	if err := db.SelectContext(ctx, &types,
		`SELECT tipo_movimiento_id, nombre, clase FROM tipos_movimiento ORDER BY tipo_movimiento_id`); err != nil {
		return nil, fmt.Errorf("listing movement types: %w", translate(err))
	}
	return types, nil
}
