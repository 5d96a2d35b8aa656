package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/store"
)

// catalogField is one column of a catalog table and one input of its forms.
type catalogField struct {
	Name     string
	Label    string
	Required bool
	Fixed    bool // set on creation only
	Options  []catalogOption
}

type catalogOption struct {
	Value string
	Label string
}

type catalogRow struct {
	ID     int64
	Values map[string]string
}

type formFunc func(name string) string

// catalog describes a lookup table managed through one generic page.
// A nil update or remove hides the corresponding forms.
type catalog struct {
	Path     string
	Title    string
	Singular string
	Fields   []catalogField

	list   func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error)
	create func(ctx context.Context, db *sqlx.DB, form formFunc) error
	update func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error
	remove func(ctx context.Context, db *sqlx.DB, id int64) error
}

func rowsOf[T any](items []T, id func(T) int64, values func(T) map[string]string) []catalogRow {
	rows := make([]catalogRow, len(items))
	for i, it := range items {
		rows[i] = catalogRow{ID: id(it), Values: values(it)}
	}
	return rows
}

var movementKindOptions = []catalogOption{
	{Value: string(model.MovementDebit), Label: kindName(model.MovementDebit)},
	{Value: string(model.MovementCredit), Label: kindName(model.MovementCredit)},
	{Value: string(model.MovementNeutral), Label: kindName(model.MovementNeutral)},
}

func catalogs() []*catalog {
	nameField := func(label string) catalogField {
		return catalogField{Name: "nombre", Label: label, Required: true}
	}

	return []*catalog{
		{
			Path: "/areas", Title: "Áreas", Singular: "Área",
			Fields: []catalogField{nameField("Nombre del área")},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				areas, err := store.ListAreas(ctx, db)
				return rowsOf(areas, func(a model.Area) int64 { return a.ID },
					func(a model.Area) map[string]string { return map[string]string{"nombre": a.Name} }), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateArea(ctx, db, form("nombre"))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateArea(ctx, db, id, form("nombre"))
			},
			remove: store.DeleteArea,
		},
		{
			Path: "/roles", Title: "Roles", Singular: "Rol",
			Fields: []catalogField{nameField("Nombre del rol")},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				roles, err := store.ListRoles(ctx, db)
				return rowsOf(roles, func(r model.Role) int64 { return r.ID },
					func(r model.Role) map[string]string { return map[string]string{"nombre": r.Name} }), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateRole(ctx, db, form("nombre"))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateRole(ctx, db, id, form("nombre"))
			},
			remove: store.DeleteRole,
		},
		{
			Path: "/tiendas", Title: "Tiendas", Singular: "Tienda",
			Fields: []catalogField{
				nameField("Nombre de la tienda"),
				{Name: "direccion", Label: "Dirección"},
			},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				stores, err := store.ListStores(ctx, db)
				return rowsOf(stores, func(t model.Store) int64 { return t.ID },
					func(t model.Store) map[string]string {
						return map[string]string{"nombre": t.Name, "direccion": t.Address}
					}), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateStore(ctx, db, form("nombre"), form("direccion"))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateStore(ctx, db, id, form("nombre"), form("direccion"))
			},
			remove: store.DeleteStore,
		},
		{
			Path: "/proveedores", Title: "Proveedores", Singular: "Proveedor",
			Fields: []catalogField{
				nameField("Nombre"),
				{Name: "contacto", Label: "Contacto"},
				{Name: "telefono", Label: "Teléfono"},
				{Name: "email", Label: "Email"},
			},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				suppliers, err := store.ListSuppliers(ctx, db)
				return rowsOf(suppliers, func(p model.Supplier) int64 { return p.ID },
					func(p model.Supplier) map[string]string {
						return map[string]string{"nombre": p.Name, "contacto": p.Contact, "telefono": p.Phone, "email": p.Email}
					}), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateSupplier(ctx, db, supplierFromForm(0, form))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateSupplier(ctx, db, supplierFromForm(id, form))
			},
			remove: store.DeleteSupplier,
		},
		{
			Path: "/tipos-producto", Title: "Tipos de producto", Singular: "Tipo de producto",
			Fields: []catalogField{
				nameField("Nombre del tipo"),
				{Name: "categoria", Label: "Categoría", Fixed: true},
			},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				types, err := store.ListProductTypes(ctx, db)
				return rowsOf(types, func(t model.ProductType) int64 { return t.ID },
					func(t model.ProductType) map[string]string {
						return map[string]string{"nombre": t.Name, "categoria": t.Category}
					}), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateProductType(ctx, db, form("nombre"), form("categoria"))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateProductType(ctx, db, id, form("nombre"))
			},
			remove: store.DeleteProductType,
		},
		{
			Path: "/estados-equipo", Title: "Estados de equipo", Singular: "Estado",
			Fields: []catalogField{nameField("Nombre del estado")},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				states, err := store.ListEquipmentStates(ctx, db)
				return rowsOf(states, func(e model.EquipmentState) int64 { return e.ID },
					func(e model.EquipmentState) map[string]string { return map[string]string{"nombre": e.Name} }), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateEquipmentState(ctx, db, form("nombre"))
				return err
			},
			update: func(ctx context.Context, db *sqlx.DB, id int64, form formFunc) error {
				return store.UpdateEquipmentState(ctx, db, id, form("nombre"))
			},
			remove: store.DeleteEquipmentState,
		},
		{
			Path: "/tipos-movimiento", Title: "Tipos de movimiento", Singular: "Tipo de movimiento",
			Fields: []catalogField{
				nameField("Nombre del movimiento"),
				{Name: "clase", Label: "Efecto en stock", Required: true, Fixed: true, Options: movementKindOptions},
			},
			list: func(ctx context.Context, db *sqlx.DB) ([]catalogRow, error) {
				types, err := store.ListMovementTypes(ctx, db)
				return rowsOf(types, func(t model.MovementType) int64 { return t.ID },
					func(t model.MovementType) map[string]string {
						return map[string]string{"nombre": t.Name, "clase": kindName(t.Kind)}
					}), err
			},
			create: func(ctx context.Context, db *sqlx.DB, form formFunc) error {
				_, err := store.CreateMovementType(ctx, db, form("nombre"), model.MovementKind(form("clase")))
				return err
			},
		},
	}
}

func supplierFromForm(id int64, form formFunc) model.Supplier {
	return model.Supplier{
		ID:      id,
		Name:    form("nombre"),
		Contact: form("contacto"),
		Phone:   form("telefono"),
		Email:   form("email"),
	}
}

func trimmedForm(c *fiber.Ctx) formFunc {
	return func(name string) string { return strings.TrimSpace(c.FormValue(name)) }
}

// registerCatalog mounts the list, create, update and delete routes of cat.
func (s *Server) registerCatalog(route routeFunc, cat *catalog) {
	route(fiber.MethodGet, cat.Path, s.catalogPage(cat))
	route(fiber.MethodPost, cat.Path, s.catalogCreate(cat))
	if cat.update != nil {
		route(fiber.MethodPost, cat.Path+"/:id", s.catalogUpdate(cat))
	}
	if cat.remove != nil {
		route(fiber.MethodPost, cat.Path+"/:id/eliminar", s.catalogDelete(cat))
	}
}

func (s *Server) catalogPage(cat *catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := cat.list(c.UserContext(), s.DB)
		if err != nil {
			return err
		}
		return c.Render("catalogo", struct {
			PageData
			Catalog   *catalog
			Rows      []catalogRow
			Editable  bool
			Deletable bool
		}{
			PageData:  s.page(c, cat.Title),
			Catalog:   cat,
			Rows:      rows,
			Editable:  cat.update != nil,
			Deletable: cat.remove != nil,
		})
	}
}

func (s *Server) catalogCreate(cat *catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := cat.create(c.UserContext(), s.DB, trimmedForm(c)); err != nil {
			return s.fail(c, "creating "+cat.Path, err, cat.Path)
		}
		return s.done(c, fmt.Sprintf("Se agregó un registro a %s.", cat.Title), cat.Path)
	}
}

func (s *Server) catalogUpdate(cat *catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := cat.update(c.UserContext(), s.DB, id, trimmedForm(c)); err != nil {
			return s.fail(c, "updating "+cat.Path, err, cat.Path)
		}
		return s.done(c, fmt.Sprintf("Se actualizó un registro de %s.", cat.Title), cat.Path)
	}
}

func (s *Server) catalogDelete(cat *catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := cat.remove(c.UserContext(), s.DB, id); err != nil {
			return s.fail(c, "deleting "+cat.Path, err, cat.Path)
		}
		return s.done(c, fmt.Sprintf("Se eliminó un registro de %s.", cat.Title), cat.Path)
	}
}
