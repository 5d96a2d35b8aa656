package model

// Area is an organizational unit users belong to.
type Area struct {
	ID   int64  `db:"area_id" json:"id"`
	Name string `db:"nombre_area" json:"name"`
}

// Role is a named permission group. Only the names listed in the Role*
// constants carry privileges.
type Role struct {
	ID   int64  `db:"id_rol" json:"id"`
	Name string `db:"nombre_rol" json:"name"`
}

// Store is a retail location that receives shipments from the warehouse.
type Store struct {
	ID      int64  `db:"tienda_id" json:"id"`
	Name    string `db:"nombre_tienda" json:"name"`
	Address string `db:"direccion" json:"address,omitempty"`
}

// Supplier provides products.
type Supplier struct {
	ID      int64  `db:"proveedor_id" json:"id"`
	Name    string `db:"nombre" json:"name"`
	Contact string `db:"contacto" json:"contact,omitempty"`
	Phone   string `db:"telefono" json:"phone,omitempty"`
	Email   string `db:"email" json:"email,omitempty"`
}

// ProductType classifies products. Category is a free grouping label such
// as "Activo Fijo".
type ProductType struct {
	ID       int64  `db:"tipo_producto_id" json:"id"`
	Name     string `db:"nombre_producto" json:"name"`
	Category string `db:"tipo_producto" json:"category"`
}

// DefaultProductCategory is used when a product type is created without one.
const DefaultProductCategory = "Activo Fijo"

// EquipmentState is the condition of a product.
type EquipmentState struct {
	ID   int64  `db:"estado_equipo_id" json:"id"`
	Name string `db:"nombre" json:"name"`
}

// Seeded equipment states referenced by the maintenance workflow.
const (
	EquipmentStateAssigned  int64 = 1
	EquipmentStateAvailable int64 = 2
	EquipmentStateInRepair  int64 = 3
	EquipmentStateRetired   int64 = 4
)

// MovementKind is the stock effect of a movement type.
type MovementKind string

// Movement kinds.
const (
	MovementDebit   MovementKind = "debit"
	MovementCredit  MovementKind = "credit"
	MovementNeutral MovementKind = "neutral"
)

// Delta returns the change applied to warehouse stock by one movement.
func (k MovementKind) Delta() int {
	switch k {
	case MovementDebit:
		return -1
	case MovementCredit:
		return 1
	default:
		return 0
	}
}

// Valid reports whether k is one of the known kinds.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementDebit, MovementCredit, MovementNeutral:
		return true
	}
	return false
}

// MovementType names a ledger movement and declares its stock effect.
type MovementType struct {
	ID   int64        `db:"tipo_movimiento_id" json:"id"`
	Name string       `db:"nombre" json:"name"`
	Kind MovementKind `db:"clase" json:"kind"`
}
