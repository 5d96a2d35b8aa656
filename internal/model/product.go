package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Serialized equipment carries a unique serial
// number; bulk goods leave it empty and are tracked by Stock alone.
type Product struct {
	ID                 int64           `db:"producto_id" json:"id"`
	Name               string          `db:"nombre" json:"name"`
	TypeID             *int64          `db:"tipo_producto_id" json:"type_id,omitempty"`
	TypeName           *string         `db:"nombre_tipo" json:"type,omitempty"`
	SupplierID         *int64          `db:"proveedor_id" json:"supplier_id,omitempty"`
	SupplierName       *string         `db:"nombre_proveedor" json:"supplier,omitempty"`
	Serial             *string         `db:"numero_serie" json:"serial,omitempty"`
	Stock              int             `db:"stock_actual" json:"stock"`
	EquipmentStateID   *int64          `db:"estado_equipo_id" json:"equipment_state_id,omitempty"`
	EquipmentStateName *string         `db:"nombre_estado" json:"equipment_state,omitempty"`
	Location           string          `db:"ubicacion_fisica" json:"location,omitempty"`
	UnitValue          decimal.Decimal `db:"valor_unitario" json:"unit_value"`
	Active             bool            `db:"activo" json:"active"`
	ImageMime          *string         `db:"imagen_mime" json:"image_mime,omitempty"`
	CreatedAt          time.Time       `db:"fecha_registro" json:"created_at"`
}

// SerialOrEmpty returns the serial number or "" for bulk goods.
func (p Product) SerialOrEmpty() string {
	if p.Serial == nil {
		return ""
	}
	return *p.Serial
}

// HasImage reports whether a photo was uploaded.
func (p Product) HasImage() bool {
	return p.ImageMime != nil && *p.ImageMime != ""
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name             string
	TypeID           *int64
	SupplierID       *int64
	Serial           string
	Stock            int
	EquipmentStateID *int64
	Location         string
	UnitValue        decimal.Decimal
	Active           bool
}
