package model

import "github.com/shopspring/decimal"

// LocationKind is the place a unit of a product currently is.
type LocationKind string

// Location kinds, in report order.
const (
	LocationAssigned    LocationKind = "Asignado"
	LocationMaintenance LocationKind = "En Mantenimiento"
	LocationWarehouse   LocationKind = "Bodega"
	LocationStore       LocationKind = "En Tienda"
)

// BulkSerialMarker replaces the serial number on store rows, which aggregate
// quantities instead of listing units.
const BulkSerialMarker = "N/A (Stock por cantidad)"

// LocationRow is one line of the inventory location report.
type LocationRow struct {
	ProductID   int64        `db:"producto_id" json:"product_id"`
	ProductName string       `db:"nombre_producto" json:"product"`
	Serial      string       `db:"numero_serie" json:"serial"`
	Kind        LocationKind `db:"ubicacion" json:"location"`
	Detail      string       `db:"detalle" json:"detail"`
	Quantity    int          `db:"cantidad" json:"quantity"`
}

// StoreStockLine is the derived stock of one product in a store.
type StoreStockLine struct {
	ProductID   int64  `db:"producto_id" json:"product_id"`
	ProductName string `db:"nombre" json:"product"`
	Serial      string `db:"numero_serie" json:"serial,omitempty"`
	Shipped     int    `db:"total_enviado" json:"shipped"`
	Withdrawn   int    `db:"total_retirado" json:"withdrawn"`
	Stock       int    `db:"stock_en_tienda" json:"stock"`
}

// StoreStockGroup lists the products a store currently holds.
type StoreStockGroup struct {
	Store    Store            `json:"store"`
	Products []StoreStockLine `json:"products"`
}

// DashboardStats summarizes the inventory for the dashboard.
type DashboardStats struct {
	Products           int             `json:"products"`
	WarehouseUnits     int             `json:"warehouse_units"`
	WarehouseValue     decimal.Decimal `json:"warehouse_value"`
	PendingWithdrawals int             `json:"pending_withdrawals"`
	OpenMaintenance    int             `json:"open_maintenance"`
	Readings           int             `json:"readings"`
}
