package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/itec-nfc/inventario/internal/model"
)

// storeTotals derives per (product, store) stock from shipments minus
// completed withdrawals.
const storeTotals = `
	SELECT e.producto_id, e.tienda_id, e.total_enviado,
	       COALESCE(r.total_retirado, 0) AS total_retirado,
	       e.total_enviado - COALESCE(r.total_retirado, 0) AS stock_en_tienda
	FROM (SELECT producto_id, tienda_id, SUM(cantidad_enviada) AS total_enviado
	      FROM envios_tienda GROUP BY producto_id, tienda_id) e
	LEFT JOIN (SELECT producto_id, tienda_id, SUM(cantidad_retirada) AS total_retirado
	           FROM retiros_tienda WHERE estado = 'Completado'
	           GROUP BY producto_id, tienda_id) r
	       ON r.producto_id = e.producto_id AND r.tienda_id = e.tienda_id`

// locationReport lists every unit in exactly one place. Products with an
// open assignment are excluded from maintenance and warehouse; products in
// open maintenance are excluded from warehouse.
const locationReport = `
	SELECT * FROM (
		SELECT 1 AS orden, p.producto_id, p.nombre AS nombre_producto,
		       COALESCE(p.numero_serie, '') AS numero_serie, 'Asignado' AS ubicacion,
		       pe.primer_nombre || ' ' || pe.apellido_pat AS detalle, 1 AS cantidad
		FROM historico_asignaciones h
		JOIN productos p ON p.producto_id = h.producto_id
		JOIN usuarios u ON u.usuario_id = h.usuario_id
		JOIN personas pe ON pe.rut = u.persona_rut
		WHERE h.fecha_devolucion IS NULL

		UNION ALL

		SELECT 2, p.producto_id, p.nombre, COALESCE(p.numero_serie, ''), 'En Mantenimiento',
		       'Técnico: ' || pe.primer_nombre || ' ' || pe.apellido_pat || ' (ID ' || m.tecnico_id || ')', 1
		FROM mantenimientos m
		JOIN productos p ON p.producto_id = m.producto_id
		JOIN usuarios u ON u.usuario_id = m.tecnico_id
		JOIN personas pe ON pe.rut = u.persona_rut
		WHERE m.fecha_fin IS NULL
		  AND m.producto_id NOT IN (SELECT producto_id FROM historico_asignaciones WHERE fecha_devolucion IS NULL)

		UNION ALL

		SELECT 3, p.producto_id, p.nombre, COALESCE(p.numero_serie, ''), 'Bodega',
		       p.ubicacion_fisica, p.stock_actual
		FROM productos p
		WHERE p.stock_actual > 0
		  AND p.producto_id NOT IN (SELECT producto_id FROM historico_asignaciones WHERE fecha_devolucion IS NULL)
		  AND p.producto_id NOT IN (SELECT producto_id FROM mantenimientos WHERE fecha_fin IS NULL)

		UNION ALL

		SELECT 4, p.producto_id, p.nombre, ?, 'En Tienda',
		       t.nombre_tienda || ' (Cantidad: ' || s.stock_en_tienda || ')', s.stock_en_tienda
		FROM (` + storeTotals + `) s
		JOIN productos p ON p.producto_id = s.producto_id
		JOIN tiendas t ON t.tienda_id = s.tienda_id
		WHERE s.stock_en_tienda > 0
	)
	ORDER BY orden, nombre_producto, producto_id, detalle`

// BuildLocationReport classifies every product unit as assigned, in
// maintenance, in the warehouse or in a store, in that category order.
func BuildLocationReport(ctx context.Context, db *sqlx.DB) ([]model.LocationRow, error) {
	var rows []struct {
		Order int `db:"orden"`
		model.LocationRow
	}
	if err := db.SelectContext(ctx, &rows, locationReport, model.BulkSerialMarker); err != nil {
		return nil, fmt.Errorf("building location report: %w", translate(err))
	}

	report := make([]model.LocationRow, len(rows))
	for i, r := range rows {
		report[i] = r.LocationRow
	}
	return report, nil
}

// BuildStoreStock groups the derived stock of every store by store name.
// Stores holding nothing are omitted.
func BuildStoreStock(ctx context.Context, db *sqlx.DB) ([]model.StoreStockGroup, error) {
	var lines []struct {
		StoreID   int64  `db:"tienda_id"`
		StoreName string `db:"nombre_tienda"`
		model.StoreStockLine
	}
	err := db.SelectContext(ctx, &lines, `
		SELECT s.tienda_id, t.nombre_tienda, s.producto_id, p.nombre, COALESCE(p.numero_serie, '') AS numero_serie,
		       s.total_enviado, s.total_retirado, s.stock_en_tienda
		FROM (`+storeTotals+`) s
		JOIN productos p ON p.producto_id = s.producto_id
		JOIN tiendas t ON t.tienda_id = s.tienda_id
		WHERE s.stock_en_tienda > 0
		ORDER BY t.nombre_tienda, p.nombre`)
	if err != nil {
		return nil, fmt.Errorf("building store stock: %w", translate(err))
	}

	var groups []model.StoreStockGroup
	for _, l := range lines {
		if n := len(groups); n == 0 || groups[n-1].Store.ID != l.StoreID {
			groups = append(groups, model.StoreStockGroup{
				Store: model.Store{ID: l.StoreID, Name: l.StoreName},
			})
		}
		g := &groups[len(groups)-1]
		g.Products = append(g.Products, l.StoreStockLine)
	}
	return groups, nil
}

// DashboardStats summarizes the inventory.
func DashboardStats(ctx context.Context, db *sqlx.DB) (*model.DashboardStats, error) {
	var row struct {
		Products           int `db:"products"`
		WarehouseUnits     int `db:"units"`
		PendingWithdrawals int `db:"pending"`
		OpenMaintenance    int `db:"open_maintenance"`
		Readings           int `db:"readings"`
	}
	err := db.GetContext(ctx, &row, `
		SELECT (SELECT COUNT(*) FROM productos WHERE activo = 1) AS products,
		       (SELECT COALESCE(SUM(stock_actual), 0) FROM productos) AS units,
		       (SELECT COUNT(*) FROM retiros_tienda WHERE estado = 'Pendiente') AS pending,
		       (SELECT COUNT(*) FROM mantenimientos WHERE fecha_fin IS NULL) AS open_maintenance,
		       (SELECT COUNT(*) FROM nfc_readings) AS readings`)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard stats: %w", translate(err))
	}

	// valor_unitario is decimal text; sum it exactly.
	var values []struct {
		Stock int             `db:"stock_actual"`
		Value decimal.Decimal `db:"valor_unitario"`
	}
	if err := db.SelectContext(ctx, &values,
		`SELECT stock_actual, valor_unitario FROM productos WHERE stock_actual > 0`); err != nil {
		return nil, fmt.Errorf("loading warehouse valuation: %w", translate(err))
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Value.Mul(decimal.NewFromInt(int64(v.Stock))))
	}

	return &model.DashboardStats{
		Products:           row.Products,
		WarehouseUnits:     row.WarehouseUnits,
		WarehouseValue:     total,
		PendingWithdrawals: row.PendingWithdrawals,
		OpenMaintenance:    row.OpenMaintenance,
		Readings:           row.Readings,
	}, nil
}
