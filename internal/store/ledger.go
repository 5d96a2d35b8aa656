package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
)

const assignmentSelect = `
	SELECT h.historico_id, h.producto_id, pr.nombre AS nombre_producto,
	       h.usuario_id, pa.primer_nombre || ' ' || pa.apellido_pat AS nombre_asignado,
	       h.tipo_movimiento_id, tm.nombre AS nombre_movimiento, tm.clase,
	       h.responsable_id, pr2.primer_nombre || ' ' || pr2.apellido_pat AS nombre_responsable,
	       h.fecha_asignacion, h.fecha_devolucion, h.comentarios
	FROM historico_asignaciones h
	JOIN productos pr ON pr.producto_id = h.producto_id
	JOIN tipos_movimiento tm ON tm.tipo_movimiento_id = h.tipo_movimiento_id
	JOIN usuarios ua ON ua.usuario_id = h.usuario_id
	JOIN personas pa ON pa.rut = ua.persona_rut
	JOIN usuarios ur ON ur.usuario_id = h.responsable_id
	JOIN personas pr2 ON pr2.rut = ur.persona_rut`

const shipmentSelect = `
	SELECT e.envio_id, e.producto_id, p.nombre AS nombre_producto, e.tienda_id, t.nombre_tienda,
	       e.cantidad_enviada, e.usuario_id, e.fecha_envio
	FROM envios_tienda e
	JOIN productos p ON p.producto_id = e.producto_id
	JOIN tiendas t ON t.tienda_id = e.tienda_id`

const withdrawalSelect = `
	SELECT r.retiro_id, r.producto_id, p.nombre AS nombre_producto, r.tienda_id, t.nombre_tienda,
	       r.cantidad_retirada, r.estado, r.usuario_solicitante_id,
	       pe.primer_nombre || ' ' || pe.apellido_pat AS nombre_solicitante,
	       r.usuario_receptor_id, r.fecha_solicitud, r.fecha_recepcion
	FROM retiros_tienda r
	JOIN productos p ON p.producto_id = r.producto_id
	JOIN tiendas t ON t.tienda_id = r.tienda_id
	JOIN usuarios u ON u.usuario_id = r.usuario_solicitante_id
	JOIN personas pe ON pe.rut = u.persona_rut`

// storeStockQuery derives the units of a product held by a store: everything
// shipped there minus the completed withdrawals. Pending withdrawals don't
// count until they are confirmed.
const storeStockQuery = `
	SELECT COALESCE((SELECT SUM(cantidad_enviada) FROM envios_tienda
	                 WHERE producto_id = ? AND tienda_id = ?), 0)
	     - COALESCE((SELECT SUM(cantidad_retirada) FROM retiros_tienda
	                 WHERE producto_id = ? AND tienda_id = ? AND estado = 'Completado'), 0)`

func requireRow(ctx context.Context, tx *sqlx.Tx, what, query string, id int64) error {
	var n int
	if err := tx.GetContext(ctx, &n, query, id); err != nil {
		return fmt.Errorf("checking %s: %w", what, translate(err))
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return nil
}

func requireSessionUser(ctx context.Context, tx *sqlx.Tx, sess auth.Session) error {
	return requireRow(ctx, tx, "session user", `SELECT COUNT(*) FROM usuarios WHERE usuario_id = ?`, sess.UserID)
}

func productStock(ctx context.Context, tx *sqlx.Tx, productID int64) (int, error) {
	var stock int
	err := tx.GetContext(ctx, &stock, `SELECT stock_actual FROM productos WHERE producto_id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %d: %w", productID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("loading stock: %w", translate(err))
	}
	return stock, nil
}

func storeStock(ctx context.Context, q sqlx.QueryerContext, productID, storeID int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, storeStockQuery, productID, storeID, productID, storeID); err != nil {
		return 0, fmt.Errorf("deriving store stock: %w", translate(err))
	}
	return n, nil
}

// StoreStock returns the derived stock of a product in a store.
func StoreStock(ctx context.Context, db *sqlx.DB, productID, storeID int64) (int, error) {
	return storeStock(ctx, db, productID, storeID)
}

// RecordMovement records a movement of a product to a user and applies the
// stock effect declared by the movement type. A credit movement returns the
// product: it closes the returning user's oldest open record of the product
// and is stored closed.
func RecordMovement(ctx context.Context, db *sqlx.DB, sess auth.Session, in model.MovementInput) (*model.Assignment, error) {
	if in.ProductID <= 0 || in.UserID <= 0 || in.MovementTypeID <= 0 {
		return nil, fmt.Errorf("%w: product, user and movement type are required", model.ErrInvalidArgument)
	}

	var id int64
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := requireSessionUser(ctx, tx, sess); err != nil {
			return err
		}

		var mt model.MovementType
		err := tx.GetContext(ctx, &mt,
			`SELECT tipo_movimiento_id, nombre, clase FROM tipos_movimiento WHERE tipo_movimiento_id = ?`,
			in.MovementTypeID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("movement type %d: %w", in.MovementTypeID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("loading movement type: %w", translate(err))
		}

		stock, err := productStock(ctx, tx, in.ProductID)
		if err != nil {
			return err
		}
		if err := requireRow(ctx, tx, "user", `SELECT COUNT(*) FROM usuarios WHERE usuario_id = ?`, in.UserID); err != nil {
			return err
		}

		if mt.Kind == model.MovementDebit && stock < 1 {
			return fmt.Errorf("%s of product %d: %w", mt.Name, in.ProductID, model.ErrInsufficientStock)
		}
		if delta := mt.Kind.Delta(); delta != 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE productos SET stock_actual = stock_actual + ? WHERE producto_id = ?`,
				delta, in.ProductID); err != nil {
				return fmt.Errorf("adjusting stock: %w", translate(err))
			}
		}

		now := time.Now().UTC()
		var returned *time.Time
		if mt.Kind == model.MovementCredit {
			if _, err := tx.ExecContext(ctx,
				`UPDATE historico_asignaciones SET fecha_devolucion = ?
				 WHERE historico_id = (
				     SELECT historico_id FROM historico_asignaciones
				     WHERE producto_id = ? AND usuario_id = ? AND fecha_devolucion IS NULL
				     ORDER BY fecha_asignacion, historico_id
				     LIMIT 1)`,
				now, in.ProductID, in.UserID); err != nil {
				return fmt.Errorf("closing open assignment: %w", translate(err))
			}
			returned = &now
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO historico_asignaciones
			     (producto_id, usuario_id, tipo_movimiento_id, responsable_id, fecha_asignacion, fecha_devolucion, comentarios)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.ProductID, in.UserID, in.MovementTypeID, sess.UserID, now, returned, in.Comment)
		if err != nil {
			return fmt.Errorf("recording movement: %w", translate(err))
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting movement id: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetAssignment(ctx, db, id)
}

// GetAssignment returns a history record by ID.
func GetAssignment(ctx context.Context, db *sqlx.DB, id int64) (*model.Assignment, error) {
	var a model.Assignment
	err := db.GetContext(ctx, &a, assignmentSelect+` WHERE h.historico_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", translate(err))
	}
	return &a, nil
}

// ListAssignments returns the movement history, newest first.
func ListAssignments(ctx context.Context, db *sqlx.DB) ([]model.Assignment, error) {
	var list []model.Assignment
	if err := db.SelectContext(ctx, &list,
		assignmentSelect+` ORDER BY h.fecha_asignacion DESC, h.historico_id DESC`); err != nil {
		return nil, fmt.Errorf("listing assignments: %w", translate(err))
	}
	return list, nil
}

// ListProductAssignments returns the history of one product, newest first.
func ListProductAssignments(ctx context.Context, db *sqlx.DB, productID int64) ([]model.Assignment, error) {
	var list []model.Assignment
	if err := db.SelectContext(ctx, &list,
		assignmentSelect+` WHERE h.producto_id = ? ORDER BY h.fecha_asignacion DESC, h.historico_id DESC`,
		productID); err != nil {
		return nil, fmt.Errorf("listing product assignments: %w", translate(err))
	}
	return list, nil
}

// ShipToStore moves quantity units of a product from the warehouse to a store.
func ShipToStore(ctx context.Context, db *sqlx.DB, sess auth.Session, productID, storeID int64, quantity int) (*model.Shipment, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidArgument)
	}

	var id int64
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := requireSessionUser(ctx, tx, sess); err != nil {
			return err
		}
		stock, err := productStock(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := requireRow(ctx, tx, "store", `SELECT COUNT(*) FROM tiendas WHERE tienda_id = ?`, storeID); err != nil {
			return err
		}
		if quantity > stock {
			return fmt.Errorf("shipping %d of %d units: %w", quantity, stock, model.ErrInsufficientStock)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE productos SET stock_actual = stock_actual - ? WHERE producto_id = ?`,
			quantity, productID); err != nil {
			return fmt.Errorf("adjusting stock: %w", translate(err))
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO envios_tienda (producto_id, tienda_id, cantidad_enviada, usuario_id, fecha_envio)
			 VALUES (?, ?, ?, ?, ?)`,
			productID, storeID, quantity, sess.UserID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("creating shipment: %w", translate(err))
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting shipment id: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetShipment(ctx, db, id)
}

// GetShipment returns a shipment by ID.
func GetShipment(ctx context.Context, db *sqlx.DB, id int64) (*model.Shipment, error) {
	var s model.Shipment
	err := db.GetContext(ctx, &s, shipmentSelect+` WHERE e.envio_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting shipment: %w", translate(err))
	}
	return &s, nil
}

// ListShipments returns all shipments, newest first.
func ListShipments(ctx context.Context, db *sqlx.DB) ([]model.Shipment, error) {
	var list []model.Shipment
	if err := db.SelectContext(ctx, &list, shipmentSelect+` ORDER BY e.fecha_envio DESC, e.envio_id DESC`); err != nil {
		return nil, fmt.Errorf("listing shipments: %w", translate(err))
	}
	return list, nil
}

// RequestWithdrawal asks for quantity units of a product to return from a
// store. Stock is untouched until the withdrawal is confirmed.
func RequestWithdrawal(ctx context.Context, db *sqlx.DB, sess auth.Session, productID, storeID int64, quantity int) (*model.Withdrawal, error) {
	var id int64
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := requireSessionUser(ctx, tx, sess); err != nil {
			return err
		}
		available, err := storeStock(ctx, tx, productID, storeID)
		if err != nil {
			return err
		}
		if quantity <= 0 || quantity > available {
			return fmt.Errorf("%w: quantity must be between 1 and %d", model.ErrInvalidArgument, available)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO retiros_tienda (producto_id, tienda_id, cantidad_retirada, estado, usuario_solicitante_id, fecha_solicitud)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			productID, storeID, quantity, model.WithdrawalPending, sess.UserID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("requesting withdrawal: %w", translate(err))
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting withdrawal id: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetWithdrawal(ctx, db, id)
}

// ConfirmWithdrawal receives a pending withdrawal into the warehouse: the
// product's stock is credited and the withdrawal is marked completed by the
// session user.
func ConfirmWithdrawal(ctx context.Context, db *sqlx.DB, sess auth.Session, withdrawalID int64) (*model.Withdrawal, error) {
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := requireSessionUser(ctx, tx, sess); err != nil {
			return err
		}

		var w struct {
			ProductID int64  `db:"producto_id"`
			Quantity  int    `db:"cantidad_retirada"`
			Status    string `db:"estado"`
		}
		err := tx.GetContext(ctx, &w,
			`SELECT producto_id, cantidad_retirada, estado FROM retiros_tienda WHERE retiro_id = ?`, withdrawalID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("withdrawal %d: %w", withdrawalID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("loading withdrawal: %w", translate(err))
		}
		if w.Status != model.WithdrawalPending {
			return fmt.Errorf("withdrawal %d is %s: %w", withdrawalID, w.Status, model.ErrAlreadyProcessed)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE retiros_tienda SET estado = ?, fecha_recepcion = ?, usuario_receptor_id = ?
			 WHERE retiro_id = ? AND estado = ?`,
			model.WithdrawalCompleted, time.Now().UTC(), sess.UserID, withdrawalID, model.WithdrawalPending)
		if err != nil {
			return fmt.Errorf("completing withdrawal: %w", translate(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("withdrawal %d: %w", withdrawalID, model.ErrAlreadyProcessed)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE productos SET stock_actual = stock_actual + ? WHERE producto_id = ?`,
			w.Quantity, w.ProductID); err != nil {
			return fmt.Errorf("adjusting stock: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetWithdrawal(ctx, db, withdrawalID)
}

// GetWithdrawal returns a withdrawal by ID.
func GetWithdrawal(ctx context.Context, db *sqlx.DB, id int64) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := db.GetContext(ctx, &w, withdrawalSelect+` WHERE r.retiro_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting withdrawal: %w", translate(err))
	}
	return &w, nil
}

// ListPendingWithdrawals returns withdrawals awaiting confirmation, oldest
// request first.
func ListPendingWithdrawals(ctx context.Context, db *sqlx.DB) ([]model.Withdrawal, error) {
	var list []model.Withdrawal
	if err := db.SelectContext(ctx, &list,
		withdrawalSelect+` WHERE r.estado = ? ORDER BY r.fecha_solicitud, r.retiro_id`,
		model.WithdrawalPending); err != nil {
		return nil, fmt.Errorf("listing pending withdrawals: %w", translate(err))
	}
	return list, nil
}
