package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
)

const maintenanceSelect = `
	SELECT m.mantenimiento_id, m.producto_id, p.nombre AS nombre_producto, p.numero_serie,
	       m.tecnico_id, pe.primer_nombre || ' ' || pe.apellido_pat AS nombre_tecnico,
	       m.descripcion, m.fecha_inicio, m.fecha_fin
	FROM mantenimientos m
	JOIN productos p ON p.producto_id = m.producto_id
	JOIN usuarios u ON u.usuario_id = m.tecnico_id
	JOIN personas pe ON pe.rut = u.persona_rut`

// CreateMaintenance opens a repair ticket and puts the product in repair.
// Only administrators open tickets, and only for technicians.
func CreateMaintenance(ctx context.Context, db *sqlx.DB, sess auth.Session, productID, technicianID int64, description string) (*model.Maintenance, error) {
	if !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return nil, fmt.Errorf("opening maintenance: %w", model.ErrForbidden)
	}
	description = strings.TrimSpace(description)
	if productID <= 0 || technicianID <= 0 || description == "" {
		return nil, fmt.Errorf("%w: product, technician and description are required", model.ErrInvalidArgument)
	}

	var id int64
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, "product", `SELECT COUNT(*) FROM productos WHERE producto_id = ?`, productID); err != nil {
			return err
		}

		var role sql.NullString
		err := tx.GetContext(ctx, &role,
			`SELECT r.nombre_rol FROM usuarios u LEFT JOIN roles r ON r.id_rol = u.id_rol WHERE u.usuario_id = ?`,
			technicianID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("technician %d: %w", technicianID, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("loading technician: %w", translate(err))
		}
		if role.String != model.RoleTechnician {
			return fmt.Errorf("%w: user %d is not a technician", model.ErrInvalidArgument, technicianID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO mantenimientos (producto_id, tecnico_id, descripcion, fecha_inicio) VALUES (?, ?, ?, ?)`,
			productID, technicianID, description, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("creating maintenance: %w", translate(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("getting maintenance id: %w", translate(err))
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE productos SET estado_equipo_id = ? WHERE producto_id = ?`,
			model.EquipmentStateInRepair, productID); err != nil {
			return fmt.Errorf("updating equipment state: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetMaintenance(ctx, db, id)
}

// GetMaintenance returns a ticket by ID.
func GetMaintenance(ctx context.Context, db *sqlx.DB, id int64) (*model.Maintenance, error) {
	var m model.Maintenance
	err := db.GetContext(ctx, &m, maintenanceSelect+` WHERE m.mantenimiento_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance: %w", translate(err))
	}
	return &m, nil
}

// ListMaintenance returns the tickets visible to the session: all of them
// for administrators, the assigned ones for technicians. Open tickets come
// first, newest first.
func ListMaintenance(ctx context.Context, db *sqlx.DB, sess auth.Session) ([]model.Maintenance, error) {
	const order = ` ORDER BY m.fecha_fin IS NOT NULL, m.fecha_inicio DESC, m.mantenimiento_id DESC`

	var (
		list []model.Maintenance
		err  error
	)
	switch {
	case model.RoleAtLeast(sess.Role, model.RoleAdmin):
		err = db.SelectContext(ctx, &list, maintenanceSelect+order)
	case sess.Role == model.RoleTechnician:
		err = db.SelectContext(ctx, &list, maintenanceSelect+` WHERE m.tecnico_id = ?`+order, sess.UserID)
	default:
		return nil, fmt.Errorf("listing maintenance: %w", model.ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("listing maintenance: %w", translate(err))
	}
	return list, nil
}

// CanEditMaintenance reports whether the session may update the ticket.
func CanEditMaintenance(sess auth.Session, m *model.Maintenance) bool {
	if model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return true
	}
	return sess.Role == model.RoleTechnician && m.TechnicianID == sess.UserID
}

// UpdateMaintenance edits a ticket's description and optionally finishes it,
// which makes the product available again. A finished ticket cannot be
// finished again.
func UpdateMaintenance(ctx context.Context, db *sqlx.DB, sess auth.Session, id int64, description string, finish bool) (*model.Maintenance, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", model.ErrInvalidArgument)
	}

	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		var cur struct {
			ProductID    int64      `db:"producto_id"`
			TechnicianID int64      `db:"tecnico_id"`
			FinishedAt   *time.Time `db:"fecha_fin"`
		}
		err := tx.GetContext(ctx, &cur,
			`SELECT producto_id, tecnico_id, fecha_fin FROM mantenimientos WHERE mantenimiento_id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("maintenance %d: %w", id, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("loading maintenance: %w", translate(err))
		}
		if !CanEditMaintenance(sess, &model.Maintenance{TechnicianID: cur.TechnicianID}) {
			return fmt.Errorf("updating maintenance %d: %w", id, model.ErrForbidden)
		}
		if finish && cur.FinishedAt != nil {
			return fmt.Errorf("maintenance %d: %w", id, model.ErrAlreadyProcessed)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE mantenimientos SET descripcion = ? WHERE mantenimiento_id = ?`, description, id); err != nil {
			return fmt.Errorf("updating maintenance: %w", translate(err))
		}
		if !finish {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE mantenimientos SET fecha_fin = ? WHERE mantenimiento_id = ?`, time.Now().UTC(), id); err != nil {
			return fmt.Errorf("finishing maintenance: %w", translate(err))
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE productos SET estado_equipo_id = ? WHERE producto_id = ?`,
			model.EquipmentStateAvailable, cur.ProductID); err != nil {
			return fmt.Errorf("updating equipment state: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetMaintenance(ctx, db, id)
}
