package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/model"
)

var seedRoles = []string{model.RoleAdmin, model.RoleTechnician, model.RoleUser}

var seedEquipmentStates = []model.EquipmentState{
	{ID: model.EquipmentStateAssigned, Name: "Asignado"},
	{ID: model.EquipmentStateAvailable, Name: "Disponible"},
	{ID: model.EquipmentStateInRepair, Name: "En reparación"},
	{ID: model.EquipmentStateRetired, Name: "De baja"},
}

var seedMovementTypes = []model.MovementType{
	{ID: 1, Name: "Asignación", Kind: model.MovementDebit},
	{ID: 2, Name: "Devolución", Kind: model.MovementCredit},
	{ID: 3, Name: "Baja", Kind: model.MovementDebit},
	{ID: 4, Name: "Préstamo", Kind: model.MovementNeutral},
}

// Seed fills lookup tables that the application relies on. Each table is
// only seeded while empty, so edits made by administrators survive restarts.
func Seed(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	defer tx.Rollback()

	if empty, err := tableEmpty(tx, "roles"); err != nil {
		return err
	} else if empty {
		for _, name := range seedRoles {
			if _, err := tx.Exec(`INSERT INTO roles (nombre_rol) VALUES (?)`, name); err != nil {
				return fmt.Errorf("seeding roles: %w", err)
			}
		}
	}

	if empty, err := tableEmpty(tx, "estados_equipo"); err != nil {
		return err
	} else if empty {
		for _, s := range seedEquipmentStates {
			if _, err := tx.Exec(`INSERT INTO estados_equipo (estado_equipo_id, nombre) VALUES (?, ?)`, s.ID, s.Name); err != nil {
				return fmt.Errorf("seeding equipment states: %w", err)
			}
		}
	}

	if empty, err := tableEmpty(tx, "tipos_movimiento"); err != nil {
		return err
	} else if empty {
		for _, mt := range seedMovementTypes {
			if _, err := tx.Exec(`INSERT INTO tipos_movimiento (tipo_movimiento_id, nombre, clase) VALUES (?, ?, ?)`,
				mt.ID, mt.Name, mt.Kind); err != nil {
				return fmt.Errorf("seeding movement types: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}

func tableEmpty(tx *sqlx.Tx, table string) (bool, error) {
	var n int
	if err := tx.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		return false, fmt.Errorf("counting %s: %w", table, err)
	}
	return n == 0, nil
}
