package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// columnMigration adds a column that older databases lack. Backfill runs
// once, right after the column is added.
type columnMigration struct {
	table      string
	column     string
	definition string
	backfill   []string
}

// migrations is applied in order after schema creation. Append new entries
// at the end.
var migrations = []columnMigration{
	// Movement types used to be classified by their display name. The kind
	// column replaces that; existing rows are classified once here.
	{
		table:      "tipos_movimiento",
		column:     "clase",
		definition: `TEXT NOT NULL DEFAULT 'neutral' CHECK (clase IN ('debit', 'credit', 'neutral'))`,
		backfill: []string{
			`UPDATE tipos_movimiento SET clase = 'debit'
			 WHERE lower(nombre) LIKE '%asign%' OR lower(nombre) LIKE '%baja%'`,
			`UPDATE tipos_movimiento SET clase = 'credit' WHERE lower(nombre) LIKE '%devoluci%'`,
		},
	},
	{
		table:      "nfc_readings",
		column:     "scan_type",
		definition: `TEXT NOT NULL DEFAULT 'unknown'`,
		backfill: []string{
			`UPDATE nfc_readings SET scan_type = lower(json_extract(nfc_data, '$.scan_type'))
			 WHERE json_valid(nfc_data) AND json_extract(nfc_data, '$.scan_type') IS NOT NULL`,
		},
	},
}

func migrate(db *sqlx.DB) error {
	for i, m := range migrations {
		exists, err := columnExists(db, m.table, m.column)
		if err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if exists {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		stmts := append([]string{
			fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition),
		}, m.backfill...)
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("running migration %d: %w", i+1, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}
	return nil
}

func columnExists(db *sqlx.DB, table, column string) (bool, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
	if err != nil {
		return false, fmt.Errorf("inspecting %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}
