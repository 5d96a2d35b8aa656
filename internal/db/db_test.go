package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	require.NoError(t, Seed(database))
	require.NoError(t, EnsureSchema(database))

	var roles, states, movements int
	require.NoError(t, database.Get(&roles, `SELECT COUNT(*) FROM roles`))
	require.NoError(t, database.Get(&states, `SELECT COUNT(*) FROM estados_equipo`))
	require.NoError(t, database.Get(&movements, `SELECT COUNT(*) FROM tipos_movimiento`))
	assert.Equal(t, len(seedRoles), roles)
	assert.Equal(t, len(seedEquipmentStates), states)
	assert.Equal(t, len(seedMovementTypes), movements)
}

func TestSeedKeepsEditedMovementTypes(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`DELETE FROM tipos_movimiento WHERE tipo_movimiento_id = 4`)
	require.NoError(t, err)
	require.NoError(t, Seed(database))

	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM tipos_movimiento`))
	assert.Equal(t, 3, n)
}

func TestMigrateClassifiesLegacyMovementTypes(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "legacy.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(`CREATE TABLE tipos_movimiento (
		tipo_movimiento_id INTEGER PRIMARY KEY,
		nombre TEXT NOT NULL UNIQUE
	)`)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO tipos_movimiento (nombre) VALUES
		('Asignación'), ('Devolución'), ('Baja'), ('Préstamo')`)
	require.NoError(t, err)

	require.NoError(t, EnsureSchema(database))

	kinds := map[string]string{}
	rows, err := database.Queryx(`SELECT nombre, clase FROM tipos_movimiento`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name, kind string
		require.NoError(t, rows.Scan(&name, &kind))
		kinds[name] = kind
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, "debit", kinds["Asignación"])
	assert.Equal(t, "credit", kinds["Devolución"])
	assert.Equal(t, "debit", kinds["Baja"])
	assert.Equal(t, "neutral", kinds["Préstamo"])
}

func TestStockCannotGoNegative(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO productos (nombre, stock_actual) VALUES ('Cable', 1)`)
	require.NoError(t, err)
	_, err = database.Exec(`UPDATE productos SET stock_actual = stock_actual - 2`)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN("inventario.sqlite3")
	assert.Contains(t, dsn, "file:inventario.sqlite3?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
}
