package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/db"
	"github.com/itec-nfc/inventario/internal/model"
)

func TestBuildLocationReportEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	rows, err := BuildLocationReport(context.Background(), database)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildLocationReportCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleAdmin)
	tech := createTestUser(t, database, "2", "Tomás", "Rojas", model.RoleTechnician)
	sess := sessionFor(admin)

	laptop := createTestProduct(t, database, "Laptop", "LP-1", 3)
	printer := createTestProduct(t, database, "Impresora", "IMP-1", 1)
	cable := createTestProduct(t, database, "Cable HDMI", "", 4)
	mouse := createTestProduct(t, database, "Mouse", "", 3)
	shop := createTestStore(t, database, "Tienda Centro")
	createTestStore(t, database, "Tienda Vacía")

	// Laptop is assigned and also has an open ticket: it must only be listed
	// as assigned even though it still has warehouse stock.
	_, err := RecordMovement(ctx, database, sess, model.MovementInput{
		ProductID: laptop.ID, UserID: admin.ID, MovementTypeID: movementAssign,
	})
	require.NoError(t, err)
	_, err = CreateMaintenance(ctx, database, sess, laptop.ID, tech.ID, "Pantalla")
	require.NoError(t, err)

	_, err = CreateMaintenance(ctx, database, sess, printer.ID, tech.ID, "Atasco")
	require.NoError(t, err)

	_, err = ShipToStore(ctx, database, sess, mouse.ID, shop.ID, 3)
	require.NoError(t, err)
	w, err := RequestWithdrawal(ctx, database, sess, mouse.ID, shop.ID, 1)
	require.NoError(t, err)
	_, err = ConfirmWithdrawal(ctx, database, sess, w.ID)
	require.NoError(t, err)

	rows, err := BuildLocationReport(ctx, database)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, model.LocationRow{
		ProductID: laptop.ID, ProductName: "Laptop", Serial: "LP-1",
		Kind: model.LocationAssigned, Detail: "Ana Pérez", Quantity: 1,
	}, rows[0])

	assert.Equal(t, model.LocationMaintenance, rows[1].Kind)
	assert.Equal(t, printer.ID, rows[1].ProductID)
	assert.Contains(t, rows[1].Detail, "Tomás Rojas")

	assert.Equal(t, model.LocationWarehouse, rows[2].Kind)
	assert.Equal(t, cable.ID, rows[2].ProductID)
	assert.Equal(t, "Bodega central", rows[2].Detail)
	assert.Equal(t, 4, rows[2].Quantity)

	assert.Equal(t, model.LocationWarehouse, rows[3].Kind)
	assert.Equal(t, mouse.ID, rows[3].ProductID)
	assert.Equal(t, 1, rows[3].Quantity)

	assert.Equal(t, model.LocationRow{
		ProductID: mouse.ID, ProductName: "Mouse", Serial: model.BulkSerialMarker,
		Kind: model.LocationStore, Detail: "Tienda Centro (Cantidad: 2)", Quantity: 2,
	}, rows[4])

	// Assigned, maintenance and warehouse never share a product.
	seen := map[int64]model.LocationKind{}
	for _, r := range rows {
		if r.Kind == model.LocationStore {
			continue
		}
		if prev, ok := seen[r.ProductID]; ok {
			t.Errorf("product %d listed as %s and %s", r.ProductID, prev, r.Kind)
		}
		seen[r.ProductID] = r.Kind
	}
}

func TestBuildStoreStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleAdmin)
	sess := sessionFor(admin)
	resma := createTestProduct(t, database, "Resma", "", 10)
	toner := createTestProduct(t, database, "Toner", "", 10)
	north := createTestStore(t, database, "Norte")
	south := createTestStore(t, database, "Sur")
	createTestStore(t, database, "Este")

	for _, ship := range []struct {
		product, store int64
		qty            int
	}{
		{resma.ID, north.ID, 4},
		{toner.ID, north.ID, 2},
		{resma.ID, south.ID, 1},
	} {
		_, err := ShipToStore(ctx, database, sess, ship.product, ship.store, ship.qty)
		require.NoError(t, err)
	}

	// Fully withdrawn from Sur, which then holds nothing.
	w, err := RequestWithdrawal(ctx, database, sess, resma.ID, south.ID, 1)
	require.NoError(t, err)
	_, err = ConfirmWithdrawal(ctx, database, sess, w.ID)
	require.NoError(t, err)

	// Pending withdrawals do not reduce store stock.
	_, err = RequestWithdrawal(ctx, database, sess, toner.ID, north.ID, 1)
	require.NoError(t, err)

	groups, err := BuildStoreStock(ctx, database)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Norte", groups[0].Store.Name)
	require.Len(t, groups[0].Products, 2)
	assert.Equal(t, "Resma", groups[0].Products[0].ProductName)
	assert.Equal(t, 4, groups[0].Products[0].Stock)
	assert.Equal(t, "Toner", groups[0].Products[1].ProductName)
	assert.Equal(t, 2, groups[0].Products[1].Stock)
	assert.Zero(t, groups[0].Products[1].Withdrawn)
}

func TestDashboardStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestProduct(t, database, "Silla", "", 2)
	createTestProduct(t, database, "Mesa", "", 3)

	stats, err := DashboardStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, 5, stats.WarehouseUnits)
	assert.True(t, stats.WarehouseValue.Equal(decimal.RequireFromString("7502.5")), stats.WarehouseValue.String())
	assert.Zero(t, stats.PendingWithdrawals)
	assert.Zero(t, stats.OpenMaintenance)
	assert.Zero(t, stats.Readings)
}
