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

func TestCreateAndGetProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pt, err := CreateProductType(ctx, database, "Notebook", "")
	require.NoError(t, err)

	p, err := CreateProduct(ctx, database, model.ProductInput{
		Name:      " Lenovo T14 ",
		TypeID:    &pt.ID,
		Serial:    " SN-001 ",
		Stock:     1,
		Location:  "Estante A",
		UnitValue: decimal.RequireFromString("899990.00"),
		Active:    true,
	})
	require.NoError(t, err)

	got, err := GetProduct(ctx, database, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Lenovo T14", got.Name)
	assert.Equal(t, "SN-001", got.SerialOrEmpty())
	require.NotNil(t, got.TypeName)
	assert.Equal(t, "Notebook", *got.TypeName)
	assert.True(t, got.UnitValue.Equal(decimal.NewFromInt(899990)))
	assert.False(t, got.HasImage())

	missing, err := GetProduct(ctx, database, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBlankSerialsDoNotCollide(t *testing.T) {
	database := db.NewTestDB(t)

	a := createTestProduct(t, database, "Resma carta", "", 100)
	b := createTestProduct(t, database, "Resma oficio", "  ", 50)
	assert.Nil(t, a.Serial)
	assert.Nil(t, b.Serial)
}

func TestDuplicateSerialConflict(t *testing.T) {
	database := db.NewTestDB(t)

	createTestProduct(t, database, "Monitor", "MN-1", 1)
	_, err := CreateProduct(context.Background(), database, model.ProductInput{Name: "Otro", Serial: "MN-1"})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestProductValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateProduct(ctx, database, model.ProductInput{Name: "X", Stock: -1})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = CreateProduct(ctx, database, model.ProductInput{Name: ""})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = CreateProduct(ctx, database, model.ProductInput{Name: "X", UnitValue: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestUpdateProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, database, "Silla", "", 3)
	require.NoError(t, UpdateProduct(ctx, database, p.ID, model.ProductInput{
		Name:      "Silla ergonómica",
		Stock:     7,
		Location:  "Piso 2",
		UnitValue: decimal.RequireFromString("45000"),
		Active:    false,
	}))

	got, err := GetProduct(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Silla ergonómica", got.Name)
	assert.Equal(t, 7, got.Stock)
	assert.False(t, got.Active)

	assert.ErrorIs(t, UpdateProduct(ctx, database, 999, model.ProductInput{Name: "X"}), model.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleAdmin)
	assigned := createTestProduct(t, database, "Notebook", "NB-1", 1)
	_, err := RecordMovement(ctx, database, sessionFor(admin), model.MovementInput{
		ProductID: assigned.ID, UserID: admin.ID, MovementTypeID: 1,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, DeleteProduct(ctx, database, assigned.ID), model.ErrConflict)

	plain := createTestProduct(t, database, "Lápiz", "", 10)
	require.NoError(t, DeleteProduct(ctx, database, plain.ID))
	assert.ErrorIs(t, DeleteProduct(ctx, database, plain.ID), model.ErrNotFound)
}

func TestProductImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createTestProduct(t, database, "Cámara", "CM-1", 1)

	data, mime, err := GetProductImage(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)

	require.NoError(t, SetProductImage(ctx, database, p.ID, []byte{0xff, 0xd8, 0xff}, "image/jpeg"))
	data, mime, err = GetProductImage(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	assert.Equal(t, "image/jpeg", mime)

	got, err := GetProduct(ctx, database, p.ID)
	require.NoError(t, err)
	assert.True(t, got.HasImage())

	assert.ErrorIs(t, SetProductImage(ctx, database, p.ID, nil, "image/jpeg"), model.ErrInvalidArgument)
	assert.ErrorIs(t, SetProductImage(ctx, database, 999, []byte{1}, "image/jpeg"), model.ErrNotFound)
}

func TestListRepairableProducts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	repair := model.EquipmentStateInRepair
	_, err := CreateProduct(ctx, database, model.ProductInput{Name: "Rota", EquipmentStateID: &repair, Active: true})
	require.NoError(t, err)
	createTestProduct(t, database, "Sana", "", 1)

	list, err := ListRepairableProducts(ctx, database)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sana", list[0].Name)
}
