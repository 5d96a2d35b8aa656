package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
)

func roleID(t *testing.T, database *sqlx.DB, name string) *int64 {
	t.Helper()
	r, err := GetRoleByName(context.Background(), database, name)
	require.NoError(t, err)
	require.NotNil(t, r, "role %q not seeded", name)
	return &r.ID
}

func createTestUser(t *testing.T, database *sqlx.DB, rut, first, father, role string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database,
		model.Person{RUT: rut, DV: "K", FirstName: first, FatherSurname: father},
		Account{PasswordHash: "hash", RoleID: roleID(t, database, role), Active: true},
	)
	require.NoError(t, err)
	return u
}

func sessionFor(u *model.User) auth.Session {
	return auth.Session{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func createTestProduct(t *testing.T, database *sqlx.DB, name, serial string, stock int) *model.Product {
	t.Helper()
	p, err := CreateProduct(context.Background(), database, model.ProductInput{
		Name:      name,
		Serial:    serial,
		Stock:     stock,
		Location:  "Bodega central",
		UnitValue: decimal.RequireFromString("1500.50"),
		Active:    true,
	})
	require.NoError(t, err)
	return p
}

func createTestStore(t *testing.T, database *sqlx.DB, name string) *model.Store {
	t.Helper()
	s, err := CreateStore(context.Background(), database, name, "")
	require.NoError(t, err)
	return s
}

func stockOf(t *testing.T, database *sqlx.DB, productID int64) int {
	t.Helper()
	var stock int
	require.NoError(t, database.Get(&stock, `SELECT stock_actual FROM productos WHERE producto_id = ?`, productID))
	return stock
}
