package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/db"
	"github.com/itec-nfc/inventario/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, database, "11111111", "José", "Núñez", model.RoleTechnician)
	assert.Equal(t, "jnunez", user.Username)
	assert.Equal(t, model.RoleTechnician, user.Role)
	assert.Equal(t, "José Núñez", user.FullName())
	assert.True(t, user.Active)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, "11111111", got.PersonRUT)
}

func TestGetUserByUsernameMissing(t *testing.T) {
	database := db.NewTestDB(t)

	missing, err := GetUserByUsername(context.Background(), database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserSuffixesGeneratedUsername(t *testing.T) {
	database := db.NewTestDB(t)

	first := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)
	second := createTestUser(t, database, "2", "Andrés", "Perez", model.RoleUser)

	assert.Equal(t, "aperez", first.Username)
	assert.Equal(t, "aperez2", second.Username)
}

func TestCreateUserExplicitUsernameConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)

	_, err := CreateUser(ctx, database,
		model.Person{RUT: "2", FirstName: "Otra", FatherSurname: "Persona"},
		Account{Username: "aperez", PasswordHash: "hash", Active: true},
	)
	assert.ErrorIs(t, err, model.ErrConflict)

	// The person insert was rolled back with the user.
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM personas WHERE rut = '2'`))
	assert.Zero(t, n)
}

func TestCreateUserDuplicateRUT(t *testing.T) {
	database := db.NewTestDB(t)

	createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)
	_, err := CreateUser(context.Background(), database,
		model.Person{RUT: "1", FirstName: "Luis", FatherSurname: "Soto"},
		Account{PasswordHash: "hash", Active: true},
	)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestCreateUserValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, model.Person{FirstName: "A", FatherSurname: "B"}, Account{PasswordHash: "h"})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = CreateUser(ctx, database, model.Person{RUT: "1", FirstName: "A", FatherSurname: "B"}, Account{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestListUsersAndTechnicians(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestUser(t, database, "1", "Ana", "Pérez", model.RoleAdmin)
	createTestUser(t, database, "2", "Tomás", "Rojas", model.RoleTechnician)
	createTestUser(t, database, "3", "Inés", "Vidal", model.RoleUser)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	techs, err := ListTechnicians(ctx, database)
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, "trojas", techs[0].Username)

	n, err := CountUsers(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)
	area, err := CreateArea(ctx, database, "Informática")
	require.NoError(t, err)

	person := u.Person
	person.Phone = "+56 9 1234 5678"
	newName, err := UpdateUser(ctx, database, u.Username, person, Account{
		Username: "ana.perez",
		RoleID:   roleID(t, database, model.RoleTechnician),
		Active:   false,
		AreaID:   &area.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.perez", newName)

	got, err := GetUserByUsername(ctx, database, "ana.perez")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RoleTechnician, got.Role)
	assert.False(t, got.Active)
	assert.Equal(t, "+56 9 1234 5678", got.Phone)
	require.NotNil(t, got.AreaName)
	assert.Equal(t, "Informática", *got.AreaName)
	assert.Equal(t, "hash", got.PasswordHash, "empty hash keeps the password")
}

func TestUpdateUserRenameConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)
	b := createTestUser(t, database, "2", "Luis", "Soto", model.RoleUser)

	_, err := UpdateUser(ctx, database, a.Username, a.Person, Account{Username: b.Username, Active: true})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = UpdateUser(ctx, database, "nobody", a.Person, Account{Active: true})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeletePersonCascadesToUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, database, "1", "Ana", "Pérez", model.RoleUser)
	require.NoError(t, DeletePerson(ctx, database, "1"))

	got, err := GetUser(ctx, database, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, DeletePerson(ctx, database, "1"), model.ErrNotFound)
}
