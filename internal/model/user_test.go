package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleTechnician, true},
		{RoleAdmin, RoleUser, true},
		{RoleTechnician, RoleAdmin, false},
		{RoleTechnician, RoleTechnician, true},
		{RoleTechnician, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleTechnician, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"bodeguero", RoleUser, false},
		{RoleAdmin, "bodeguero", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RoleAtLeast(tt.role, tt.minimum), "RoleAtLeast(%q, %q)", tt.role, tt.minimum)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"una-clave-valida", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		assert.Equal(t, tt.wantErr, err != nil, "ValidatePassword(%q) error = %v", tt.password, err)
		if err != nil {
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		}
	}
}

func TestMovementKindDelta(t *testing.T) {
	assert.Equal(t, -1, MovementDebit.Delta())
	assert.Equal(t, 1, MovementCredit.Delta())
	assert.Equal(t, 0, MovementNeutral.Delta())
	assert.Equal(t, 0, MovementKind("otro").Delta())

	assert.True(t, MovementCredit.Valid())
	assert.False(t, MovementKind("Asignación").Valid())
}

func TestPersonFullName(t *testing.T) {
	p := Person{FirstName: "Camila", MiddleName: "Andrea", FatherSurname: "Rojas", MotherSurname: "Soto"}
	assert.Equal(t, "Camila Rojas", p.FullName())
	assert.Equal(t, "Camila", Person{FirstName: "Camila"}.FullName())
}
