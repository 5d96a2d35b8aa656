package model

import (
	"fmt"
	"strings"
	"time"
)

// Person holds the personal data behind a user account. The RUT is the
// Chilean national id without its check digit (stored separately in DV).
type Person struct {
	RUT           string `db:"rut" json:"rut"`
	DV            string `db:"dv" json:"dv"`
	FirstName     string `db:"primer_nombre" json:"primer_nombre"`
	MiddleName    string `db:"segundo_nombre" json:"segundo_nombre,omitempty"`
	FatherSurname string `db:"apellido_pat" json:"apellido_pat"`
	MotherSurname string `db:"apellido_mat" json:"apellido_mat,omitempty"`
	Phone         string `db:"telefono" json:"telefono,omitempty"`
	Email         string `db:"correo" json:"correo,omitempty"`
}

// FullName returns first name and father surname, the short form used in
// listings and reports.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.FatherSurname)
}

// User is an account able to log in. Every user belongs to exactly one person.
type User struct {
	ID           int64     `db:"usuario_id" json:"id"`
	Username     string    `db:"nombre_usuario" json:"username"`
	PasswordHash string    `db:"password" json:"-"`
	RoleID       *int64    `db:"id_rol" json:"role_id,omitempty"`
	Role         string    `db:"nombre_rol" json:"role"`
	Active       bool      `db:"activo" json:"active"`
	PersonRUT    string    `db:"persona_rut" json:"persona_rut"`
	AreaID       *int64    `db:"area_id" json:"area_id,omitempty"`
	AreaName     *string   `db:"nombre_area" json:"area,omitempty"`
	StoreID      *int64    `db:"tienda_id" json:"store_id,omitempty"`
	StoreName    *string   `db:"nombre_tienda" json:"store,omitempty"`
	CreatedAt    time.Time `db:"fecha_creacion" json:"created_at"`
	Person
}

// Roles known to the permission checks. Other role names may exist in the
// roles table but carry no privileges beyond being authenticated.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "tecnico"
	RoleUser       = "usuario"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:      3,
		RoleTechnician: 2,
		RoleUser:       1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	need, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= need
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, MinPasswordLength)
	}
	return nil
}
