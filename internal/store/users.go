package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
)

const userSelect = `
	SELECT u.usuario_id, u.nombre_usuario, u.password, u.id_rol, COALESCE(r.nombre_rol, '') AS nombre_rol,
	       u.activo, u.persona_rut, u.area_id, a.nombre_area, u.tienda_id, t.nombre_tienda, u.fecha_creacion,
	       p.rut, p.dv, p.primer_nombre, p.segundo_nombre, p.apellido_pat, p.apellido_mat, p.telefono, p.correo
	FROM usuarios u
	JOIN personas p ON p.rut = u.persona_rut
	LEFT JOIN roles r ON r.id_rol = u.id_rol
	LEFT JOIN areas a ON a.area_id = u.area_id
	LEFT JOIN tiendas t ON t.tienda_id = u.tienda_id`

// Account holds the login fields of a new or edited user.
type Account struct {
	Username     string // generated from the person's names when empty
	PasswordHash string // empty on update keeps the current password
	RoleID       *int64
	Active       bool
	AreaID       *int64
	StoreID      *int64
}

func validatePerson(p model.Person) error {
	if strings.TrimSpace(p.RUT) == "" {
		return fmt.Errorf("%w: rut is required", model.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.FatherSurname) == "" {
		return fmt.Errorf("%w: first name and father surname are required", model.ErrInvalidArgument)
	}
	return nil
}

// CreateUser creates a person and its user account in one transaction.
// A generated username that is already taken gets a numeric suffix; an
// explicit one fails with ErrConflict.
func CreateUser(ctx context.Context, db *sqlx.DB, person model.Person, acct Account) (*model.User, error) {
	if err := validatePerson(person); err != nil {
		return nil, err
	}
	if acct.PasswordHash == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrInvalidArgument)
	}

	var username string
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO personas (rut, dv, primer_nombre, segundo_nombre, apellido_pat, apellido_mat, telefono, correo)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			person.RUT, person.DV, person.FirstName, person.MiddleName,
			person.FatherSurname, person.MotherSurname, person.Phone, person.Email,
		)
		if err != nil {
			return fmt.Errorf("creating person: %w", translate(err))
		}

		username = strings.TrimSpace(acct.Username)
		if username == "" {
			username, err = availableUsername(ctx, tx,
				auth.GenerateUsername(person.FirstName, person.FatherSurname, person.MotherSurname))
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO usuarios (nombre_usuario, password, id_rol, activo, persona_rut, area_id, tienda_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			username, acct.PasswordHash, acct.RoleID, acct.Active, person.RUT, acct.AreaID, acct.StoreID,
		)
		if err != nil {
			return fmt.Errorf("creating user: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetUserByUsername(ctx, db, username)
}

func availableUsername(ctx context.Context, tx *sqlx.Tx, base string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("%w: cannot derive a username", model.ErrInvalidArgument)
	}
	candidate := base
	for i := 2; ; i++ {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM usuarios WHERE nombre_usuario = ?`, candidate); err != nil {
			return "", fmt.Errorf("checking username: %w", translate(err))
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sqlx.DB, id int64) (*model.User, error) {
	return getUser(ctx, db, userSelect+` WHERE u.usuario_id = ?`, id)
}

// GetUserByUsername returns a user by username, including inactive ones.
func GetUserByUsername(ctx context.Context, db *sqlx.DB, username string) (*model.User, error) {
	return getUser(ctx, db, userSelect+` WHERE u.nombre_usuario = ?`, username)
}

func getUser(ctx context.Context, db *sqlx.DB, query string, arg any) (*model.User, error) {
	var u model.User
	err := db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", translate(err))
	}
	return &u, nil
}

// ListUsers returns all users with their person, role, area and store.
func ListUsers(ctx context.Context, db *sqlx.DB) ([]model.User, error) {
	var users []model.User
	if err := db.SelectContext(ctx, &users, userSelect+` ORDER BY p.apellido_pat, p.primer_nombre`); err != nil {
		return nil, fmt.Errorf("listing users: %w", translate(err))
	}
	return users, nil
}

// ListTechnicians returns active users with the technician role.
func ListTechnicians(ctx context.Context, db *sqlx.DB) ([]model.User, error) {
	var users []model.User
	err := db.SelectContext(ctx, &users,
		userSelect+` WHERE r.nombre_rol = ? AND u.activo = 1 ORDER BY p.primer_nombre`, model.RoleTechnician)
	if err != nil {
		return nil, fmt.Errorf("listing technicians: %w", translate(err))
	}
	return users, nil
}

// CountUsers returns the number of user accounts.
func CountUsers(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return 0, fmt.Errorf("counting users: %w", translate(err))
	}
	return n, nil
}

// UpdateUser updates the person data and account of username. A non-empty
// acct.Username renames the account. It returns the username in effect after
// the update.
func UpdateUser(ctx context.Context, db *sqlx.DB, username string, person model.Person, acct Account) (string, error) {
	if strings.TrimSpace(person.FirstName) == "" || strings.TrimSpace(person.FatherSurname) == "" {
		return username, fmt.Errorf("%w: first name and father surname are required", model.ErrInvalidArgument)
	}

	newName := strings.TrimSpace(acct.Username)
	if newName == "" {
		newName = username
	}

	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		var rut string
		err := tx.GetContext(ctx, &rut, `SELECT persona_rut FROM usuarios WHERE nombre_usuario = ?`, username)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("updating user %q: %w", username, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", translate(err))
		}

		if newName != username {
			var n int
			if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM usuarios WHERE nombre_usuario = ?`, newName); err != nil {
				return fmt.Errorf("checking username: %w", translate(err))
			}
			if n > 0 {
				return fmt.Errorf("username %q: %w", newName, model.ErrConflict)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE personas SET primer_nombre = ?, segundo_nombre = ?, apellido_pat = ?, apellido_mat = ?,
			        telefono = ?, correo = ?
			 WHERE rut = ?`,
			person.FirstName, person.MiddleName, person.FatherSurname, person.MotherSurname,
			person.Phone, person.Email, rut,
		)
		if err != nil {
			return fmt.Errorf("updating person: %w", translate(err))
		}

		sets := []string{"id_rol = ?", "activo = ?", "area_id = ?", "tienda_id = ?", "nombre_usuario = ?"}
		args := []any{acct.RoleID, acct.Active, acct.AreaID, acct.StoreID, newName}
		if acct.PasswordHash != "" {
			sets = append(sets, "password = ?")
			args = append(args, acct.PasswordHash)
		}
		args = append(args, username)

		_, err = tx.ExecContext(ctx,
			`UPDATE usuarios SET `+strings.Join(sets, ", ")+` WHERE nombre_usuario = ?`, args...)
		if err != nil {
			return fmt.Errorf("updating user: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return username, err
	}
	return newName, nil
}

// DeletePerson deletes a person; the user account goes with it. Users that
// appear in the ledger cannot be deleted and fail with ErrConflict.
func DeletePerson(ctx context.Context, db *sqlx.DB, rut string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM personas WHERE rut = ?`, rut)
	if err != nil {
		return fmt.Errorf("deleting person: %w", translate(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting person %q: %w", rut, model.ErrNotFound)
	}
	return nil
}
