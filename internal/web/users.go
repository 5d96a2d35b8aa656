package web

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/store"
)

// PeoplePage handles GET /personas.
func (s *Server) PeoplePage(c *fiber.Ctx) error {
	users, err := store.ListUsers(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("personas", struct {
		PageData
		Users []model.User
	}{
		PageData: s.page(c, "Personas"),
		Users:    users,
	})
}

// UsersPage handles GET /usuarios.
func (s *Server) UsersPage(c *fiber.Ctx) error {
	users, err := store.ListUsers(c.UserContext(), s.DB)
	if err != nil {
		return err
	}
	return c.Render("usuarios", struct {
		PageData
		Users []model.User
	}{
		PageData: s.page(c, "Usuarios"),
		Users:    users,
	})
}

type userFormData struct {
	PageData
	New    bool
	User   *model.User
	Roles  []model.Role
	Areas  []model.Area
	Stores []model.Store
}

func (s *Server) renderUserForm(c *fiber.Ctx, title string, user *model.User) error {
	ctx := c.UserContext()
	roles, err := store.ListRoles(ctx, s.DB)
	if err != nil {
		return err
	}
	areas, err := store.ListAreas(ctx, s.DB)
	if err != nil {
		return err
	}
	stores, err := store.ListStores(ctx, s.DB)
	if err != nil {
		return err
	}
	return c.Render("usuario_form", userFormData{
		PageData: s.page(c, title),
		New:      user == nil,
		User:     user,
		Roles:    roles,
		Areas:    areas,
		Stores:   stores,
	})
}

// UserNewPage handles GET /usuarios/nuevo.
func (s *Server) UserNewPage(c *fiber.Ctx) error {
	return s.renderUserForm(c, "Nuevo usuario", nil)
}

// UserEditPage handles GET /usuarios/:username.
func (s *Server) UserEditPage(c *fiber.Ctx) error {
	user, err := store.GetUserByUsername(c.UserContext(), s.DB, c.Params("username"))
	if err != nil {
		return err
	}
	if user == nil {
		return fiber.NewError(fiber.StatusNotFound, "El usuario no existe.")
	}
	return s.renderUserForm(c, "Editar usuario "+user.Username, user)
}

func personFromForm(c *fiber.Ctx) model.Person {
	field := func(name string) string { return strings.TrimSpace(c.FormValue(name)) }
	return model.Person{
		RUT:           field("rut"),
		DV:            strings.ToUpper(field("dv")),
		FirstName:     field("primer_nombre"),
		MiddleName:    field("segundo_nombre"),
		FatherSurname: field("apellido_pat"),
		MotherSurname: field("apellido_mat"),
		Phone:         field("telefono"),
		Email:         field("correo"),
	}
}

// passwordFromForm validates and hashes the submitted password. An empty
// password is allowed only when optional is set, and yields an empty hash.
func passwordFromForm(c *fiber.Ctx, optional bool) (string, error) {
	password := c.FormValue("password")
	if password == "" && optional {
		return "", nil
	}
	if password != c.FormValue("password_confirm") {
		return "", fmt.Errorf("%w: las contraseñas no coinciden", model.ErrInvalidArgument)
	}
	if err := model.ValidatePassword(password); err != nil {
		return "", err
	}
	return auth.HashPassword(password)
}

func accountFromForm(c *fiber.Ctx, hash string) store.Account {
	return store.Account{
		Username:     strings.TrimSpace(c.FormValue("username")),
		PasswordHash: hash,
		RoleID:       formID(c, "id_rol"),
		Active:       formBool(c, "activo"),
		AreaID:       formID(c, "area_id"),
		StoreID:      formID(c, "tienda_id"),
	}
}

// UserCreateSubmit handles POST /usuarios.
func (s *Server) UserCreateSubmit(c *fiber.Ctx) error {
	hash, err := passwordFromForm(c, false)
	if err != nil {
		return s.failPassword(c, err, "/usuarios/nuevo")
	}

	user, err := store.CreateUser(c.UserContext(), s.DB, personFromForm(c), accountFromForm(c, hash))
	if err != nil {
		return s.fail(c, "creating user", err, "/usuarios/nuevo")
	}
	log.Info().Str("username", user.Username).Str("by", sessionOf(c).Username).Msg("user created")
	return s.done(c, fmt.Sprintf("Usuario %s creado para %s.", user.Username, user.FullName()), "/usuarios")
}

// UserUpdateSubmit handles POST /usuarios/:username.
func (s *Server) UserUpdateSubmit(c *fiber.Ctx) error {
	username := c.Params("username")
	back := "/usuarios/" + username

	hash, err := passwordFromForm(c, true)
	if err != nil {
		return s.failPassword(c, err, back)
	}

	acct := accountFromForm(c, hash)
	if username == sessionOf(c).Username && !acct.Active {
		s.setFlash(c, flashError, "No puede desactivar su propia cuenta.")
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	newName, err := store.UpdateUser(c.UserContext(), s.DB, username, personFromForm(c), acct)
	if err != nil {
		return s.fail(c, "updating user", err, back)
	}
	return s.done(c, fmt.Sprintf("Usuario %s actualizado.", newName), "/usuarios")
}

func (s *Server) failPassword(c *fiber.Ctx, err error, to string) error {
	msg := fmt.Sprintf("La contraseña debe tener al menos %d caracteres.", model.MinPasswordLength)
	if c.FormValue("password") != c.FormValue("password_confirm") {
		msg = "Las contraseñas no coinciden."
	}
	log.Warn().Err(err).Str("path", c.Path()).Msg("rejected password")
	s.setFlash(c, flashError, msg)
	return c.Redirect(to, fiber.StatusSeeOther)
}

// PersonDeleteSubmit handles POST /personas/:rut/eliminar.
func (s *Server) PersonDeleteSubmit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	rut := c.Params("rut")

	me, err := store.GetUser(ctx, s.DB, sessionOf(c).UserID)
	if err != nil {
		return err
	}
	if me != nil && me.PersonRUT == rut {
		s.setFlash(c, flashError, "No puede eliminar su propia cuenta.")
		return c.Redirect("/personas", fiber.StatusSeeOther)
	}

	if err := store.DeletePerson(ctx, s.DB, rut); err != nil {
		return s.fail(c, "deleting person", err, "/personas")
	}
	log.Info().Str("rut", rut).Str("by", sessionOf(c).Username).Msg("person deleted")
	return s.done(c, "Persona eliminada.", "/personas")
}
