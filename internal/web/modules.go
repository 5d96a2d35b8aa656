package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/itec-nfc/inventario/internal/model"
)

// placeholderModules are menu entries whose pages are not built yet.
var placeholderModules = map[string]bool{
	"activos":      true,
	"lecturas-nfc": true,
	"reportes":     true,
}

// ModuleTitle turns a module slug into its menu title.
func ModuleTitle(name string) string {
	return cases.Title(language.Spanish).String(strings.ReplaceAll(name, "-", " "))
}

// ModulePage handles GET /modulos/:name. Known modules answer 501 to
// administrators and 403 to everybody else.
func (s *Server) ModulePage(c *fiber.Ctx) error {
	name := c.Params("name")
	if !placeholderModules[name] {
		return fiber.ErrNotFound
	}
	if !model.RoleAtLeast(sessionOf(c).Role, model.RoleAdmin) {
		return fiber.ErrForbidden
	}

	title := ModuleTitle(name)
	return c.Status(fiber.StatusNotImplemented).Render("error", struct {
		PageData
		Code    int
		Message string
	}{
		PageData: s.page(c, title),
		Code:     fiber.StatusNotImplemented,
		Message:  `El módulo "` + title + `" está en construcción.`,
	})
}
