package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
)

// Register mounts the page routes and the dashboard WebSocket on app.
func (s *Server) Register(app *fiber.App) {
	// Public routes.
	app.Get("/login", s.LoginPage)
	if s.LoginRateLimit > 0 {
		app.Post("/login", limiter.New(limiter.Config{
			Max:          s.LoginRateLimit,
			Expiration:   time.Minute,
			LimitReached: s.LoginRateLimited,
		}), s.LoginSubmit)
	} else {
		app.Post("/login", s.LoginSubmit)
	}

	// Authenticated routes. Middleware is attached per route: a fiber
	// group without prefix would apply it to every later route.
	auth := func(method, path string, handlers ...fiber.Handler) {
		app.Add(method, path, append([]fiber.Handler{s.CookieAuth}, handlers...)...)
	}
	withRole := func(minimum string) routeFunc {
		mw := RequireRole(minimum)
		return func(method, path string, handlers ...fiber.Handler) {
			auth(method, path, append([]fiber.Handler{mw}, handlers...)...)
		}
	}
	admin, tech := withRole(model.RoleAdmin), withRole(model.RoleTechnician)
	get, post := fiber.MethodGet, fiber.MethodPost

	auth(post, "/logout", s.Logout)
	auth(get, "/", s.Dashboard)

	auth(get, "/ws", realtime.Upgrade, realtime.Handler(s.Hub, s.greeting))
	auth(get, "/lecturas", s.ReadingsPage)
	auth(get, "/tiempo-real", s.LivePage)

	admin(get, "/personas", s.PeoplePage)
	admin(post, "/personas/:rut/eliminar", s.PersonDeleteSubmit)
	admin(get, "/usuarios", s.UsersPage)
	admin(get, "/usuarios/nuevo", s.UserNewPage)
	admin(post, "/usuarios", s.UserCreateSubmit)
	admin(get, "/usuarios/:username", s.UserEditPage)
	admin(post, "/usuarios/:username", s.UserUpdateSubmit)

	for _, cat := range catalogs() {
		s.registerCatalog(admin, cat)
	}

	auth(get, "/productos", s.ProductsPage)
	admin(get, "/productos/nuevo", s.ProductNewPage)
	admin(post, "/productos", s.ProductCreateSubmit)
	auth(get, "/productos/:id", s.ProductDetailPage)
	admin(post, "/productos/:id", s.ProductUpdateSubmit)
	admin(post, "/productos/:id/eliminar", s.ProductDeleteSubmit)
	auth(get, "/productos/:id/imagen", s.ProductImage)
	admin(post, "/productos/:id/imagen", s.ProductImageSubmit)
	admin(get, "/productos/:id/enviar-tienda", s.ShipPage)
	admin(post, "/productos/:id/enviar-tienda", s.ShipSubmit)

	admin(get, "/inventario/ubicacion", s.LocationReportPage)
	admin(get, "/inventario/ubicacion.pdf", s.LocationReportPDF)
	admin(get, "/inventario/tiendas", s.StoreStockPage)
	admin(get, "/inventario/asignaciones", s.AssignmentsPage)
	admin(get, "/inventario/asignaciones/nueva", s.AssignmentNewPage)
	admin(post, "/inventario/asignaciones/nueva", s.AssignmentCreateSubmit)

	admin(get, "/retiros/nuevo/:producto/:tienda", s.WithdrawalNewPage)
	admin(post, "/retiros/nuevo/:producto/:tienda", s.WithdrawalCreateSubmit)
	admin(get, "/retiros/pendientes", s.PendingWithdrawalsPage)
	admin(post, "/retiros/:id/confirmar", s.WithdrawalConfirmSubmit)

	tech(get, "/mantenimientos", s.MaintenancePage)
	admin(get, "/mantenimientos/nuevo", s.MaintenanceNewPage)
	admin(post, "/mantenimientos/nuevo", s.MaintenanceCreateSubmit)
	tech(get, "/mantenimientos/:id", s.MaintenanceDetailPage)
	tech(post, "/mantenimientos/:id", s.MaintenanceUpdateSubmit)

	auth(get, "/modulos/:name", s.ModulePage)
}

type routeFunc func(method, path string, handlers ...fiber.Handler)
