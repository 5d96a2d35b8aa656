// Package web serves the server-rendered administration UI.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	webembed "github.com/itec-nfc/inventario/web"
)

// Options configures the web server.
type Options struct {
	DB             *sqlx.DB
	JWTSecret      string
	TokenTTL       time.Duration
	Hub            *realtime.Hub
	Secure         bool // mark cookies Secure (HTTPS deployments)
	LoginRateLimit int  // attempts per minute and client, 0 disables
}

// Server holds dependencies for web handlers.
type Server struct {
	DB             *sqlx.DB
	JWTSecret      string
	TokenTTL       time.Duration
	Hub            *realtime.Hub
	Secure         bool
	LoginRateLimit int
	sessions       *session.Store
}

// New creates a web server.
func New(opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = auth.DefaultTokenTTL
	}
	return &Server{
		DB:             opts.DB,
		JWTSecret:      opts.JWTSecret,
		TokenTTL:       opts.TokenTTL,
		Hub:            opts.Hub,
		Secure:         opts.Secure,
		LoginRateLimit: opts.LoginRateLimit,
		sessions: session.New(session.Config{
			Expiration:     time.Hour,
			KeyLookup:      "cookie:inventario_flash",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   opts.Secure,
			CookieSameSite: fiber.CookieSameSiteStrictMode,
		}),
	}
}

// NewApp creates the fiber app shared by the UI and the JSON API: views,
// error page, panic recovery, request ids, security headers, access log
// and the embedded static assets.
func NewApp(name string, bodyLimit int) (*fiber.App, error) {
	engine, err := Engine()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               name,
		Views:                 engine,
		ViewsLayout:           "layout",
		ErrorHandler:          ErrorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(RequestLogger())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(webembed.StaticFS()),
		MaxAge: 3600,
	}))

	return app, nil
}

// ErrorHandler renders the error page, or a JSON error under /api.
// Internal details never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Ocurrió un error inesperado. Intente nuevamente."
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, pageMessage(fe)
	case errors.Is(err, model.ErrForbidden):
		code, msg = fiber.StatusForbidden, pageMessage(fiber.ErrForbidden)
	case errors.Is(err, model.ErrNotFound):
		code, msg = fiber.StatusNotFound, pageMessage(fiber.ErrNotFound)
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("request failed")
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("error", struct {
		PageData
		Code    int
		Message string
	}{
		PageData: PageData{Title: "Error", User: currentSession(c)},
		Code:     code,
		Message:  msg,
	}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func pageMessage(fe *fiber.Error) string {
	generic := fe.Message == utils.StatusMessage(fe.Code) || strings.HasPrefix(fe.Message, "Cannot ")
	switch {
	case fe.Code >= fiber.StatusInternalServerError:
		return "Ocurrió un error inesperado. Intente nuevamente."
	case !generic:
		return fe.Message
	case fe.Code == fiber.StatusNotFound:
		return "La página solicitada no existe."
	case fe.Code == fiber.StatusForbidden:
		return "No tiene permisos para acceder a esta página."
	case fe.Code == fiber.StatusRequestEntityTooLarge:
		return "El archivo enviado es demasiado grande."
	case fe.Code == fiber.StatusTooManyRequests:
		return "Demasiadas solicitudes. Intente más tarde."
	default:
		return "La solicitud no es válida."
	}
}

// PageData is the common data passed to every page.
type PageData struct {
	Title string
	User  *auth.Session
	Flash *Flash
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // success, error
	Message string
}

const (
	flashSuccess = "success"
	flashError   = "error"
)

func (s *Server) page(c *fiber.Ctx, title string) PageData {
	return PageData{Title: title, User: currentSession(c), Flash: s.takeFlash(c)}
}

func (s *Server) setFlash(c *fiber.Ctx, kind, msg string) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		log.Warn().Err(err).Msg("loading flash session")
		return
	}
	sess.Set("flash_kind", kind)
	sess.Set("flash_msg", msg)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Msg("saving flash session")
	}
}

func (s *Server) takeFlash(c *fiber.Ctx) *Flash {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}
	msg, _ := sess.Get("flash_msg").(string)
	if msg == "" {
		return nil
	}
	kind, _ := sess.Get("flash_kind").(string)
	sess.Delete("flash_msg")
	sess.Delete("flash_kind")
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Msg("clearing flash session")
	}
	return &Flash{Kind: kind, Message: msg}
}

// done flashes a success message and redirects.
func (s *Server) done(c *fiber.Ctx, msg, to string) error {
	s.setFlash(c, flashSuccess, msg)
	return c.Redirect(to, fiber.StatusSeeOther)
}

// fail logs err, flashes its user-facing message and redirects.
func (s *Server) fail(c *fiber.Ctx, action string, err error, to string) error {
	ev := log.Warn()
	if isInternal(err) {
		ev = log.Error()
	}
	ev.Err(err).Str("path", c.Path()).Str("user", sessionOf(c).Username).Msg(action)

	s.setFlash(c, flashError, errorMessage(err))
	return c.Redirect(to, fiber.StatusSeeOther)
}

func isInternal(err error) bool {
	for _, known := range []error{
		model.ErrInvalidArgument, model.ErrInsufficientStock, model.ErrNotFound,
		model.ErrAlreadyProcessed, model.ErrConflict, model.ErrForbidden,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}

// errorMessage maps domain errors to the messages shown to users.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrInsufficientStock):
		return "Stock insuficiente para realizar la operación."
	case errors.Is(err, model.ErrInvalidArgument):
		return "Datos inválidos. Revise el formulario."
	case errors.Is(err, model.ErrNotFound):
		return "El registro solicitado no existe."
	case errors.Is(err, model.ErrAlreadyProcessed):
		return "La operación ya fue procesada."
	case errors.Is(err, model.ErrConflict):
		return "El registro ya existe o está siendo utilizado."
	case errors.Is(err, model.ErrForbidden):
		return "No tiene permisos para realizar esta acción."
	default:
		return "Ocurrió un error inesperado. Intente nuevamente."
	}
}

var errBadID = fiber.NewError(fiber.StatusBadRequest, "Identificador inválido.")

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// formID parses an optional foreign key; blank or invalid means none.
func formID(c *fiber.Ctx, name string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(c.FormValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func formInt(c *fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.FormValue(name)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", model.ErrInvalidArgument, name)
	}
	return n, nil
}

func formBool(c *fiber.Ctx, name string) bool {
	switch c.FormValue(name) {
	case "on", "1", "true":
		return true
	}
	return false
}

// publish sends an event followed by refreshed inventory totals.
func (s *Server) publish(c *fiber.Ctx, event string, data any) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(event, data)
	s.publishInventoryStats(c)
}
