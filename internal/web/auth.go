package web

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/store"
)

type loginData struct {
	PageData
	Username string
	Error    string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", loginData{PageData: s.page(c, "Iniciar sesión")})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	reject := func(msg string) error {
		return c.Status(fiber.StatusUnauthorized).Render("login", loginData{
			PageData: PageData{Title: "Iniciar sesión"},
			Username: username,
			Error:    msg,
		})
	}

	if username == "" || password == "" {
		return reject("Ingrese usuario y contraseña.")
	}

	user, err := store.GetUserByUsername(c.UserContext(), s.DB, username)
	if err != nil {
		return err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		log.Warn().Str("username", username).Str("ip", c.IP()).Msg("failed login")
		return reject("Usuario o contraseña incorrectos.")
	}
	if !user.Active {
		log.Warn().Str("username", username).Msg("login of inactive user")
		return reject("La cuenta está desactivada.")
	}

	sess := auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
	token, err := auth.GenerateToken(s.JWTSecret, sess, s.TokenTTL)
	if err != nil {
		return err
	}
	s.setAuthCookie(c, token, time.Now().Add(s.TokenTTL))

	log.Info().Str("username", user.Username).Str("role", user.Role).Msg("user logged in")
	return s.done(c, "Bienvenido, "+user.FullName()+".", "/")
}

// LoginRateLimited answers a throttled login attempt.
func (s *Server) LoginRateLimited(c *fiber.Ctx) error {
	log.Warn().Str("ip", c.IP()).Msg("login rate limit reached")
	return c.Status(fiber.StatusTooManyRequests).Render("login", loginData{
		PageData: PageData{Title: "Iniciar sesión"},
		Username: c.FormValue("username"),
		Error:    "Demasiados intentos. Espere un minuto e intente nuevamente.",
	})
}

// Logout handles POST /logout. The token is revoked so a copied cookie
// stops working too.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := currentClaims(c); claims != nil && claims.ID != "" {
		expires := time.Now().Add(s.TokenTTL)
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		if err := store.RevokeToken(c.UserContext(), s.DB, claims.ID, expires); err != nil {
			log.Error().Err(err).Msg("revoking token on logout")
		}
	}
	s.clearAuthCookie(c)
	return s.done(c, "Sesión cerrada.", "/login")
}
