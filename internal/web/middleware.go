package web

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/store"
)

const (
	authCookie = "token"
	sessionKey = "session"
	claimsKey  = "claims"
)

// CookieAuth validates the JWT cookie, rejects revoked tokens and inactive
// users, and stores the session in the request locals. The role is
// reloaded from the database so demotions apply immediately.
func (s *Server) CookieAuth(c *fiber.Ctx) error {
	token := c.Cookies(authCookie)
	if token == "" {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	claims, err := auth.ValidateToken(s.JWTSecret, token)
	if err != nil {
		return s.rejectCookie(c)
	}

	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(c.UserContext(), s.DB, claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("checking token revocation")
			return s.rejectCookie(c)
		}
		if revoked {
			return s.rejectCookie(c)
		}
	}

	user, err := store.GetUser(c.UserContext(), s.DB, claims.UserID)
	if err != nil {
		return err
	}
	if user == nil || !user.Active {
		return s.rejectCookie(c)
	}

	c.Locals(sessionKey, &auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role})
	c.Locals(claimsKey, claims)
	return c.Next()
}

func (s *Server) rejectCookie(c *fiber.Ctx) error {
	s.clearAuthCookie(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// RequireRole allows the request only when the session role meets minimum.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := currentSession(c)
		if sess == nil || !model.RoleAtLeast(sess.Role, minimum) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

// currentSession returns the authenticated session or nil.
func currentSession(c *fiber.Ctx) *auth.Session {
	sess, _ := c.Locals(sessionKey).(*auth.Session)
	return sess
}

// sessionOf returns the authenticated session, or the zero session for
// anonymous requests.
func sessionOf(c *fiber.Ctx) auth.Session {
	if sess := currentSession(c); sess != nil {
		return *sess
	}
	return auth.Session{}
}

func currentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}

func (s *Server) setAuthCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// RequestLogger logs every request with its status, duration and request
// id. Static assets log at debug level.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		case strings.HasPrefix(c.Path(), "/static/"):
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("request")
		return err
	}
}
