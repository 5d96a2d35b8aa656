package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/store"
)

const (
	claimsKey  = "api_claims"
	sessionKey = "api_session"
)

// BearerAuth validates the JWT from the Authorization header. Revoked
// tokens and inactive or deleted users are rejected; the role is taken from
// the database, not the token.
func (h *Handler) BearerAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return jsonError(c, fiber.StatusUnauthorized, "missing or invalid authorization header")
	}

	claims, err := auth.ValidateToken(h.JWTSecret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "invalid token")
	}

	ctx := c.UserContext()
	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(ctx, h.DB, claims.ID)
		if err != nil {
			return fail(c, "checking token revocation", err)
		}
		if revoked {
			return jsonError(c, fiber.StatusUnauthorized, "token revoked")
		}
	}

	user, err := store.GetUser(ctx, h.DB, claims.UserID)
	if err != nil {
		return fail(c, "loading token user", err)
	}
	if user == nil || !user.Active {
		log.Warn().Str("username", claims.Username).Msg("api token of unavailable user")
		return jsonError(c, fiber.StatusUnauthorized, "user not available")
	}

	c.Locals(claimsKey, claims)
	c.Locals(sessionKey, auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role})
	return c.Next()
}

// RequireRole checks that the caller has at least the given role.
func RequireRole(minimum string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !model.RoleAtLeast(GetSession(c).Role, minimum) {
			return jsonError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// GetSession returns the caller set by BearerAuth.
func GetSession(c *fiber.Ctx) auth.Session {
	sess, _ := c.Locals(sessionKey).(auth.Session)
	return sess
}

func getClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}
