package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return jsonError(c, fiber.StatusBadRequest, "username and password required")
	}

	user, err := store.GetUserByUsername(c.UserContext(), h.DB, req.Username)
	if err != nil {
		return fail(c, "loading login user", err)
	}
	if user == nil || !user.Active || !auth.CheckPassword(user.PasswordHash, req.Password) {
		log.Warn().Str("username", req.Username).Str("ip", c.IP()).Msg("api login failed")
		return jsonError(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := auth.GenerateToken(h.JWTSecret,
		auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role}, h.TokenTTL)
	if err != nil {
		return fail(c, "generating token", err)
	}

	log.Info().Str("user", user.Username).Str("role", user.Role).Msg("api user logged in")
	return c.JSON(loginResponse{Token: token})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *Handler) Logout(c *fiber.Ctx) error {
	claims := getClaims(c)
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return jsonError(c, fiber.StatusBadRequest, "token cannot be revoked")
	}
	if err := store.RevokeToken(c.UserContext(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fail(c, "revoking token", err)
	}
	log.Info().Str("user", claims.Username).Msg("api user logged out")
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/me.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := store.GetUser(c.UserContext(), h.DB, GetSession(c).UserID)
	if err != nil {
		return fail(c, "loading current user", err)
	}
	if user == nil {
		return jsonError(c, fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}
