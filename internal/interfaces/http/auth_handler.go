package http

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/jwt"
)

// AuthHandler emite tokens de estación. Los tokens de administrador solo salen de cmd/token.
type AuthHandler struct {
	cfg config.JWTConfig
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Token godoc
// @Summary      Obtener token de estación (rol operator)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.LoginRequest  true  "station_id, secret"
// @Success      200   {object}  dto.TokenResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/auth/token [post]
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	if h.cfg.StationSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOGIN_DISABLED", Message: "STATION_SECRET no configurado"})
	}
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.StationID = strings.TrimSpace(in.StationID)
	if in.StationID == "" || in.Secret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "station_id y secret son requeridos"})
	}
	if subtle.ConstantTimeCompare([]byte(in.Secret), []byte(h.cfg.StationSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "credenciales inválidas"})
	}
	token, err := jwt.Generate(h.cfg.Secret, in.StationID, jwt.RoleOperator, h.cfg.Issuer, h.cfg.Expiration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.TokenResponse{Token: token, ExpiresIn: h.cfg.Expiration * 60})
}
