package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// settingsReader es el contrato mínimo que necesita el middleware; lo implementa *billing.SettingsService.
type settingsReader interface {
	Current(ctx context.Context) (*entity.Settings, error)
}

// RequireAPIConfigured corta las rutas que llaman a la API de facturación mientras
// falten la URL o el token. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 412 Precondition Failed: falta api_url o api_token.
//   - 503 Service Unavailable: no se pudo leer la configuración.
func RequireAPIConfigured(settings settingsReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := settings.Current(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "SETTINGS_UNAVAILABLE",
				Message: "no se pudo leer la configuración, intente más tarde",
			})
		}
		var missing []string
		if strings.TrimSpace(s.APIURL) == "" {
			missing = append(missing, "api_url")
		}
		if strings.TrimSpace(s.APIToken) == "" {
			missing = append(missing, "api_token")
		}
		if len(missing) > 0 {
			return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{
				Code:    "API_NOT_CONFIGURED",
				Message: "configure " + strings.Join(missing, " y ") + " antes de usar la API",
				Field:   missing[0],
			})
		}
		return c.Next()
	}
}
