package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

// SettingsHandler configuración de la empresa y aprovisionamiento en la API.
type SettingsHandler struct {
	settings     *billing.SettingsService
	provisioning *billing.ProvisioningUseCase
}

// NewSettingsHandler construye el handler.
func NewSettingsHandler(settings *billing.SettingsService, provisioning *billing.ProvisioningUseCase) *SettingsHandler {
	return &SettingsHandler{settings: settings, provisioning: provisioning}
}

// Get godoc
// @Summary      Configuración actual (sin secretos)
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SettingsResponse
// @Router       /api/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	s, err := h.settings.Current(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSettingsResponse(s))
}

// Update godoc
// @Summary      Actualizar configuración
// @Description  Solo cambian los campos presentes en el cuerpo.
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SettingsRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.SettingsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var in dto.SettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.settings.Update(c.UserContext(), func(s *entity.Settings) error {
		in.Apply(s)
		return nil
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSettingsResponse(s))
}

// ConfigureSoftware godoc
// @Summary      Registrar el software en la API
// @Tags         provisioning
// @Security     Bearer
// @Produce      json
// @Param        support  query     bool  false  "true para el software de documento soporte"
// @Success      200      {object}  dto.CallResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      502      {object}  dto.ErrorResponse
// @Router       /api/provisioning/software [post]
func (h *SettingsHandler) ConfigureSoftware(c *fiber.Ctx) error {
	res, err := h.provisioning.ConfigureSoftware(c.UserContext(), c.QueryBool("support", false))
	return writeCall(c, res, err)
}

// SwitchEnvironment godoc
// @Summary      Cambiar ambiente (1 producción, 2 habilitación)
// @Tags         provisioning
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.EnvironmentRequest  true  "Ambiente"
// @Success      200   {object}  dto.CallResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/provisioning/environment [put]
func (h *SettingsHandler) SwitchEnvironment(c *fiber.Ctx) error {
	var in dto.EnvironmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.provisioning.SwitchEnvironment(c.UserContext(), in.Environment)
	return writeCall(c, res, err)
}

// NumberingRanges godoc
// @Summary      Rangos de numeración registrados en la DIAN
// @Tags         provisioning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CallResponse
// @Router       /api/provisioning/numbering-ranges [get]
func (h *SettingsHandler) NumberingRanges(c *fiber.Ctx) error {
	res, err := h.provisioning.NumberingRanges(c.UserContext())
	return writeCall(c, res, err)
}

// TestConnection godoc
// @Summary      Probar conexión y token con la API
// @Tags         provisioning
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CallResponse
// @Router       /api/provisioning/test [get]
func (h *SettingsHandler) TestConnection(c *fiber.Ctx) error {
	res, err := h.provisioning.TestConnection(c.UserContext())
	return writeCall(c, res, err)
}

func writeCall(c *fiber.Ctx, res *apidian.CallResult, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(callResponse(res))
}
