package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
)

// ResolutionHandler rangos de numeración autorizados.
type ResolutionHandler struct {
	uc           *billing.ResolutionUseCase
	provisioning *billing.ProvisioningUseCase
}

// NewResolutionHandler construye el handler.
func NewResolutionHandler(uc *billing.ResolutionUseCase, provisioning *billing.ProvisioningUseCase) *ResolutionHandler {
	return &ResolutionHandler{uc: uc, provisioning: provisioning}
}

// Create godoc
// @Summary      Crear resolución
// @Tags         resolutions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ResolutionRequest  true  "Resolución"
// @Success      201   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/resolutions [post]
func (h *ResolutionHandler) Create(c *fiber.Ctx) error {
	var in dto.ResolutionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener resolución
// @Tags         resolutions
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la resolución"
// @Success      200  {object}  dto.ResolutionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/resolutions/{id} [get]
func (h *ResolutionHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar resoluciones
// @Tags         resolutions
// @Security     Bearer
// @Produce      json
// @Param        kind  query     string  false  "Tipo de documento"
// @Success      200   {array}   dto.ResolutionResponse
// @Router       /api/resolutions [get]
func (h *ResolutionHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("kind"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar resolución
// @Description  El consecutivo actual nunca retrocede.
// @Tags         resolutions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "ID de la resolución"
// @Param        body  body      dto.ResolutionRequest  true  "Resolución"
// @Success      200   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/resolutions/{id} [put]
func (h *ResolutionHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ResolutionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar resolución
// @Tags         resolutions
// @Security     Bearer
// @Param        id   path  int  true  "ID de la resolución"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/resolutions/{id} [delete]
func (h *ResolutionHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sync godoc
// @Summary      Registrar la resolución en la API
// @Tags         resolutions
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la resolución"
// @Success      200  {object}  dto.CallResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/resolutions/{id}/sync [post]
func (h *ResolutionHandler) Sync(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.provisioning.SyncResolution(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(callResponse(res))
}
