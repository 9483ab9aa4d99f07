package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
)

// CustomerHandler terceros: clientes y proveedores.
type CustomerHandler struct {
	uc           *billing.CustomerUseCase
	provisioning *billing.ProvisioningUseCase
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *billing.CustomerUseCase, provisioning *billing.ProvisioningUseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc, provisioning: provisioning}
}

// Create godoc
// @Summary      Crear cliente o proveedor
// @Tags         customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CustomerRequest  true  "Datos del tercero"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CustomerRequest
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
// @Summary      Obtener tercero
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID del tercero"
// @Success      200  {object}  dto.CustomerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Listar terceros
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        type    query     string  false  "customer | supplier"
// @Param        q       query     string  false  "Nombre o identificación"
// @Param        limit   query     int     false  "Límite"
// @Param        offset  query     int     false  "Desplazamiento"
// @Success      200     {object}  dto.CustomerListResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), c.Query("type"), c.Query("q"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar tercero
// @Tags         customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "ID del tercero"
// @Param        body  body      dto.CustomerRequest  true  "Datos del tercero"
// @Success      200   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CustomerRequest
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
// @Summary      Eliminar tercero
// @Tags         customers
// @Security     Bearer
// @Param        id   path  int  true  "ID del tercero"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Lookup godoc
// @Summary      Consultar adquiriente en la DIAN
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        type    path      string  true  "Código del tipo de documento (13, 31...)"
// @Param        number  path      string  true  "Número de identificación"
// @Success      200     {object}  dto.AcquirerResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      502     {object}  dto.ErrorResponse
// @Router       /api/customers/lookup/{type}/{number} [get]
func (h *CustomerHandler) Lookup(c *fiber.Ctx) error {
	acq, err := h.provisioning.LookupAcquirer(c.UserContext(), c.Params("type"), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AcquirerResponse{Name: acq.Name, Email: acq.Email})
}
