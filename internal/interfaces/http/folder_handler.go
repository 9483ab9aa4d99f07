package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
)

// FolderHandler importación desde la carpeta vigilada.
type FolderHandler struct {
	uc *billing.FolderUseCase
}

// NewFolderHandler construye el handler.
func NewFolderHandler(uc *billing.FolderUseCase) *FolderHandler {
	return &FolderHandler{uc: uc}
}

// Scan godoc
// @Summary      Importar los XML de la carpeta vigilada
// @Description  Los archivos importados pasan a la carpeta de procesados; los ilegibles a la de fallidos.
// @Tags         folder
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ScanResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/folder/scan [post]
func (h *FolderHandler) Scan(c *fiber.Ctx) error {
	report, err := h.uc.Scan(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(scanResponse(report))
}
