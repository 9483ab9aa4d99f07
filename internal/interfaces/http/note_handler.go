package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// NoteHandler crea notas y documentos soporte. Quedan en pending hasta enviarse.
type NoteHandler struct {
	orch *billing.Orchestrator
}

// NewNoteHandler construye el handler.
func NewNoteHandler(orch *billing.Orchestrator) *NoteHandler {
	return &NoteHandler{orch: orch}
}

// CreditNote godoc
// @Summary      Crear nota crédito sobre una factura enviada
// @Tags         notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreditNoteRequest  true  "Referencia y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/credit-notes [post]
func (h *NoteHandler) CreditNote(c *fiber.Ctx) error {
	var in dto.CreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.orch.CreateCreditNote(c.UserContext(), billing.CreditNoteInput{
		ReferenceID:     in.ReferenceID,
		Lines:           noteLines(in.Lines),
		DiscrepancyCode: in.DiscrepancyCode,
		Notes:           in.Notes,
	})
	return created(c, doc, err)
}

// DebitNote godoc
// @Summary      Crear nota débito sobre una factura enviada
// @Tags         notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.DebitNoteRequest  true  "Referencia y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/debit-notes [post]
func (h *NoteHandler) DebitNote(c *fiber.Ctx) error {
	var in dto.DebitNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.orch.CreateDebitNote(c.UserContext(), billing.DebitNoteInput{
		ReferenceID:     in.ReferenceID,
		Lines:           manualLines(in.Lines),
		DiscrepancyCode: in.DiscrepancyCode,
		Notes:           in.Notes,
	})
	return created(c, doc, err)
}

// AdjustmentNote godoc
// @Summary      Crear nota de ajuste sobre un documento soporte enviado
// @Tags         notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AdjustmentNoteRequest  true  "Referencia y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/adjustment-notes [post]
func (h *NoteHandler) AdjustmentNote(c *fiber.Ctx) error {
	var in dto.AdjustmentNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.orch.CreateAdjustmentNote(c.UserContext(), billing.AdjustmentNoteInput{
		ReferenceID:     in.ReferenceID,
		Lines:           noteLines(in.Lines),
		DiscrepancyCode: in.DiscrepancyCode,
		Notes:           in.Notes,
	})
	return created(c, doc, err)
}

// SupportDocument godoc
// @Summary      Crear documento soporte de compra a un proveedor
// @Tags         notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SupportDocumentRequest  true  "Proveedor y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/support-documents [post]
func (h *NoteHandler) SupportDocument(c *fiber.Ctx) error {
	var in dto.SupportDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.orch.CreateSupportDocument(c.UserContext(), billing.SupportDocumentInput{
		SupplierID: in.SupplierID,
		Lines:      manualLines(in.Lines),
		Payment:    entity.Payment{Form: in.PaymentFormID, Method: in.PaymentMethodID, DueDate: in.DueDate},
		Notes:      in.Notes,
	})
	return created(c, doc, err)
}

func created(c *fiber.Ctx, doc *entity.Document, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewDocumentResponse(doc))
}
