package http

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

// maxUploadFiles límite de archivos por importación manual.
const maxUploadFiles = 50

// DocumentHandler consulta, importación y envío de documentos.
type DocumentHandler struct {
	query        *billing.DocumentQueryUseCase
	orch         *billing.Orchestrator
	provisioning *billing.ProvisioningUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(query *billing.DocumentQueryUseCase, orch *billing.Orchestrator, provisioning *billing.ProvisioningUseCase) *DocumentHandler {
	return &DocumentHandler{query: query, orch: orch, provisioning: provisioning}
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind       query  string  false  "invoice | credit_note | debit_note | support_document | adjustment_note"
// @Param        status     query  string  false  "pending | processing | sent | rejected | error"
// @Param        from       query  string  false  "YYYY-MM-DD"
// @Param        to         query  string  false  "YYYY-MM-DD"
// @Param        q          query  string  false  "Número, tercero o identificación"
// @Param        nullified  query  string  false  "true | false"
// @Param        limit      query  int     false  "Límite"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.DocumentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var in dto.DocumentFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.query.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.query.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Preview godoc
// @Summary      Vista previa PDF (sin validez fiscal)
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/preview [get]
func (h *DocumentHandler) Preview(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	content, filename, err := h.query.PreviewPDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, "application/pdf", filename, content, true)
}

// Download godoc
// @Summary      Descargar PDF o AttachedDocument generado por la API
// @Tags         documents
// @Security     Bearer
// @Produce      octet-stream
// @Param        id        path  int     true  "ID del documento"
// @Param        artifact  path  string  true  "pdf | attached"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/download/{artifact} [get]
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	var (
		artifact    apidian.Artifact
		contentType string
	)
	switch c.Params("artifact") {
	case "pdf":
		artifact, contentType = apidian.ArtifactPDF, "application/pdf"
	case "attached":
		artifact, contentType = apidian.ArtifactAttached, fiber.MIMEApplicationXML
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "artifact debe ser pdf o attached"})
	}
	filename, content, err := h.provisioning.DownloadArtifact(c.UserContext(), id, artifact)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, contentType, filename, content, false)
}

// Import godoc
// @Summary      Importar XML de Siigo
// @Description  Acepta uno o varios archivos en el campo multipart "file". Cada archivo se importa por separado.
// @Tags         documents
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "XML exportado por Siigo"
// @Success      200   {array}   dto.IngestFileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents/import [post]
func (h *DocumentHandler) Import(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "se espera multipart/form-data"})
	}
	files := form.File["file"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "file es requerido", Field: "file"})
	}
	if len(files) > maxUploadFiles {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: fmt.Sprintf("máximo %d archivos por importación", maxUploadFiles), Field: "file"})
	}
	out := make([]dto.IngestFileResponse, 0, len(files))
	for _, fh := range files {
		raw, err := readUpload(fh)
		if err != nil {
			out = append(out, dto.IngestFileResponse{Filename: fh.Filename, Outcome: string(billing.IngestFailed), Error: err.Error()})
			continue
		}
		out = append(out, ingestResponse(h.orch.Ingest(c.UserContext(), raw, fh.Filename)))
	}
	return c.JSON(out)
}

// Send godoc
// @Summary      Enviar documento pendiente a la DIAN
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.DispatchResponse
// @Success      202  {object}  dto.DispatchResponse  "Sin respuesta definitiva; queda en processing"
// @Failure      400  {object}  dto.DispatchResponse
// @Failure      409  {object}  dto.DispatchResponse
// @Failure      422  {object}  dto.DispatchResponse
// @Failure      502  {object}  dto.DispatchResponse
// @Router       /api/documents/{id}/send [post]
func (h *DocumentHandler) Send(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.orch.Dispatch(c.UserContext(), id)
	return writeDispatch(c, res, err)
}

// Retry godoc
// @Summary      Reintentar documento rechazado o en error
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.DispatchResponse
// @Failure      409  {object}  dto.DispatchResponse
// @Failure      422  {object}  dto.DispatchResponse
// @Router       /api/documents/{id}/retry [post]
func (h *DocumentHandler) Retry(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.orch.RetryFailed(c.UserContext(), id)
	return writeDispatch(c, res, err)
}

// SendPending godoc
// @Summary      Enviar todos los documentos pendientes
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BatchResponse
// @Router       /api/documents/send-pending [post]
func (h *DocumentHandler) SendPending(c *fiber.Ctx) error {
	out, err := h.orch.SendAllPending(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(batchResponse(out))
}

// writeDispatch responde con el resultado del envío; sin estado conocido cae a writeError.
func writeDispatch(c *fiber.Ctx, res billing.DispatchResult, err error) error {
	if err == nil {
		return c.JSON(dispatchResponse(res))
	}
	if res.Status == "" {
		return writeError(c, err)
	}
	res.Err = err
	status, _ := errorResponse(err)
	return c.Status(status).JSON(dispatchResponse(res))
}

func sendFile(c *fiber.Ctx, contentType, filename string, content []byte, inline bool) error {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, filename))
	return c.Send(content)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
