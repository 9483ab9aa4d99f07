package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain"
)

// writeError traduce errores de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		vf  *domain.ValidationFailure
		pf  *domain.ParseFailure
		rej *domain.RejectionFailure
		tf  *domain.TransportFailure
		amb *domain.AmbiguousResponse
	)
	switch {
	case errors.As(err, &vf):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error(), Field: vf.Field}
	case errors.As(err, &pf):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "PARSE_ERROR", Message: err.Error(), Field: pf.Field}
	case errors.As(err, &rej):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "REJECTED", Message: rej.Message}
	case errors.As(err, &amb):
		return fiber.StatusAccepted, dto.ErrorResponse{Code: "PROCESSING", Message: amb.Error()}
	case errors.As(err, &tf):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "API_ERROR", Message: tf.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, domain.ErrNoActiveRange):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "NO_ACTIVE_RANGE", Message: err.Error()}
	case errors.Is(err, domain.ErrRangeExhausted):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "RANGE_EXHAUSTED", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// paramID lee :id como entero positivo.
func paramID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, &domain.ValidationFailure{Field: "id", Reason: "debe ser un entero positivo"}
	}
	return int64(id), nil
}
