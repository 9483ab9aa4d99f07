package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrRangeExhausted    = errors.New("rango de numeración agotado")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrNoActiveRange     = errors.New("no hay resolución activa")
)

// ParseFailure XML de origen ilegible. El archivo se omite y nunca se reintenta solo.
type ParseFailure struct {
	File  string
	Field string // código o elemento que falló; vacío si el XML está mal formado
	Err   error
}

func (e *ParseFailure) Error() string {
	switch {
	case e.Field != "" && e.File != "":
		return fmt.Sprintf("parse %s: campo %s: %v", e.File, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("parse: campo %s: %v", e.Field, e.Err)
	case e.File != "":
		return fmt.Sprintf("parse %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// ValidationFailure falta un dato obligatorio antes del envío; el envío no se intenta.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationFailure) Unwrap() error { return ErrInvalidInput }

// NewValidationFailure atajo para construir el error con campo y motivo.
func NewValidationFailure(field, reason string) error {
	return &ValidationFailure{Field: field, Reason: reason}
}

// TransportFailure error de red o HTTP contra la API. El documento queda en error (reintentable).
type TransportFailure struct {
	StatusCode int // 0 si no hubo respuesta
	Message    string
	Err        error
}

func (e *TransportFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("Error HTTP %d", e.StatusCode)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// RejectionFailure la autoridad rechazó el documento explícitamente.
type RejectionFailure struct {
	Message string
}

func (e *RejectionFailure) Error() string { return e.Message }

// AmbiguousResponse la respuesta no trae señal positiva ni negativa; el documento sigue en processing.
type AmbiguousResponse struct {
	Message string
}

func (e *AmbiguousResponse) Error() string {
	if e.Message == "" {
		return "respuesta sin estado definitivo"
	}
	return e.Message
}

// IsValidation indica si err es (o envuelve) un ValidationFailure.
func IsValidation(err error) bool {
	var v *ValidationFailure
	return errors.As(err, &v)
}
