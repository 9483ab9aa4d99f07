package apidian

import (
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// DefaultMaxMessageRunes largo máximo del mensaje guardado en el documento.
const DefaultMaxMessageRunes = 1000

// Outcome estado definitivo de un envío.
type Outcome struct {
	Status    entity.DocumentStatus
	FiscalKey string // CUFE/CUDE/CUDS; vacío si fue rechazado o la API no lo devolvió
	Message   string
}

// DianResult resultado de la validación DIAN dentro de la respuesta de la API.
type DianResult struct {
	IsValid           string
	StatusCode        string
	StatusDescription string
	XmlDocumentKey    string
	Errors            []string
}

// Interpreter traduce respuestas a Outcome.
type Interpreter struct {
	maxRunes int
}

// NewInterpreter maxRunes <= 0 usa DefaultMaxMessageRunes.
func NewInterpreter(maxRunes int) *Interpreter {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxMessageRunes
	}
	return &Interpreter{maxRunes: maxRunes}
}

// Interpret decide el estado del documento a partir de la respuesta (o del error de transporte).
//
// Orden de decisión:
//  1. sin respuesta o HTTP no exitoso: error
//  2. algún mensaje con "rechazo": rejected (se descarta la clave fiscal)
//  3. IsValid "true" y StatusCode "00": sent
//  4. clave fiscal sin mensajes: sent
//  5. solo notificaciones: sent
//  6. otros mensajes: error
//  7. nada concluyente: processing
func (in *Interpreter) Interpret(resp *Response, transportErr error) Outcome {
	if transportErr != nil {
		return Outcome{Status: entity.StatusError, Message: in.truncate(transportErr.Error())}
	}
	if resp == nil {
		return Outcome{Status: entity.StatusError, Message: "Error desconocido"}
	}
	if !resp.Success() {
		return Outcome{Status: entity.StatusError, Message: in.truncate(resp.ErrorMessage())}
	}

	result := ExtractDianResult(resp.Body)
	key := FiscalKey(resp.Body, result)

	var rejections, notifications []string
	for _, e := range result.Errors {
		if strings.Contains(strings.ToLower(e), "rechazo") {
			rejections = append(rejections, e)
			continue
		}
		if strings.Contains(e, "Notificación") {
			notifications = append(notifications, e)
		}
	}

	switch {
	case len(rejections) > 0:
		return Outcome{Status: entity.StatusRejected, Message: in.join(rejections, 3)}
	case result.IsValid == "true" && result.StatusCode == "00":
		return Outcome{Status: entity.StatusSent, FiscalKey: key, Message: in.join(notifications, 2)}
	case key != "" && len(result.Errors) == 0:
		return Outcome{Status: entity.StatusSent, FiscalKey: key}
	case len(result.Errors) > 0 && len(notifications) == len(result.Errors):
		return Outcome{Status: entity.StatusSent, FiscalKey: key, Message: in.join(notifications, 2)}
	case len(result.Errors) > 0:
		return Outcome{Status: entity.StatusError, Message: in.join(result.Errors, 3)}
	default:
		return Outcome{Status: entity.StatusProcessing, FiscalKey: key, Message: result.StatusDescription}
	}
}

// ExtractDianResult toma ResponseDian.Envelope.Body.{SendBillSyncResponse.SendBillSyncResult |
// SendTestSetAsyncResponse.SendTestSetAsyncResult}, el primero que no esté vacío.
func ExtractDianResult(body map[string]any) DianResult {
	envelope := dig(body, "ResponseDian", "Envelope", "Body")
	raw := dig(envelope, "SendBillSyncResponse", "SendBillSyncResult")
	if len(raw) == 0 {
		raw = dig(envelope, "SendTestSetAsyncResponse", "SendTestSetAsyncResult")
	}
	return DianResult{
		IsValid:           stringField(raw, "IsValid"),
		StatusCode:        stringField(raw, "StatusCode"),
		StatusDescription: stringField(raw, "StatusDescription"),
		XmlDocumentKey:    stringField(raw, "XmlDocumentKey"),
		Errors:            errorMessages(raw["ErrorMessage"]),
	}
}

// FiscalKey clave del documento: cuds, cufe, uuid, cude en la raíz y por último XmlDocumentKey.
func FiscalKey(body map[string]any, result DianResult) string {
	for _, k := range []string{"cuds", "cufe", "uuid", "cude"} {
		if v := stringField(body, k); v != "" {
			return v
		}
	}
	return result.XmlDocumentKey
}

// errorMessages normaliza ErrorMessage: ausente, string, lista o {"string": string|lista}.
func errorMessages(v any) []string {
	switch m := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(m) == "" {
			return nil
		}
		return []string{m}
	case []any:
		out := make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		return errorMessages(m["string"])
	default:
		return nil
	}
}

func (in *Interpreter) join(msgs []string, limit int) string {
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return in.truncate(strings.Join(msgs, "; "))
}

func (in *Interpreter) truncate(s string) string {
	return truncateRunes(s, in.maxRunes)
}

func dig(m map[string]any, path ...string) map[string]any {
	cur := m
	for _, p := range path {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		cur = next
	}
	return cur
}
