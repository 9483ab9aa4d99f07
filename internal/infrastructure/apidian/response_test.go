package apidian_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

func okResponse(t *testing.T, body string) *apidian.Response {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return &apidian.Response{StatusCode: 200, Body: m, Raw: []byte(body)}
}

// ────────────────────────────────────────────────────────────────
// Interpret
// ────────────────────────────────────────────────────────────────

func TestInterpret_RechazoTienePrioridadSobreClave(t *testing.T) {
	resp := okResponse(t, `{
		"cufe": "abc123",
		"ResponseDian": {"Envelope": {"Body": {"SendBillSyncResponse": {"SendBillSyncResult": {
			"IsValid": "true", "StatusCode": "00",
			"ErrorMessage": {"string": ["Regla: FAD06, Rechazo: número fuera de rango", "Regla: X, Notificación: algo"]}
		}}}}}
	}`)
	out := apidian.NewInterpreter(0).Interpret(resp, nil)
	assert.Equal(t, entity.StatusRejected, out.Status)
	assert.Empty(t, out.FiscalKey)
	assert.Contains(t, out.Message, "FAD06")
	assert.NotContains(t, out.Message, "Notificación")
}

func TestInterpret_ValidoConNotificaciones(t *testing.T) {
	resp := okResponse(t, `{
		"ResponseDian": {"Envelope": {"Body": {"SendBillSyncResponse": {"SendBillSyncResult": {
			"IsValid": "true", "StatusCode": "00", "XmlDocumentKey": "KEY-1",
			"ErrorMessage": {"string": ["Notificación: a", "Notificación: b", "Notificación: c"]}
		}}}}}
	}`)
	out := apidian.NewInterpreter(0).Interpret(resp, nil)
	assert.Equal(t, entity.StatusSent, out.Status)
	assert.Equal(t, "KEY-1", out.FiscalKey)
	assert.Equal(t, "Notificación: a; Notificación: b", out.Message)
}

func TestInterpret_OrdenDeClaveFiscal(t *testing.T) {
	resp := okResponse(t, `{"uuid": "U", "cude": "C", "cuds": "S"}`)
	out := apidian.NewInterpreter(0).Interpret(resp, nil)
	assert.Equal(t, entity.StatusSent, out.Status)
	assert.Equal(t, "S", out.FiscalKey)
}

func TestInterpret_TestSetAsyncYErrorMessageString(t *testing.T) {
	resp := okResponse(t, `{
		"ResponseDian": {"Envelope": {"Body": {"SendTestSetAsyncResponse": {"SendTestSetAsyncResult": {
			"ErrorMessage": "Notificación: solo aviso"
		}}}}}
	}`)
	out := apidian.NewInterpreter(0).Interpret(resp, nil)
	assert.Equal(t, entity.StatusSent, out.Status)
	assert.Empty(t, out.FiscalKey)
}

func TestInterpret_ErroresNoClasificados(t *testing.T) {
	resp := okResponse(t, `{
		"ResponseDian": {"Envelope": {"Body": {"SendBillSyncResponse": {"SendBillSyncResult": {
			"IsValid": "false", "StatusCode": "99",
			"ErrorMessage": ["e1", "e2", "e3", "e4"]
		}}}}}
	}`)
	out := apidian.NewInterpreter(0).Interpret(resp, nil)
	assert.Equal(t, entity.StatusError, out.Status)
	assert.Equal(t, "e1; e2; e3", out.Message)
}

func TestInterpret_SinSenalQuedaEnProcessing(t *testing.T) {
	out := apidian.NewInterpreter(0).Interpret(okResponse(t, `{"message": "en cola"}`), nil)
	assert.Equal(t, entity.StatusProcessing, out.Status)
}

func TestInterpret_ErrorDeTransporteYHTTP(t *testing.T) {
	in := apidian.NewInterpreter(0)

	out := in.Interpret(nil, &domain.TransportFailure{Message: "apidian: timeout o cancelación", Err: errors.New("deadline")})
	assert.Equal(t, entity.StatusError, out.Status)
	assert.Contains(t, out.Message, "timeout")

	resp := &apidian.Response{StatusCode: 422, Body: map[string]any{
		"message": "The given data was invalid.",
		"errors":  map[string]any{"number": []any{"requerido", "entero"}, "customer.dv": []any{"inválido"}},
	}}
	out = in.Interpret(resp, nil)
	assert.Equal(t, entity.StatusError, out.Status)
	assert.Equal(t, "customer.dv: inválido; number: requerido, entero", out.Message)
}

func TestInterpret_TruncaMensaje(t *testing.T) {
	long := strings.Repeat("ñ", 50)
	resp := &apidian.Response{StatusCode: 500, Body: map[string]any{"message": long}}
	out := apidian.NewInterpreter(10).Interpret(resp, nil)
	assert.Equal(t, strings.Repeat("ñ", 10), out.Message)
}

func TestResponse_ErrorMessageCuerpoCrudo(t *testing.T) {
	resp := &apidian.Response{StatusCode: 502, Raw: []byte("<html>Bad Gateway</html>")}
	assert.Equal(t, "Error HTTP 502: <html>Bad Gateway</html>", resp.ErrorMessage())

	stored := resp.Stored()
	assert.Contains(t, string(stored), "raw_response")
}
