package siigo

import (
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// ClassifyKind deduce el tipo de documento del texto libre del código 0497.
//
// Es una heurística por subcadena sobre el texto en mayúsculas:
//
//	contiene "CREDITO" o "NC"  -> nota crédito
//	contiene "DEBITO" o "ND"   -> nota débito
//	cualquier otro texto       -> factura (incluye vacío y errores de digitación)
//
// Crédito se evalúa primero. "NC" y "ND" también coinciden dentro de otras palabras
// ("VENTA CONTADO" no, "FINANCIERA" sí contiene "NC"), riesgo conocido del formato de origen.
func ClassifyKind(text string) entity.DocumentKind {
	t := strings.ToUpper(text)
	switch {
	case strings.Contains(t, "CREDITO") || strings.Contains(t, "NC"):
		return entity.KindCreditNote
	case strings.Contains(t, "DEBITO") || strings.Contains(t, "ND"):
		return entity.KindDebitNote
	}
	return entity.KindInvoice
}
