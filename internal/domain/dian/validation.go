// Package dian contiene validaciones de dominio previas al envío de documentos electrónicos
// a la API de facturación DIAN (Colombia). Utiliza catálogos y reglas de pkg/dian.
package dian

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/tax"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// ValidateForDispatch revisa lo que la API rechazaría sin explicación útil: numeración no numérica,
// documento sin líneas, cantidades no positivas, referencia sin clave fiscal y credenciales faltantes.
// Cada problema es un *domain.ValidationFailure; se devuelven todos unidos con errors.Join.
func ValidateForDispatch(doc *entity.Document, settings *entity.Settings) error {
	if doc == nil {
		return domain.NewValidationFailure("document", "documento nulo")
	}
	if settings == nil {
		return domain.NewValidationFailure("settings", "configuración no cargada")
	}
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.NewValidationFailure(field, fmt.Sprintf(format, args...)))
	}

	if !doc.Kind.Valid() {
		add("type", "tipo de documento desconocido %q", doc.Kind)
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(doc.Number), 10, 64); err != nil {
		add("number", "el número %q no es un entero", doc.Number)
	}
	if len(doc.Lines) == 0 {
		add("lines", "el documento no tiene líneas")
	}
	for i, l := range doc.Lines {
		if !l.Quantity.IsPositive() {
			add(fmt.Sprintf("lines[%d].quantity", i), "la cantidad debe ser mayor que cero (%s)", l.Quantity.String())
		}
		if l.TaxPercent.IsNegative() {
			add(fmt.Sprintf("lines[%d].tax_percent", i), "tarifa negativa (%s)", l.TaxPercent.String())
		}
		if l.TaxID != 0 && l.TaxID != dian.TaxIDIVA && l.TaxID != dian.TaxIDINC {
			add(fmt.Sprintf("lines[%d].tax_id", i), "tributo %d no soportado", l.TaxID)
		}
	}
	if !doc.Kind.UsesSupportCredentials() && !tax.Consistent(doc.Totals) {
		add("totals", "total %s no cuadra con subtotal %s - descuento %s + impuesto %s",
			tax.Money(doc.Totals.Total), tax.Money(doc.Totals.Subtotal), tax.Money(doc.Totals.Discount), tax.Money(doc.Totals.Tax))
	}

	// Tercero: en venta la identificación viaja como entero.
	if !doc.Kind.UsesSupportCredentials() {
		id := strings.TrimSpace(doc.Party.Identification)
		if id == "" || dian.DigitsOnly(id) != id {
			add("customer.identification_number", "identificación %q no es numérica", doc.Party.Identification)
		}
		if dv := strings.TrimSpace(doc.Party.CheckDigit); dv != "" {
			if _, err := strconv.Atoi(dv); err != nil {
				add("customer.dv", "dígito de verificación %q no es numérico", dv)
			}
		}
	}

	if doc.Kind.RequiresReference() {
		switch {
		case doc.Reference == nil:
			add("billing_reference", "la nota no referencia ningún documento")
		case strings.TrimSpace(doc.Reference.FiscalKey) == "":
			add("billing_reference.uuid", "el documento referenciado %s no tiene CUFE/CUDE", doc.Reference.Number)
		}
	}

	if strings.TrimSpace(settings.APIURL) == "" {
		add("api_url", "URL de la API no configurada")
	}
	if doc.Kind.UsesSupportCredentials() {
		if strings.TrimSpace(settings.SupportSoftwareID) == "" {
			add("ds_software_id", "configure el Software ID de Documento Soporte")
		}
		if strings.TrimSpace(settings.SupportSoftwarePIN) == "" {
			add("ds_software_pin", "configure el PIN de Documento Soporte")
		}
		if settings.IsTest() && strings.TrimSpace(settings.SupportTestSetID) == "" {
			add("ds_test_set_id", "configure el TestSetId de Documento Soporte para habilitación")
		}
	}

	return errors.Join(errs...)
}
