package dian_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	domaindian "github.com/jhoicas/facturador-dian/internal/domain/dian"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

func validInvoice() *entity.Document {
	return &entity.Document{
		Kind:   entity.KindInvoice,
		Prefix: "SETP",
		Number: "990000001",
		Party:  entity.Party{Identification: "1085286295", Name: "Cliente"},
		Lines: []entity.Line{{
			Description: "Producto",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			TaxID:       1,
			TaxPercent:  decimal.NewFromInt(19),
			Base:        decimal.NewFromInt(100),
			TaxAmount:   decimal.NewFromInt(19),
		}},
		Totals: entity.Totals{Subtotal: decimal.NewFromInt(100), Tax: decimal.NewFromInt(19), Total: decimal.NewFromInt(119)},
	}
}

func settings() *entity.Settings {
	s := entity.DefaultSettings("http://api.local")
	return s
}

func fields(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var vf *domain.ValidationFailure
		if errors.As(e, &vf) {
			out = append(out, vf.Field)
		}
	}
	walk(err)
	return out
}

func TestValidateForDispatch_FacturaValida(t *testing.T) {
	assert.NoError(t, domaindian.ValidateForDispatch(validInvoice(), settings()))
}

func TestValidateForDispatch_NumeroNoNumerico(t *testing.T) {
	doc := validInvoice()
	doc.Number = "99A"
	err := domaindian.ValidateForDispatch(doc, settings())
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, fields(err), "number")
}

func TestValidateForDispatch_NotaSinClaveFiscal(t *testing.T) {
	doc := validInvoice()
	doc.Kind = entity.KindCreditNote
	doc.Reference = &entity.Reference{Number: "SETP1"}
	err := domaindian.ValidateForDispatch(doc, settings())
	assert.Contains(t, fields(err), "billing_reference.uuid")
}

func TestValidateForDispatch_DocumentoSoporteSinCredenciales(t *testing.T) {
	doc := validInvoice()
	doc.Kind = entity.KindSupportDocument
	err := domaindian.ValidateForDispatch(doc, settings())
	f := fields(err)
	assert.Contains(t, f, "ds_software_id")
	assert.Contains(t, f, "ds_software_pin")
	assert.Contains(t, f, "ds_test_set_id")
	assert.Contains(t, err.Error(), "Software ID de Documento Soporte")
}

func TestValidateForDispatch_DocumentoSoporteEnProduccionNoPideTestSet(t *testing.T) {
	doc := validInvoice()
	doc.Kind = entity.KindSupportDocument
	s := settings()
	s.Environment = 1
	s.SupportSoftwareID = "sw"
	s.SupportSoftwarePIN = "12345"
	assert.NoError(t, domaindian.ValidateForDispatch(doc, s))
}

func TestValidateForDispatch_LineasYTotales(t *testing.T) {
	doc := validInvoice()
	doc.Lines[0].Quantity = decimal.Zero
	doc.Totals.Total = decimal.NewFromInt(50)
	f := fields(domaindian.ValidateForDispatch(doc, settings()))
	assert.Contains(t, f, "lines[0].quantity")
	assert.Contains(t, f, "totals")
}

func TestValidateForDispatch_TotalDeclaradoMayorSeAcepta(t *testing.T) {
	doc := validInvoice()
	doc.Totals.Total = decimal.NewFromInt(150)
	assert.NoError(t, domaindian.ValidateForDispatch(doc, settings()))
}

func TestValidateForDispatch_IdentificacionConLetras(t *testing.T) {
	doc := validInvoice()
	doc.Party.Identification = "CC-123"
	f := fields(domaindian.ValidateForDispatch(doc, settings()))
	assert.Contains(t, f, "customer.identification_number")
}
