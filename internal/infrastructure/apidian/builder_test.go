package apidian_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

func newBuilder() *apidian.Builder {
	return apidian.NewBuilder().WithClock(func() time.Time { return fixedNow })
}

func testSettings() *entity.Settings {
	s := entity.DefaultSettings("https://api.local/api/ubl2.1")
	s.CompanyName = "MI EMPRESA SAS"
	s.CompanyNIT = "900123456"
	s.SoftwareID = "sw-fe"
	s.TestSetID = "ts-fe"
	s.SupportSoftwareID = "sw-ds"
	s.SupportSoftwarePIN = "12345"
	s.SupportTestSetID = "ts-ds"
	return s
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func invoiceDoc() *entity.Document {
	return &entity.Document{
		Kind:   entity.KindInvoice,
		Prefix: "SETP",
		Number: "990000001",
		Party:  entity.Party{Identification: "1085286295", Name: "Juan Pérez", Email: "juan@correo.co"},
		Lines: []entity.Line{
			{Code: "A1", Description: "Gaseosa", Quantity: d("2"), UnitPrice: d("50"), TaxID: 1, TaxPercent: d("19"), Base: d("100"), TaxAmount: d("19")},
			{Description: "Almuerzo", Quantity: d("1"), UnitPrice: d("100"), TaxID: 4, TaxPercent: d("8"), Base: d("100"), TaxAmount: d("8")},
		},
		Payment: entity.Payment{Form: 1, Method: 10},
		Totals:  entity.Totals{Subtotal: d("200"), Tax: d("27"), Total: d("227")},
	}
}

// keyOrder verifica que las llaves aparezcan en el JSON en el orden dado.
func keyOrder(t *testing.T, raw []byte, keys ...string) {
	t.Helper()
	s := string(raw)
	last := -1
	for _, k := range keys {
		idx := strings.Index(s, `"`+k+`":`)
		require.GreaterOrEqual(t, idx, 0, "falta la llave %s", k)
		assert.Greater(t, idx, last, "llave %s fuera de orden", k)
		last = idx
	}
}

// ────────────────────────────────────────────────────────────────
// Factura
// ────────────────────────────────────────────────────────────────

func TestBuild_Factura(t *testing.T) {
	p, err := newBuilder().Build(apidian.BuildInput{Document: invoiceDoc(), Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, "/invoice/ts-fe", p.Path)

	raw, err := p.JSON()
	require.NoError(t, err)
	keyOrder(t, raw, "number", "type_document_id", "date", "time", "prefix", "sendmail",
		"customer", "payment_form", "legal_monetary_totals", "tax_totals", "invoice_lines")

	body := p.Body.(*apidian.InvoicePayload)
	assert.Equal(t, int64(990000001), body.Number)
	assert.Equal(t, "2025-03-14", body.Date)
	assert.Equal(t, "09:30:00", body.Time)
	assert.Nil(t, body.Customer.DV, "el DV del cliente se envía solo si viene")
	assert.Equal(t, 1006, body.Customer.MunicipalityID)
	assert.Equal(t, "227.00", body.LegalMonetaryTotals.PayableAmount)

	require.Len(t, body.TaxTotals, 2)
	assert.Equal(t, apidian.TaxTotal{TaxID: 1, TaxAmount: "19.00", Percent: "19.00", TaxableAmount: "100.00"}, body.TaxTotals[0])
	assert.Equal(t, 4, body.TaxTotals[1].TaxID)

	assert.Equal(t, "A1", body.InvoiceLines[0].Code)
	assert.Equal(t, "2", body.InvoiceLines[1].Code, "sin código se usa la posición")
	assert.Equal(t, "50.00", body.InvoiceLines[0].PriceAmount)
	assert.Nil(t, body.InvoiceLines[0].Notes)
	assert.NotContains(t, string(raw), "start_date")
}

func TestBuild_FacturaTotalDeclaradoMayorSeCobra(t *testing.T) {
	doc := invoiceDoc()
	doc.Totals.Total = d("300")
	p, err := newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)

	m := p.Body.(*apidian.InvoicePayload).LegalMonetaryTotals
	assert.Equal(t, "227.00", m.TaxInclusiveAmount)
	assert.Equal(t, "0.00", m.AllowanceTotalAmount)
	assert.Equal(t, "300.00", m.PayableAmount)
}

func TestBuild_FacturaCreditoUsaVencimiento(t *testing.T) {
	doc := invoiceDoc()
	due := time.Date(2025, 4, 13, 0, 0, 0, 0, time.Local)
	doc.Payment = entity.Payment{Form: 2, Method: 10, DueDate: &due}
	body, err := newBuilder().BuildInvoice(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, apidian.PaymentForm{PaymentFormID: 2, PaymentMethodID: 10, PaymentDueDate: "2025-04-13", DurationMeasure: "30"}, body.PaymentForm)
}

func TestBuild_FacturaSinLineasGrupoSintetico(t *testing.T) {
	doc := invoiceDoc()
	doc.Lines = nil
	body, err := newBuilder().BuildInvoice(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, []apidian.TaxTotal{{TaxID: 1, TaxAmount: "0.00", Percent: "0.00", TaxableAmount: "200.00"}}, body.TaxTotals)
}

func TestBuild_NumeroEIdentificacionNumericos(t *testing.T) {
	doc := invoiceDoc()
	doc.Number = "99X"
	_, err := newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "number", vf.Field)

	doc = invoiceDoc()
	doc.Party.Identification = "CC 123"
	_, err = newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "customer.identification_number", vf.Field)
}

// ────────────────────────────────────────────────────────────────
// Notas
// ────────────────────────────────────────────────────────────────

func creditNote() *entity.Document {
	doc := invoiceDoc()
	doc.Kind = entity.KindCreditNote
	doc.Prefix = "NC"
	doc.Number = "15"
	doc.Reference = &entity.Reference{DocumentID: 1, Number: "SETP990000001", FiscalKey: "cufe-1", IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)}
	return doc
}

func TestBuild_NotaCredito(t *testing.T) {
	p, err := newBuilder().Build(apidian.BuildInput{Document: creditNote(), Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, "/credit-note/ts-fe", p.Path)

	raw, err := p.JSON()
	require.NoError(t, err)
	keyOrder(t, raw, "number", "type_document_id", "prefix", "date", "time", "sendmail", "notes",
		"billing_reference", "discrepancyresponsecode", "discrepancyresponsedescription",
		"customer", "legal_monetary_totals", "tax_totals", "credit_note_lines")

	body := p.Body.(*apidian.CreditNotePayload)
	assert.Equal(t, 4, body.TypeDocumentID)
	assert.Equal(t, apidian.BillingReference{Number: "SETP990000001", UUID: "cufe-1", IssueDate: "2025-03-01"}, body.BillingReference)
	assert.Equal(t, 2, body.DiscrepancyResponseCode)
	assert.Equal(t, "Anulación", body.DiscrepancyResponseDescription)
	assert.Equal(t, "Nota crédito", body.Notes)
}

func TestBuild_NotaCreditoSinClaveFiscal(t *testing.T) {
	doc := creditNote()
	doc.Reference.FiscalKey = " "
	_, err := newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "billing_reference.uuid", vf.Field)
}

func TestBuild_NotaDebito(t *testing.T) {
	doc := creditNote()
	doc.Kind = entity.KindDebitNote
	doc.Discrepancy = &entity.Discrepancy{Code: 1, Description: "Intereses"}
	doc.Reference.IssueDate = time.Time{}

	p, err := newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)
	raw, _ := p.JSON()
	keyOrder(t, raw, "billing_reference", "customer", "requested_monetary_totals", "tax_totals", "debit_note_lines")

	body := p.Body.(*apidian.DebitNotePayload)
	assert.Equal(t, 5, body.TypeDocumentID)
	assert.Equal(t, 1, body.DiscrepancyResponseCode)
	assert.Equal(t, "Intereses", body.Notes)
	assert.Equal(t, "2025-03-14", body.BillingReference.IssueDate, "sin fecha de referencia se usa hoy")
}

// ────────────────────────────────────────────────────────────────
// Documento soporte y nota de ajuste
// ────────────────────────────────────────────────────────────────

func supportDoc() *entity.Document {
	return &entity.Document{
		Kind:   entity.KindSupportDocument,
		Prefix: "DS",
		Number: "7",
		Party:  entity.Party{Identification: "1085286295", Name: "Proveedor Uno"},
		Lines: []entity.Line{
			{Description: "Papa", Quantity: d("1"), UnitPrice: d("119"), TaxPercent: d("19"), PriceIncludesTax: true},
			{Quantity: d("2"), UnitPrice: d("10"), TaxPercent: d("0"), PriceIncludesTax: true},
		},
	}
}

func TestBuild_DocumentoSoporte(t *testing.T) {
	res := &entity.Resolution{Resolution: "18764000001"}
	p, err := newBuilder().Build(apidian.BuildInput{Document: supportDoc(), Settings: testSettings(), Resolution: res})
	require.NoError(t, err)
	assert.Equal(t, "/support-document/ts-ds", p.Path)

	raw, _ := p.JSON()
	keyOrder(t, raw, "number", "type_document_id", "date", "time", "notes", "sendmail", "sendmailtome",
		"resolution_number", "prefix", "establishment_name", "seller", "payment_form",
		"allowance_charges", "legal_monetary_totals", "tax_totals", "invoice_lines")

	body := p.Body.(*apidian.SupportDocumentPayload)
	assert.Equal(t, "18764000001", body.ResolutionNumber)
	assert.Equal(t, "MI EMPRESA SAS", body.EstablishmentName)
	assert.Equal(t, "SIN OBSERVACIONES", body.Notes)
	assert.Equal(t, "3", body.Seller.DV, "DV calculado")
	assert.Equal(t, 149, body.Seller.MunicipalityID)
	assert.Equal(t, 110111, body.Seller.PostalZoneCode)
	assert.Equal(t, "0000000000", body.Seller.Phone)

	assert.Equal(t, "120.00", body.LegalMonetaryTotals.LineExtensionAmount)
	assert.Equal(t, "139.00", body.LegalMonetaryTotals.PayableAmount)
	assert.Equal(t, 10, body.AllowanceCharges[0].DiscountID)
	assert.Equal(t, "120.00", body.AllowanceCharges[0].BaseAmount)

	require.Len(t, body.TaxTotals, 2)
	assert.Equal(t, apidian.TaxTotal{TaxID: 1, TaxAmount: "19.00", Percent: "19", TaxableAmount: "100.00"}, body.TaxTotals[0])
	assert.Equal(t, "0", body.TaxTotals[1].Percent)

	line := body.InvoiceLines[0]
	assert.Equal(t, "100.00", line.PriceAmount)
	assert.Equal(t, "19.00", line.TaxTotals[0].Percent)
	require.NotNil(t, line.Notes)
	assert.Equal(t, "", *line.Notes)
	assert.Equal(t, 1, line.TypeGenerationTransmitionID)
	assert.Equal(t, "2025-03-14", line.StartDate)
	assert.Equal(t, "PROD", body.InvoiceLines[1].Code)
	assert.Equal(t, "Producto", body.InvoiceLines[1].Description)
	lineRaw, err := json.Marshal(line)
	require.NoError(t, err)
	keyOrder(t, lineRaw, "free_of_charge_indicator", "allowance_charges", "tax_totals", "description", "notes",
		"code", "type_item_identification_id", "price_amount", "base_quantity", "type_generation_transmition_id", "start_date")
}

func TestBuild_DocumentoSoporteSinLineasYProveedorGenerico(t *testing.T) {
	doc := supportDoc()
	doc.Lines = nil
	doc.Party = entity.Party{}
	body, err := newBuilder().BuildSupportDocument(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, []apidian.TaxTotal{{TaxID: 1, TaxAmount: "0.00", Percent: "0", TaxableAmount: "0.00"}}, body.TaxTotals)
	assert.Equal(t, "222222222222", body.Seller.IdentificationNumber)
	assert.Equal(t, "PROVEEDOR", body.Seller.Name)
	assert.Empty(t, body.ResolutionNumber)
}

func TestBuild_DocumentoSoporteSinCredenciales(t *testing.T) {
	s := testSettings()
	s.SupportSoftwareID = ""
	_, err := newBuilder().Build(apidian.BuildInput{Document: supportDoc(), Settings: s})
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "ds_software_id", vf.Field)
}

func TestBuild_NotaDeAjuste(t *testing.T) {
	doc := supportDoc()
	doc.Kind = entity.KindAdjustmentNote
	doc.Prefix = "NA"
	doc.Reference = &entity.Reference{Number: "DS7", FiscalKey: "cuds-7", IssueDate: fixedNow}

	p, err := newBuilder().Build(apidian.BuildInput{Document: doc, Settings: testSettings()})
	require.NoError(t, err)
	assert.Equal(t, "/sd-credit-note/ts-ds", p.Path)

	raw, _ := p.JSON()
	keyOrder(t, raw, "billing_reference", "discrepancyresponsecode", "discrepancyresponsedescription",
		"notes", "prefix", "type_document_id", "date", "time", "establishment_name",
		"sendmail", "sendmailtome", "seller", "tax_totals", "allowance_charges",
		"legal_monetary_totals", "credit_note_lines")
	assert.True(t, strings.HasPrefix(string(raw), `{"billing_reference":`))
	assert.NotContains(t, string(raw), "start_date")

	body := p.Body.(*apidian.AdjustmentNotePayload)
	assert.Equal(t, 13, body.TypeDocumentID)
	assert.Equal(t, "DEVOLUCION DE MERCANCIA", body.DiscrepancyResponseDescription)
	assert.Equal(t, "NOTA DE AJUSTE AL DOCUMENTO SOPORTE", body.Notes)
	assert.Equal(t, 1, body.AllowanceCharges[0].DiscountID)
}

func TestDocumentPath_Produccion(t *testing.T) {
	s := testSettings()
	s.Environment = 1
	for kind, want := range map[entity.DocumentKind]string{
		entity.KindInvoice:         "/invoice",
		entity.KindCreditNote:      "/credit-note",
		entity.KindDebitNote:       "/debit-note",
		entity.KindSupportDocument: "/support-document",
		entity.KindAdjustmentNote:  "/sd-credit-note",
	} {
		got, err := apidian.DocumentPath(kind, s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	s.Environment = 2
	s.TestSetID = ""
	_, err := apidian.DocumentPath(entity.KindInvoice, s)
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "test_set_id", vf.Field)
}

func TestPayload_CustomerDVNull(t *testing.T) {
	body, err := newBuilder().BuildInvoice(apidian.BuildInput{Document: invoiceDoc(), Settings: testSettings()})
	require.NoError(t, err)
	raw, err := json.Marshal(body.Customer)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dv":null`)
}
