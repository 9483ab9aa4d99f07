package apidian

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/tax"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// BuildInput documento a enviar con su contexto. Resolution solo se usa en documento soporte
// (resolution_number); la referencia de las notas viaja copiada dentro del documento.
type BuildInput struct {
	Document   *entity.Document
	Settings   *entity.Settings
	Resolution *entity.Resolution
}

// Payload cuerpo listo para enviar con su ruta.
type Payload struct {
	Kind entity.DocumentKind
	Path string
	Body any
}

// JSON cuerpo serializado (se guarda en api_request).
func (p *Payload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("apidian: serializar %s: %w", p.Kind, err)
	}
	return b, nil
}

// Builder arma los cuerpos JSON. Recalcula montos solo a partir de las líneas persistidas.
type Builder struct {
	now func() time.Time
}

// NewBuilder builder con el reloj del sistema.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// WithClock reemplaza el reloj (fecha y hora de emisión del payload).
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build despacha al constructor del tipo y resuelve la ruta de envío.
func (b *Builder) Build(in BuildInput) (*Payload, error) {
	if in.Document == nil {
		return nil, domain.NewValidationFailure("document", "documento nulo")
	}
	if in.Settings == nil {
		return nil, domain.NewValidationFailure("settings", "configuración no cargada")
	}
	path, err := DocumentPath(in.Document.Kind, in.Settings)
	if err != nil {
		return nil, err
	}

	var body any
	switch in.Document.Kind {
	case entity.KindInvoice:
		body, err = b.BuildInvoice(in)
	case entity.KindCreditNote:
		body, err = b.BuildCreditNote(in)
	case entity.KindDebitNote:
		body, err = b.BuildDebitNote(in)
	case entity.KindSupportDocument:
		body, err = b.BuildSupportDocument(in)
	case entity.KindAdjustmentNote:
		body, err = b.BuildAdjustmentNote(in)
	}
	if err != nil {
		return nil, err
	}
	return &Payload{Kind: in.Document.Kind, Path: path, Body: body}, nil
}

// ── Venta ──────────────────────────────────────────────────────────────────────

// BuildInvoice factura de venta (type_document_id 1).
func (b *Builder) BuildInvoice(in BuildInput) (*InvoicePayload, error) {
	doc := in.Document
	number, err := documentNumber(doc)
	if err != nil {
		return nil, err
	}
	customer, err := customerBlock(doc.Party, in.Settings)
	if err != nil {
		return nil, err
	}
	now := b.now()
	return &InvoicePayload{
		Number:              number,
		TypeDocumentID:      dian.TypeDocumentInvoice,
		Date:                now.Format(dateLayout),
		Time:                now.Format(timeLayout),
		Prefix:              doc.Prefix,
		SendMail:            true,
		Customer:            customer,
		PaymentForm:         paymentForm(doc.Payment, now),
		LegalMonetaryTotals: monetaryBlock(tax.DocumentMonetary(doc.Totals)),
		TaxTotals:           saleTaxTotals(doc),
		InvoiceLines:        saleLines(doc.Lines),
	}, nil
}

// BuildCreditNote nota crédito (type_document_id 4).
func (b *Builder) BuildCreditNote(in BuildInput) (*CreditNotePayload, error) {
	doc := in.Document
	number, err := documentNumber(doc)
	if err != nil {
		return nil, err
	}
	ref, err := b.billingReference(doc)
	if err != nil {
		return nil, err
	}
	customer, err := customerBlock(doc.Party, in.Settings)
	if err != nil {
		return nil, err
	}
	code, description := discrepancy(doc, dian.DefaultCreditNoteDiscrepancy, dian.DefaultCreditNoteDescription)
	now := b.now()
	return &CreditNotePayload{
		Number:                         number,
		TypeDocumentID:                 dian.TypeDocumentCreditNote,
		Prefix:                         doc.Prefix,
		Date:                           now.Format(dateLayout),
		Time:                           now.Format(timeLayout),
		SendMail:                       true,
		Notes:                          noteText(doc, "Nota crédito"),
		BillingReference:               ref,
		DiscrepancyResponseCode:        code,
		DiscrepancyResponseDescription: description,
		Customer:                       customer,
		LegalMonetaryTotals:            monetaryBlock(tax.DocumentMonetary(doc.Totals)),
		TaxTotals:                      saleTaxTotals(doc),
		CreditNoteLines:                saleLines(doc.Lines),
	}, nil
}

// BuildDebitNote nota débito (type_document_id 5).
func (b *Builder) BuildDebitNote(in BuildInput) (*DebitNotePayload, error) {
	doc := in.Document
	number, err := documentNumber(doc)
	if err != nil {
		return nil, err
	}
	ref, err := b.billingReference(doc)
	if err != nil {
		return nil, err
	}
	customer, err := customerBlock(doc.Party, in.Settings)
	if err != nil {
		return nil, err
	}
	code, description := discrepancy(doc, dian.DefaultDebitNoteDiscrepancy, dian.DefaultDebitNoteDescription)
	now := b.now()
	return &DebitNotePayload{
		Number:                         number,
		TypeDocumentID:                 dian.TypeDocumentDebitNote,
		Prefix:                         doc.Prefix,
		Date:                           now.Format(dateLayout),
		Time:                           now.Format(timeLayout),
		SendMail:                       true,
		Notes:                          noteText(doc, "Nota débito"),
		BillingReference:               ref,
		DiscrepancyResponseCode:        code,
		DiscrepancyResponseDescription: description,
		Customer:                       customer,
		RequestedMonetaryTotals:        monetaryBlock(tax.DocumentMonetary(doc.Totals)),
		TaxTotals:                      saleTaxTotals(doc),
		DebitNoteLines:                 saleLines(doc.Lines),
	}, nil
}

// ── Documento soporte ──────────────────────────────────────────────────────────

// BuildSupportDocument documento soporte en adquisiciones a no obligados (type_document_id 11).
func (b *Builder) BuildSupportDocument(in BuildInput) (*SupportDocumentPayload, error) {
	doc := in.Document
	number, err := documentNumber(doc)
	if err != nil {
		return nil, err
	}
	seller, err := sellerBlock(doc.Party, in.Settings)
	if err != nil {
		return nil, err
	}
	now := b.now()
	today := now.Format(dateLayout)
	purchase := purchaseLines(doc.Lines)

	resolutionNumber := ""
	if in.Resolution != nil {
		resolutionNumber = in.Resolution.Resolution
	}
	notes := strings.TrimSpace(doc.Notes)
	if notes == "" {
		notes = dian.DefaultSupportDocumentNotes
	}

	return &SupportDocumentPayload{
		Number:            number,
		TypeDocumentID:    dian.TypeDocumentSupportDocument,
		Date:              today,
		Time:              now.Format(timeLayout),
		Notes:             notes,
		SendMail:          false,
		SendMailToMe:      false,
		ResolutionNumber:  resolutionNumber,
		Prefix:            doc.Prefix,
		EstablishmentName: establishmentName(in.Settings),
		Seller:            seller,
		PaymentForm: PaymentForm{
			PaymentFormID:   dian.PaymentFormContado,
			PaymentMethodID: dian.PaymentMethodEfectivo,
			PaymentDueDate:  today,
			DurationMeasure: "0",
		},
		AllowanceCharges:    []AllowanceCharge{documentAllowance(dian.DiscountIDOtro, purchase.lineExtension)},
		LegalMonetaryTotals: monetaryBlock(tax.PurchaseMonetary(purchase.lineExtension, purchase.tax)),
		TaxTotals:           purchase.taxTotals(),
		InvoiceLines:        purchase.items(today),
	}, nil
}

// BuildAdjustmentNote nota de ajuste al documento soporte (type_document_id 13).
// billing_reference va primero en el cuerpo.
func (b *Builder) BuildAdjustmentNote(in BuildInput) (*AdjustmentNotePayload, error) {
	doc := in.Document
	number, err := documentNumber(doc)
	if err != nil {
		return nil, err
	}
	ref, err := b.billingReference(doc)
	if err != nil {
		return nil, err
	}
	seller, err := sellerBlock(doc.Party, in.Settings)
	if err != nil {
		return nil, err
	}
	code, description := discrepancy(doc, dian.DefaultAdjustmentDiscrepancy, dian.DefaultAdjustmentDescription)
	now := b.now()
	purchase := purchaseLines(doc.Lines)

	return &AdjustmentNotePayload{
		BillingReference:               ref,
		DiscrepancyResponseCode:        code,
		DiscrepancyResponseDescription: description,
		Notes:                          noteText(doc, dian.DefaultAdjustmentNotes),
		Prefix:                         doc.Prefix,
		Number:                         number,
		TypeDocumentID:                 dian.TypeDocumentAdjustmentNote,
		Date:                           now.Format(dateLayout),
		Time:                           now.Format(timeLayout),
		EstablishmentName:              establishmentName(in.Settings),
		SendMail:                       false,
		SendMailToMe:                   false,
		Seller:                         seller,
		TaxTotals:                      purchase.taxTotals(),
		AllowanceCharges:               []AllowanceCharge{documentAllowance(dian.DiscountIDGeneral, purchase.lineExtension)},
		LegalMonetaryTotals:            monetaryBlock(tax.PurchaseMonetary(purchase.lineExtension, purchase.tax)),
		CreditNoteLines:                purchase.items(""),
	}, nil
}

// ── Bloques compartidos ────────────────────────────────────────────────────────

func documentNumber(doc *entity.Document) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(doc.Number), 10, 64)
	if err != nil {
		return 0, domain.NewValidationFailure("number", fmt.Sprintf("el número %q no es un entero", doc.Number))
	}
	return n, nil
}

func (b *Builder) billingReference(doc *entity.Document) (BillingReference, error) {
	if doc.Reference == nil {
		return BillingReference{}, domain.NewValidationFailure("billing_reference", "la nota no referencia ningún documento")
	}
	key := strings.TrimSpace(doc.Reference.FiscalKey)
	if key == "" {
		return BillingReference{}, domain.NewValidationFailure("billing_reference.uuid",
			fmt.Sprintf("el documento referenciado %s no tiene CUFE/CUDE; envíelo antes de emitir la nota", doc.Reference.Number))
	}
	issue := doc.Reference.IssueDate
	if issue.IsZero() {
		issue = b.now()
	}
	return BillingReference{
		Number:    doc.Reference.Number,
		UUID:      key,
		IssueDate: issue.Format(dateLayout),
	}, nil
}

func discrepancy(doc *entity.Document, defCode int, defDescription string) (int, string) {
	code, description := defCode, defDescription
	if doc.Discrepancy != nil {
		if doc.Discrepancy.Code > 0 {
			code = doc.Discrepancy.Code
		}
		if d := strings.TrimSpace(doc.Discrepancy.Description); d != "" {
			description = d
		}
	}
	return code, description
}

// noteText notas de la nota: texto explícito, si no la descripción del concepto, si no el valor fijo.
func noteText(doc *entity.Document, fallback string) string {
	if n := strings.TrimSpace(doc.Notes); n != "" {
		return n
	}
	if doc.Discrepancy != nil {
		if d := strings.TrimSpace(doc.Discrepancy.Description); d != "" {
			return d
		}
	}
	return fallback
}

func establishmentName(s *entity.Settings) string {
	if name := strings.TrimSpace(s.CompanyName); name != "" {
		return name
	}
	return dian.DefaultEstablishmentName
}

// customerBlock adquiriente. El DV se envía tal como vino (null si no hay).
func customerBlock(p entity.Party, s *entity.Settings) (CustomerBlock, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(p.Identification), 10, 64)
	if err != nil {
		return CustomerBlock{}, domain.NewValidationFailure("customer.identification_number",
			fmt.Sprintf("identificación %q no es numérica", p.Identification))
	}
	var dv *int
	if raw := strings.TrimSpace(p.CheckDigit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return CustomerBlock{}, domain.NewValidationFailure("customer.dv", fmt.Sprintf("dígito de verificación %q no es numérico", raw))
		}
		dv = &n
	}
	return CustomerBlock{
		IdentificationNumber:         id,
		DV:                           dv,
		Name:                         p.Name,
		Phone:                        p.Phone,
		Address:                      p.Address,
		Email:                        p.Email,
		MerchantRegistration:         firstString(p.MerchantRegistration, dian.DefaultMerchantRegistration),
		TypeDocumentIdentificationID: firstNonZero(p.TypeDocumentIdentificationID, s.TypeDocumentIdentificationID, dian.DefaultTypeDocumentIdentID),
		TypeOrganizationID:           firstNonZero(p.TypeOrganizationID, s.TypeOrganizationID, dian.DefaultTypeOrganizationID),
		TypeLiabilityID:              firstNonZero(p.TypeLiabilityID, s.TypeLiabilityID, dian.DefaultTypeLiabilityID),
		MunicipalityID:               firstNonZero(p.MunicipalityID, s.CustomerMunicipalityID, dian.DefaultCustomerMunicipalityID),
		TypeRegimeID:                 firstNonZero(p.TypeRegimeID, s.TypeRegimeID, dian.DefaultTypeRegimeID),
	}, nil
}

// sellerBlock proveedor no obligado a facturar. Sin identificación se usa el consumidor final
// genérico; el DV se calcula si no viene.
func sellerBlock(p entity.Party, s *entity.Settings) (SellerBlock, error) {
	nit := strings.TrimSpace(p.Identification)
	if nit == "" {
		nit = "222222222222"
	}
	dv := strings.TrimSpace(p.CheckDigit)
	if dv == "" {
		dv = dian.VerificationDigitString(nit)
		if dv == "" {
			return SellerBlock{}, domain.NewValidationFailure("seller.identification_number",
				fmt.Sprintf("no se puede calcular el DV de %q", p.Identification))
		}
	}
	return SellerBlock{
		IdentificationNumber:         nit,
		DV:                           dv,
		Name:                         firstString(p.Name, "PROVEEDOR"),
		Phone:                        firstString(p.Phone, "0000000000"),
		Address:                      firstString(p.Address, "Sin dirección"),
		Email:                        firstString(p.Email, "sin@email.com"),
		MerchantRegistration:         firstString(p.MerchantRegistration, dian.DefaultMerchantRegistration),
		TypeDocumentIdentificationID: firstNonZero(p.TypeDocumentIdentificationID, s.TypeDocumentIdentificationID, dian.DefaultTypeDocumentIdentID),
		TypeOrganizationID:           firstNonZero(p.TypeOrganizationID, s.TypeOrganizationID, dian.DefaultTypeOrganizationID),
		TypeRegimeID:                 firstNonZero(p.TypeRegimeID, s.TypeRegimeID, dian.DefaultTypeRegimeID),
		TypeLiabilityID:              firstNonZero(p.TypeLiabilityID, s.TypeLiabilityID, dian.DefaultTypeLiabilityID),
		MunicipalityID:               firstNonZero(p.MunicipalityID, s.SellerMunicipalityID, dian.DefaultSellerMunicipalityID),
		PostalZoneCode:               firstNonZero(p.PostalZoneCode, s.PostalZoneCode, dian.DefaultPostalZoneCode),
	}, nil
}

// paymentForm en crédito usa el vencimiento y plazo del documento; en contado vence hoy.
func paymentForm(p entity.Payment, now time.Time) PaymentForm {
	form := firstNonZero(p.Form, dian.PaymentFormContado)
	out := PaymentForm{
		PaymentFormID:   form,
		PaymentMethodID: firstNonZero(p.Method, dian.PaymentMethodEfectivo),
		PaymentDueDate:  now.Format(dateLayout),
		DurationMeasure: "0",
	}
	if form == dian.PaymentFormCredito {
		if p.DueDate != nil {
			out.PaymentDueDate = p.DueDate.Format(dateLayout)
		}
		out.DurationMeasure = strconv.Itoa(firstNonZero(p.DurationMeasure, dian.DefaultCreditDurationDays))
	}
	return out
}

func monetaryBlock(m tax.Monetary) MonetaryTotals {
	return MonetaryTotals{
		LineExtensionAmount:  tax.Money(m.LineExtension),
		TaxExclusiveAmount:   tax.Money(m.TaxExclusive),
		TaxInclusiveAmount:   tax.Money(m.TaxInclusive),
		AllowanceTotalAmount: tax.Money(m.Allowance),
		ChargeTotalAmount:    tax.Money(m.Charge),
		PayableAmount:        tax.Money(m.Payable),
	}
}

func documentAllowance(discountID int, base decimal.Decimal) AllowanceCharge {
	return AllowanceCharge{
		DiscountID:            discountID,
		ChargeIndicator:       false,
		AllowanceChargeReason: dian.DefaultAllowanceChargeReason,
		Amount:                "0.00",
		BaseAmount:            tax.Money(base),
	}
}

// ── Líneas de venta ────────────────────────────────────────────────────────────

// saleTaxTotals agrupa por (tributo, tarifa) con porcentaje a 2 decimales. Sin líneas el
// grupo sintético IVA 0% lleva el subtotal como base.
func saleTaxTotals(doc *entity.Document) []TaxTotal {
	if len(doc.Lines) == 0 {
		return []TaxTotal{{
			TaxID:         dian.TaxIDIVA,
			TaxAmount:     "0.00",
			Percent:       "0.00",
			TaxableAmount: tax.Money(doc.Totals.Subtotal),
		}}
	}
	groups := tax.GroupTaxes(tax.ItemsFromLines(doc.Lines))
	out := make([]TaxTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, TaxTotal{
			TaxID:         g.TaxID,
			TaxAmount:     tax.Money(g.TaxAmount),
			Percent:       tax.Percent2(g.Percent),
			TaxableAmount: tax.Money(g.Taxable),
		})
	}
	return out
}

func saleLines(lines []entity.Line) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for i, l := range lines {
		taxID := firstNonZero(l.TaxID, dian.TaxIDIVA)
		base := tax.Money(l.Base)
		qty := tax.Money(l.Quantity)
		out = append(out, LineItem{
			UnitMeasureID:         dian.UnitMeasureUnidad,
			InvoicedQuantity:      qty,
			LineExtensionAmount:   base,
			FreeOfChargeIndicator: false,
			TaxTotals: []TaxTotal{{
				TaxID:         taxID,
				TaxAmount:     tax.Money(l.TaxAmount),
				Percent:       tax.Percent2(l.TaxPercent),
				TaxableAmount: base,
			}},
			Description:              firstString(l.Description, "Producto"),
			Code:                     firstString(l.Code, strconv.Itoa(i+1)),
			TypeItemIdentificationID: dian.ItemIdentificationEstandar,
			PriceAmount:              tax.Money(salePrice(l)),
			BaseQuantity:             qty,
		})
	}
	return out
}

// salePrice precio unitario sin impuesto; si la línea no trae precio se deriva de la base.
func salePrice(l entity.Line) decimal.Decimal {
	if l.UnitPrice.IsZero() {
		if l.Quantity.IsPositive() {
			return l.Base.Div(l.Quantity)
		}
		return l.Base
	}
	if l.PriceIncludesTax {
		return tax.ComputeLine(tax.LineInput{
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			TaxPercent:       l.TaxPercent,
			PriceIncludesTax: true,
		}).UnitPriceExcl
	}
	return l.UnitPrice
}

// ── Líneas de compra (documento soporte y nota de ajuste) ─────────────────────

type purchaseLine struct {
	line    entity.Line
	amounts tax.LineAmounts
}

type purchaseSet struct {
	lines         []purchaseLine
	lineExtension decimal.Decimal
	tax           decimal.Decimal
}

// purchaseLines recalcula cada línea desde cantidad, precio y tarifa. En compras todo
// se reporta como IVA.
func purchaseLines(lines []entity.Line) purchaseSet {
	set := purchaseSet{lines: make([]purchaseLine, 0, len(lines))}
	for _, l := range lines {
		qty := l.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		amounts := tax.ComputeLine(tax.LineInput{
			Quantity:         qty,
			UnitPrice:        l.UnitPrice,
			TaxPercent:       l.TaxPercent,
			PriceIncludesTax: l.PriceIncludesTax,
		})
		l.Quantity = qty
		set.lines = append(set.lines, purchaseLine{line: l, amounts: amounts})
		set.lineExtension = set.lineExtension.Add(amounts.Base)
		set.tax = set.tax.Add(amounts.TaxAmount)
	}
	return set
}

// taxTotals agrupa por tarifa; el porcentaje viaja entero ("19").
func (p purchaseSet) taxTotals() []TaxTotal {
	items := make([]tax.Item, 0, len(p.lines))
	for _, pl := range p.lines {
		items = append(items, tax.Item{
			TaxID:     dian.TaxIDIVA,
			Percent:   pl.line.TaxPercent,
			Base:      pl.amounts.Base,
			TaxAmount: pl.amounts.TaxAmount,
		})
	}
	groups := tax.GroupTaxes(items)
	out := make([]TaxTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, TaxTotal{
			TaxID:         g.TaxID,
			TaxAmount:     tax.Money(g.TaxAmount),
			Percent:       tax.PercentInt(g.Percent),
			TaxableAmount: tax.Money(g.Taxable),
		})
	}
	return out
}

// items líneas de compra. startDate vacío omite los campos de generación/transmisión
// (la nota de ajuste no los lleva).
func (p purchaseSet) items(startDate string) []LineItem {
	out := make([]LineItem, 0, len(p.lines))
	for _, pl := range p.lines {
		base := tax.Money(pl.amounts.Base)
		qty := tax.Money(pl.line.Quantity)
		notes := ""
		item := LineItem{
			UnitMeasureID:         dian.UnitMeasureUnidad,
			InvoicedQuantity:      qty,
			LineExtensionAmount:   base,
			FreeOfChargeIndicator: false,
			AllowanceCharges: []AllowanceCharge{{
				ChargeIndicator:       false,
				AllowanceChargeReason: dian.DefaultAllowanceChargeReason,
				Amount:                "0.00",
				BaseAmount:            base,
			}},
			TaxTotals: []TaxTotal{{
				TaxID:         dian.TaxIDIVA,
				TaxAmount:     tax.Money(pl.amounts.TaxAmount),
				Percent:       tax.Percent2(pl.line.TaxPercent),
				TaxableAmount: base,
			}},
			Description:              firstString(pl.line.Description, "Producto"),
			Notes:                    &notes,
			Code:                     firstString(pl.line.Code, "PROD"),
			TypeItemIdentificationID: dian.ItemIdentificationEstandar,
			PriceAmount:              tax.Money(pl.amounts.UnitPriceExcl),
			BaseQuantity:             qty,
		}
		if startDate != "" {
			item.TypeGenerationTransmitionID = dian.GenerationTransmitionPorOp
			item.StartDate = startDate
		}
		out = append(out, item)
	}
	return out
}

// ── helpers ────────────────────────────────────────────────────────────────────

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstString(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
