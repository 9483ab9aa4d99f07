package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/internal/domain/tax"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// NoteLineInput línea tomada del documento referenciado, por código.
type NoteLineInput struct {
	Code     string
	Quantity decimal.Decimal
}

// ManualLineInput línea digitada por el operador. Con ProductID los campos vacíos
// se completan desde el catálogo.
type ManualLineInput struct {
	ProductID        int64
	Code             string
	Description      string
	Unit             string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	TaxID            int
	TaxPercent       decimal.Decimal
	PriceIncludesTax *bool
}

// CreditNoteInput nota crédito sobre una factura aceptada. Sin líneas se acredita la factura completa.
type CreditNoteInput struct {
	ReferenceID     int64
	Lines           []NoteLineInput
	DiscrepancyCode int
	Notes           string
}

// DebitNoteInput nota débito con cargos adicionales sobre una factura aceptada.
type DebitNoteInput struct {
	ReferenceID     int64
	Lines           []ManualLineInput
	DiscrepancyCode int
	Notes           string
}

// SupportDocumentInput documento soporte de una compra a un no obligado a facturar.
type SupportDocumentInput struct {
	SupplierID int64         // tercero tipo supplier
	Supplier   *entity.Party // alternativa a SupplierID
	Lines      []ManualLineInput
	Payment    entity.Payment
	Notes      string
}

// AdjustmentNoteInput nota de ajuste sobre un documento soporte aceptado.
type AdjustmentNoteInput struct {
	ReferenceID     int64
	Lines           []NoteLineInput
	DiscrepancyCode int
	Notes           string
}

// CreateCreditNote crea la nota crédito pendiente con número asignado.
func (o *Orchestrator) CreateCreditNote(ctx context.Context, in CreditNoteInput) (*entity.Document, error) {
	ref, err := o.referenced(ctx, in.ReferenceID, entity.KindInvoice)
	if err != nil {
		return nil, err
	}
	if ref.IsNullified {
		return nil, fmt.Errorf("%w: la factura %s ya fue anulada", domain.ErrConflict, ref.FullNumber())
	}
	disc, err := discrepancyFor(entity.KindCreditNote, in.DiscrepancyCode)
	if err != nil {
		return nil, err
	}
	lines, err := subsetLines(ref.Lines, in.Lines)
	if err != nil {
		return nil, err
	}
	doc := o.noteFrom(ref, entity.KindCreditNote, lines, disc, in.Notes)
	if err := o.createNumbered(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateDebitNote crea la nota débito pendiente con número asignado.
func (o *Orchestrator) CreateDebitNote(ctx context.Context, in DebitNoteInput) (*entity.Document, error) {
	ref, err := o.referenced(ctx, in.ReferenceID, entity.KindInvoice)
	if err != nil {
		return nil, err
	}
	disc, err := discrepancyFor(entity.KindDebitNote, in.DiscrepancyCode)
	if err != nil {
		return nil, err
	}
	lines, err := o.manualLines(ctx, in.Lines, false)
	if err != nil {
		return nil, err
	}
	doc := o.noteFrom(ref, entity.KindDebitNote, lines, disc, in.Notes)
	if err := o.createNumbered(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateAdjustmentNote crea la nota de ajuste sobre un documento soporte.
func (o *Orchestrator) CreateAdjustmentNote(ctx context.Context, in AdjustmentNoteInput) (*entity.Document, error) {
	ref, err := o.referenced(ctx, in.ReferenceID, entity.KindSupportDocument)
	if err != nil {
		return nil, err
	}
	disc, err := discrepancyFor(entity.KindAdjustmentNote, in.DiscrepancyCode)
	if err != nil {
		return nil, err
	}
	lines, err := subsetLines(ref.Lines, in.Lines)
	if err != nil {
		return nil, err
	}
	notes := in.Notes
	if strings.TrimSpace(notes) == "" {
		notes = dian.DefaultAdjustmentNotes
	}
	doc := o.noteFrom(ref, entity.KindAdjustmentNote, lines, disc, notes)
	if err := o.createNumbered(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateSupportDocument crea el documento soporte. Los precios se toman con IVA incluido
// salvo que la línea diga lo contrario.
func (o *Orchestrator) CreateSupportDocument(ctx context.Context, in SupportDocumentInput) (*entity.Document, error) {
	var party entity.Party
	switch {
	case in.SupplierID != 0:
		sup, err := o.customers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return nil, err
		}
		if sup == nil {
			return nil, fmt.Errorf("proveedor %d: %w", in.SupplierID, domain.ErrNotFound)
		}
		party = sup.ToParty()
	case in.Supplier != nil:
		party = *in.Supplier
	default:
		return nil, domain.NewValidationFailure("seller", "seleccione el proveedor")
	}
	if strings.TrimSpace(party.CheckDigit) == "" {
		party.CheckDigit = dian.VerificationDigitString(party.Identification)
	}

	lines, err := o.manualLines(ctx, in.Lines, true)
	if err != nil {
		return nil, err
	}
	now := o.now()
	payment := in.Payment
	if payment.Form == 0 {
		payment.Form = dian.PaymentFormContado
	}
	if payment.Method == 0 {
		payment.Method = dian.PaymentMethodEfectivo
	}
	notes := in.Notes
	if strings.TrimSpace(notes) == "" {
		notes = dian.DefaultSupportDocumentNotes
	}
	doc := &entity.Document{
		Kind:      entity.KindSupportDocument,
		IssueDate: &now,
		Party:     party,
		Lines:     lines,
		Payment:   payment,
		Totals:    lineTotals(lines),
		Status:    entity.StatusPending,
		Notes:     notes,
	}
	if err := o.createNumbered(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// createNumbered asigna el siguiente número de la resolución activa e inserta el documento
// en la misma transacción: si el insert falla el número no se consume.
func (o *Orchestrator) createNumbered(ctx context.Context, doc *entity.Document) error {
	err := o.tx.RunBilling(ctx, func(docs repository.DocumentRepository, resolutions repository.ResolutionRepository) error {
		res, err := resolutions.GetActive(ctx, doc.Kind, "")
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("%w para %s", domain.ErrNoActiveRange, doc.Kind.Label())
		}
		if !res.IsValidOn(o.now()) {
			return domain.NewValidationFailure("resolution", fmt.Sprintf("la resolución %s no está vigente", res.Resolution))
		}
		n, err := resolutions.AllocateNumber(ctx, res.ID)
		if err != nil {
			return err
		}
		doc.Prefix = res.Prefix
		doc.Number = strconv.FormatInt(n, 10)
		doc.ResolutionID = &res.ID
		return docs.Create(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRangeExhausted) {
			o.metrics.RangeExhausted(doc.Kind)
			o.log.Error().Str("kind", string(doc.Kind)).Msg("rango de numeración agotado")
		}
		return err
	}
	o.log.Info().Int64("doc_id", doc.ID).Str("kind", string(doc.Kind)).Str("number", doc.FullNumber()).Msg("documento creado")
	return nil
}

// referenced carga el documento a referenciar y exige que esté aceptado con clave fiscal.
func (o *Orchestrator) referenced(ctx context.Context, id int64, kind entity.DocumentKind) (*entity.Document, error) {
	ref, err := o.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("documento %d: %w", id, domain.ErrNotFound)
	}
	if ref.Kind != kind {
		return nil, domain.NewValidationFailure("billing_reference", fmt.Sprintf("se esperaba %s, el documento es %s", kind.Label(), ref.Kind.Label()))
	}
	if ref.Status != entity.StatusSent || !ref.HasFiscalKey() {
		return nil, domain.NewValidationFailure("billing_reference.uuid",
			fmt.Sprintf("el documento %s no ha sido aceptado por la DIAN (sin CUFE/CUDE)", ref.FullNumber()))
	}
	return ref, nil
}

func (o *Orchestrator) noteFrom(ref *entity.Document, kind entity.DocumentKind, lines []entity.Line, disc entity.Discrepancy, notes string) *entity.Document {
	now := o.now()
	issued := ref.CreatedAt
	if ref.IssueDate != nil {
		issued = *ref.IssueDate
	}
	return &entity.Document{
		Kind:      kind,
		IssueDate: &now,
		Party:     ref.Party,
		Lines:     lines,
		Payment:   ref.Payment,
		Totals:    lineTotals(lines),
		Status:    entity.StatusPending,
		Reference: &entity.Reference{
			DocumentID: ref.ID,
			Number:     ref.FullNumber(),
			FiscalKey:  ref.FiscalKey,
			IssueDate:  issued,
		},
		Discrepancy: &disc,
		Notes:       strings.TrimSpace(notes),
	}
}

func discrepancyFor(kind entity.DocumentKind, code int) (entity.Discrepancy, error) {
	var catalog map[int]string
	var def int
	switch kind {
	case entity.KindCreditNote:
		catalog, def = dian.CreditNoteDiscrepancies, dian.DefaultCreditNoteDiscrepancy
	case entity.KindDebitNote:
		catalog, def = dian.DebitNoteDiscrepancies, dian.DefaultDebitNoteDiscrepancy
	default:
		catalog, def = dian.AdjustmentNoteDiscrepancies, dian.DefaultAdjustmentDiscrepancy
	}
	if code == 0 {
		code = def
	}
	desc, ok := catalog[code]
	if !ok {
		return entity.Discrepancy{}, domain.NewValidationFailure("discrepancyresponsecode", fmt.Sprintf("concepto %d no válido para %s", code, kind.Label()))
	}
	return entity.Discrepancy{Code: code, Description: desc}, nil
}

// subsetLines toma las líneas pedidas del original; la cantidad no puede superar la original.
// Sin selección se copian todas.
func subsetLines(original []entity.Line, picks []NoteLineInput) ([]entity.Line, error) {
	if len(picks) == 0 {
		if len(original) == 0 {
			return nil, domain.NewValidationFailure("lines", "el documento referenciado no tiene líneas")
		}
		return append([]entity.Line(nil), original...), nil
	}
	byCode := make(map[string]entity.Line, len(original))
	for _, l := range original {
		if _, dup := byCode[l.Code]; !dup {
			byCode[l.Code] = l
		}
	}
	used := map[string]decimal.Decimal{}
	out := make([]entity.Line, 0, len(picks))
	for i, p := range picks {
		field := fmt.Sprintf("lines[%d]", i)
		src, ok := byCode[strings.TrimSpace(p.Code)]
		if !ok {
			return nil, domain.NewValidationFailure(field+".code", fmt.Sprintf("el código %q no está en el documento referenciado", p.Code))
		}
		if !p.Quantity.IsPositive() {
			return nil, domain.NewValidationFailure(field+".quantity", "la cantidad debe ser mayor que cero")
		}
		total := used[src.Code].Add(p.Quantity)
		if total.GreaterThan(src.Quantity) {
			return nil, domain.NewValidationFailure(field+".quantity",
				fmt.Sprintf("la cantidad %s supera la original %s", total.String(), src.Quantity.String()))
		}
		used[src.Code] = total
		line := src
		if !p.Quantity.Equal(src.Quantity) {
			line.Quantity = p.Quantity
			tax.ApplyToLine(&line)
		}
		out = append(out, line)
	}
	return out, nil
}

// manualLines arma líneas digitadas; includesTax es el valor por defecto del flag.
func (o *Orchestrator) manualLines(ctx context.Context, in []ManualLineInput, includesTax bool) ([]entity.Line, error) {
	if len(in) == 0 {
		return nil, domain.NewValidationFailure("lines", "agregue al menos una línea")
	}
	out := make([]entity.Line, 0, len(in))
	for i, m := range in {
		field := fmt.Sprintf("lines[%d]", i)
		if m.ProductID != 0 {
			p, err := o.products.GetByID(ctx, m.ProductID)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, fmt.Errorf("producto %d: %w", m.ProductID, domain.ErrNotFound)
			}
			if m.Code == "" {
				m.Code = p.Code
			}
			if m.Description == "" {
				m.Description = p.Name
			}
			if m.UnitPrice.IsZero() {
				m.UnitPrice = p.UnitPrice
			}
			if m.TaxPercent.IsZero() {
				m.TaxPercent = p.TaxPercent
			}
		}
		if strings.TrimSpace(m.Description) == "" {
			return nil, domain.NewValidationFailure(field+".description", "descripción requerida")
		}
		if !m.Quantity.IsPositive() {
			return nil, domain.NewValidationFailure(field+".quantity", "la cantidad debe ser mayor que cero")
		}
		if m.UnitPrice.IsNegative() {
			return nil, domain.NewValidationFailure(field+".unit_price", "precio negativo")
		}
		if m.TaxID == 0 {
			m.TaxID = dian.TaxIDIVA
		}
		line := entity.Line{
			Code:             strings.TrimSpace(m.Code),
			Description:      strings.TrimSpace(m.Description),
			Unit:             m.Unit,
			Quantity:         m.Quantity,
			UnitPrice:        m.UnitPrice,
			PriceIncludesTax: includesTax,
			TaxID:            m.TaxID,
			TaxPercent:       m.TaxPercent,
		}
		if m.PriceIncludesTax != nil {
			line.PriceIncludesTax = *m.PriceIncludesTax
		}
		tax.ApplyToLine(&line)
		out = append(out, line)
	}
	return out, nil
}

func lineTotals(lines []entity.Line) entity.Totals {
	sub, taxTotal := tax.SumLines(lines)
	return entity.Totals{Subtotal: sub, Tax: taxTotal, Total: sub.Add(taxTotal)}
}
