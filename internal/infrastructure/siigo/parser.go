// Package siigo lee las exportaciones XML planas del POS Siigo (bloques de pares K/V)
// y las normaliza a entity.Document.
package siigo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/tax"
	"github.com/jhoicas/facturador-dian/pkg/dian"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// SourceResolution resolución que el POS declara en el documento (solo informativa).
type SourceResolution struct {
	Number string
	Date   *time.Time
	Prefix string
	From   int64
	To     int64
}

// Result documento normalizado más los datos del XML que no viajan en el documento.
type Result struct {
	Document       *entity.Document
	Issuer         entity.Party // CompanyData
	IssuerRegime   string
	Resolution     SourceResolution
	DeclaredTotal  decimal.Decimal // código 0067
	Reconciliation tax.Reconciliation
	UnknownCodes   []string // "Sección:código", ordenados
	Encoding       string
}

// Parser convierte exportaciones XML de Siigo en documentos pendientes.
type Parser struct {
	log *logger.Logger
}

// NewParser construye el parser.
func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.Nop()
	}
	return &Parser{log: log.Component("siigo")}
}

// ParseFile lee y parsea un archivo; el documento guarda solo el nombre base.
func (p *Parser) ParseFile(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ParseFailure{File: filepath.Base(path), Err: err}
	}
	return p.Parse(raw, filepath.Base(path))
}

// Parse convierte el XML crudo. Cualquier error estructural o numérico devuelve
// *domain.ParseFailure y nada del documento se usa.
func (p *Parser) Parse(raw []byte, filename string) (*Result, error) {
	filename = baseName(filename)
	text, encoding := Decode(raw)

	xdoc := etree.NewDocument()
	// El texto ya está en UTF-8; la declaración encoding="ISO-8859-1" no debe volver a decodificarse.
	xdoc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := xdoc.ReadFromString(text); err != nil {
		return nil, &domain.ParseFailure{File: filename, Err: err}
	}
	root := xdoc.Root()
	if root == nil {
		return nil, &domain.ParseFailure{File: filename, Err: errors.New("documento sin raíz")}
	}
	billing := root.SelectElement("Billing")
	if billing == nil {
		return nil, &domain.ParseFailure{File: filename, Field: "Billing", Err: errors.New("bloque no encontrado")}
	}

	st := &state{file: filename, unknown: map[string]struct{}{}}
	global := st.block(SectionGlobal, billing.SelectElement("Global"))
	details := st.rows(SectionDetail, billing.SelectElement("Detail"))
	payments := st.rows(SectionPayment, billing.SelectElement("Payments"))

	lines, err := st.lines(details)
	if err != nil {
		return nil, err
	}
	payment, err := st.payment(payments)
	if err != nil {
		return nil, err
	}
	declared, err := st.decimal(SectionGlobal, -1, GlobalTotal, global.get(GlobalTotal), decimal.Zero)
	if err != nil {
		return nil, err
	}
	from, err := st.integer(SectionGlobal, -1, GlobalRangeFrom, global.get(GlobalRangeFrom))
	if err != nil {
		return nil, err
	}
	to, err := st.integer(SectionGlobal, -1, GlobalRangeTo, global.get(GlobalRangeTo))
	if err != nil {
		return nil, err
	}

	subtotal, taxTotal := tax.SumLines(lines)
	totals, reconciliation := tax.Reconcile(subtotal, taxTotal, declared)

	prefix := strings.TrimSpace(global.get(GlobalResolutionPrefix))
	if prefix == "" {
		prefix = strings.TrimSpace(global.get(GlobalPrefix))
	}

	doc := &entity.Document{
		Kind:           ClassifyKind(global.get(GlobalDocumentType)),
		Prefix:         prefix,
		Number:         strings.TrimSpace(global.get(GlobalNumber)),
		IssueDate:      ParseDate(global.get(GlobalIssueDate)),
		DueDate:        ParseDate(global.get(GlobalDueDate)),
		Party:          customerParty(root.SelectElement("Customer")),
		Lines:          lines,
		Payment:        payment,
		Totals:         totals,
		Status:         entity.StatusPending,
		SourceFilename: filename,
		SourceXML:      text,
	}

	res := &Result{
		Document:       doc,
		Issuer:         issuerParty(root.SelectElement("CompanyData")),
		IssuerRegime:   childText(root.SelectElement("CompanyData"), "RegimeType"),
		DeclaredTotal:  declared,
		Reconciliation: reconciliation,
		UnknownCodes:   st.unknownCodes(),
		Encoding:       encoding,
		Resolution: SourceResolution{
			Number: strings.TrimSpace(global.get(GlobalResolutionNumber)),
			Date:   ParseDate(global.get(GlobalResolutionDate)),
			Prefix: prefix,
			From:   from,
			To:     to,
		},
	}

	ev := p.log.Debug().Str("file", filename).Str("encoding", encoding).
		Str("kind", string(doc.Kind)).Str("number", doc.FullNumber()).Int("lines", len(lines))
	if len(res.UnknownCodes) > 0 {
		ev = ev.Strs("unknown_codes", res.UnknownCodes)
	}
	ev.Msg("XML parseado")
	if reconciliation == tax.TotalsSurplus {
		p.log.Warn().Str("file", filename).
			Str("declared_total", tax.Money(declared)).
			Str("computed_total", tax.Money(subtotal.Add(taxTotal))).
			Msg("total declarado mayor que el calculado; se cobra el declarado")
	}
	return res, nil
}

// ParseDate convierte "YYYYMMDD"; vacío, corto o inválido devuelve nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return nil
	}
	t, err := time.ParseInLocation("20060102", s[:8], time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// ── helpers ─────────────────────────────────────────────────────────────────

type paymentTerm struct {
	form   int
	method int
	name   string
}

// Códigos de forma de pago de Siigo (0045). Lo no listado es contado en efectivo.
var paymentTerms = map[string]paymentTerm{
	"0080": {dian.PaymentFormContado, dian.PaymentMethodEfectivo, "Contado"},
	"0090": {dian.PaymentFormContado, dian.PaymentMethodEfectivo, "Contado"},
	"0001": {dian.PaymentFormCredito, dian.PaymentMethodEfectivo, "Crédito"},
	"0020": {dian.PaymentFormCredito, dian.PaymentMethodEfectivo, "Crédito"},
	"0010": {dian.PaymentFormContado, dian.PaymentMethodTarjetaCredito, "Tarjeta Visa"},
	"0011": {dian.PaymentFormContado, dian.PaymentMethodTarjetaCredito, "Tarjeta Amex"},
	"0012": {dian.PaymentFormContado, dian.PaymentMethodTarjetaCredito, "Tarjeta Mastercard"},
	"0040": {dian.PaymentFormContado, dian.PaymentMethodEfectivo, "Anticipo"},
	"0060": {dian.PaymentFormContado, dian.PaymentMethodEfectivo, "Anticipo"},
}

const defaultPaymentCode = "0080"

var defaultTerm = paymentTerm{dian.PaymentFormContado, dian.PaymentMethodEfectivo, "Contado"}

// state acumula códigos desconocidos mientras se recorre el XML.
type state struct {
	file    string
	unknown map[string]struct{}
}

func (st *state) block(section Section, el *etree.Element) fields {
	f := fields{}
	if el == nil {
		return f
	}
	for _, d := range el.SelectElements("D") {
		k := strings.TrimSpace(d.SelectAttrValue("K", ""))
		if k == "" {
			continue
		}
		code := FieldCode(k)
		if code.Name(section) == "" {
			st.unknown[string(section)+":"+k] = struct{}{}
			continue
		}
		f[code] = d.Text()
	}
	return f
}

func (st *state) rows(section Section, el *etree.Element) []fields {
	if el == nil {
		return nil
	}
	var out []fields
	for _, r := range el.SelectElements("R") {
		if len(r.SelectElements("D")) == 0 {
			continue
		}
		out = append(out, st.block(section, r))
	}
	return out
}

func (st *state) lines(rows []fields) ([]entity.Line, error) {
	lines := make([]entity.Line, 0, len(rows))
	for i, r := range rows {
		ivaPercent, err := st.decimal(SectionDetail, i, DetailIVAPercent, r.get(DetailIVAPercent), decimal.Zero)
		if err != nil {
			return nil, err
		}
		ivaAmount, err := st.decimal(SectionDetail, i, DetailIVAAmount, r.get(DetailIVAAmount), decimal.Zero)
		if err != nil {
			return nil, err
		}
		incAmount, err := st.decimal(SectionDetail, i, DetailINCAmount, r.get(DetailINCAmount), decimal.Zero)
		if err != nil {
			return nil, err
		}
		incPercent, err := st.decimal(SectionDetail, i, DetailINCPercent, r.get(DetailINCPercent), decimal.Zero)
		if err != nil {
			return nil, err
		}
		qty, err := st.decimal(SectionDetail, i, DetailQuantity, r.get(DetailQuantity), decimal.NewFromInt(1))
		if err != nil {
			return nil, err
		}
		price, err := st.decimal(SectionDetail, i, DetailUnitPrice, r.get(DetailUnitPrice), decimal.Zero)
		if err != nil {
			return nil, err
		}
		base, err := st.decimal(SectionDetail, i, DetailBase, r.get(DetailBase), decimal.Zero)
		if err != nil {
			return nil, err
		}

		taxID, percent, amount := classifyTax(ivaPercent, ivaAmount, incPercent, incAmount)

		description := strings.TrimSpace(r.get(DetailDescription))
		if description == "" {
			description = strings.TrimSpace(r.get(DetailDescription2))
		}
		unit := strings.TrimSpace(r.get(DetailUnit))
		if _, ok := r[DetailUnit]; !ok {
			unit = "UN"
		}
		lines = append(lines, entity.Line{
			Code:        strings.TrimSpace(r.get(DetailCode)),
			Description: description,
			Unit:        unit,
			Quantity:    qty,
			UnitPrice:   price,
			TaxID:       taxID,
			TaxPercent:  percent,
			Base:        base,
			TaxAmount:   amount,
		})
	}
	return lines, nil
}

// classifyTax decide el tributo por los campos con valor: INC primero, luego IVA,
// y si ninguno tiene valor, IVA 0% sin impuesto. Una línea nunca lleva ambos.
func classifyTax(ivaPercent, ivaAmount, incPercent, incAmount decimal.Decimal) (int, decimal.Decimal, decimal.Decimal) {
	switch {
	case !incAmount.IsZero() || !incPercent.IsZero():
		return dian.TaxIDINC, incPercent, incAmount
	case !ivaPercent.IsZero() || !ivaAmount.IsZero():
		return dian.TaxIDIVA, ivaPercent, ivaAmount
	}
	return dian.TaxIDIVA, decimal.Zero, decimal.Zero
}

func (st *state) payment(rows []fields) (entity.Payment, error) {
	var r fields
	if len(rows) > 0 {
		r = rows[0]
	}
	code := strings.TrimSpace(r.get(PaymentCode))
	if _, ok := r[PaymentCode]; !ok {
		code = defaultPaymentCode
	}
	term, ok := paymentTerms[code]
	if !ok {
		term = defaultTerm
	}
	name := strings.TrimSpace(r.get(PaymentName))
	if _, ok := r[PaymentName]; !ok {
		name = term.name
	}
	duration, err := st.decimal(SectionPayment, 0, PaymentDuration, r.get(PaymentDuration), decimal.Zero)
	if err != nil {
		return entity.Payment{}, err
	}
	return entity.Payment{
		Code:            code,
		Name:            name,
		Form:            term.form,
		Method:          term.method,
		DueDate:         ParseDate(r.get(PaymentDueDate)),
		DurationMeasure: int(duration.IntPart()),
	}, nil
}

// decimal interpreta un valor numérico; vacío toma def. Acepta coma decimal si no hay punto.
func (st *state) decimal(section Section, row int, code FieldCode, raw string, def decimal.Decimal) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &domain.ParseFailure{File: st.file, Field: fieldRef(section, row, code), Err: fmt.Errorf("valor numérico inválido %q", raw)}
	}
	return v, nil
}

func (st *state) integer(section Section, row int, code FieldCode, raw string) (int64, error) {
	v, err := st.decimal(section, row, code, raw, decimal.Zero)
	if err != nil {
		return 0, err
	}
	return v.IntPart(), nil
}

func (st *state) unknownCodes() []string {
	out := make([]string, 0, len(st.unknown))
	for k := range st.unknown {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fieldRef(section Section, row int, code FieldCode) string {
	if row < 0 {
		return fmt.Sprintf("%s/%s", section, code)
	}
	return fmt.Sprintf("%s[%d]/%s", section, row, code)
}

func customerParty(el *etree.Element) entity.Party {
	if el == nil {
		return entity.Party{}
	}
	name := childText(el, "FirstName")
	if !strings.EqualFold(childText(el, "IsSocialReason"), "TRUE") {
		name = strings.TrimSpace(name + " " + childText(el, "LastName"))
	}
	return entity.Party{
		Identification: childText(el, "Code"),
		CheckDigit:     childText(el, "CheckDigit"),
		Name:           name,
		Address:        childText(el, "Address"),
		Phone:          childText(el, "Phone"),
		Email:          childText(el, "EMail"),
	}
}

func issuerParty(el *etree.Element) entity.Party {
	if el == nil {
		return entity.Party{}
	}
	return entity.Party{
		Identification: childText(el, "Nit"),
		Name:           childText(el, "Name"),
		Address:        childText(el, "Address"),
		Phone:          childText(el, "Phone"),
		Email:          childText(el, "EMail"),
		City:           childText(el, "City"),
	}
}

func childText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	c := el.SelectElement(tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
