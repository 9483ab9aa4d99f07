// Package pdf genera la vista previa en PDF de un documento electrónico (factura, notas,
// documento soporte). La representación gráfica oficial la entrega la API una vez aceptado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + NIT  │  Tipo + N° + Fecha            │
//	│  EMISOR / TERCERO                                            │
//	│  REFERENCIA (solo notas)                                     │
//	│  TABLA: Cant | Descripción | P.Unit | Imp% | Base            │
//	│  TOTALES: Subtotal / Descuento / Impuestos / TOTAL            │
//	│  FOOTER: estado + clave fiscal + QR de consulta               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// URLs de consulta pública de documentos por clave fiscal.
const (
	qrURLProduction = "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey="
	qrURLTest       = "https://catalogo-vpfe-hab.dian.gov.co/document/searchqr?documentkey="
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.DocumentPDFGenerator con Maroto v2.
type MarotoPDFGenerator struct{}

var _ billing.DocumentPDFGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDocumentPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDocumentPDF(_ context.Context, doc *entity.Document, s *entity.Settings) ([]byte, error) {
	if doc == nil || s == nil {
		return nil, fmt.Errorf("pdf: documento o configuración nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title(doc.Kind), true).
		WithAuthor(s.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(s))
	m.AddRows(partyRow(doc))
	if doc.Reference != nil {
		m.AddRows(referenceRow(doc))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(doc.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc.Totals))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(doc, s)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func title(k entity.DocumentKind) string {
	switch k {
	case entity.KindInvoice:
		return "FACTURA ELECTRÓNICA DE VENTA"
	case entity.KindCreditNote:
		return "NOTA CRÉDITO ELECTRÓNICA"
	case entity.KindDebitNote:
		return "NOTA DÉBITO ELECTRÓNICA"
	case entity.KindSupportDocument:
		return "DOCUMENTO SOPORTE"
	case entity.KindAdjustmentNote:
		return "NOTA DE AJUSTE AL DOCUMENTO SOPORTE"
	}
	return "DOCUMENTO ELECTRÓNICO"
}

func headerRow(doc *entity.Document, s *entity.Settings) core.Row {
	fecha := "-"
	if doc.IssueDate != nil {
		fecha = doc.IssueDate.Format("02/01/2006")
	}
	nit := s.CompanyNIT
	if s.CompanyDV != "" {
		nit += "-" + s.CompanyDV
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(s.CompanyName, "-"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+nit, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(title(doc.Kind), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(doc.FullNumber(), "SIN NÚMERO"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func issuerRow(s *entity.Settings) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(s.CompanyAddress, "-"),
				nonEmpty(s.CompanyPhone, "-"),
				nonEmpty(s.CompanyEmail, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func partyRow(doc *entity.Document) core.Row {
	label := "ADQUIRIENTE"
	if doc.Kind.UsesSupportCredentials() {
		label = "PROVEEDOR"
	}
	p := doc.Party
	ident := p.Identification
	if p.CheckDigit != "" {
		ident += "-" + p.CheckDigit
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(p.Name, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Tel: %s",
				nonEmpty(ident, "-"),
				nonEmpty(p.Email, "-"),
				nonEmpty(p.Phone, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func referenceRow(doc *entity.Document) core.Row {
	ref := doc.Reference
	concept := ""
	if doc.Discrepancy != nil {
		concept = fmt.Sprintf("   |   Concepto %d: %s", doc.Discrepancy.Code, doc.Discrepancy.Description)
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DOCUMENTO REFERENCIADO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("N° %s   |   Fecha: %s%s", ref.Number, ref.IssueDate.Format("02/01/2006"), concept),
				props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Imp.%", 1, align.Center),
		h("Base", 3, align.Right),
	)
}

func tableDetailRows(lines []entity.Line) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(money(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.TaxPercent.String()+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(money(l.Base), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(t entity.Totals) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1})
	}
	return row.New(30).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:"),
			label("Descuento:"),
			label("Impuestos:"),
			label("TOTAL:"),
		),
		col.New(3).Add(
			value(money(t.Subtotal)),
			value(money(t.Discount)),
			value(money(t.Tax)),
			grand(money(t.Total)),
		),
		col.New(3),
	)
}

func footerRows(doc *entity.Document, s *entity.Settings) []core.Row {
	status := fmt.Sprintf("Estado: %s", doc.Status.Label())
	if doc.IsNullified {
		status += " (anulada por nota crédito)"
	}
	statusColor := colorGray
	if doc.Status == entity.StatusRejected || doc.Status == entity.StatusError {
		statusColor = colorAlert
	}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New(status, props.Text{Style: fontstyle.Bold, Size: 8, Color: statusColor, Top: 1}),
		)),
	}

	if !doc.HasFiscalKey() {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("VISTA PREVIA SIN VALIDEZ FISCAL", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorAlert, Top: 2,
			}),
		)))
		return rows
	}

	rows = append(rows, row.New(5).Add(col.New(12).Add(
		text.New("Clave fiscal (CUFE/CUDE/CUDS):", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
	)))
	for _, chunk := range splitEvery(doc.FiscalKey, 80) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	qrURL := qrURLProduction
	if s.IsTest() {
		qrURL = qrURLTest
	}
	rows = append(rows, row.New(3), row.New(45).Add(
		col.New(4).Add(code.NewQr(qrURL+doc.FiscalKey, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("Escanea el código QR para consultar\neste documento en el portal DIAN.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formato "$1.234.567,89".
func money(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	out := "$" + formatThousands(intPart) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// formatThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
