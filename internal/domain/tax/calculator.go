// Package tax implementa el cálculo de bases, impuestos y totales (servicio de dominio puro).
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)

	// Tolerance diferencia máxima aceptada entre totales (una centésima).
	Tolerance = decimal.New(1, -2)
)

// LineInput datos de una línea para el cálculo.
type LineInput struct {
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	TaxPercent       decimal.Decimal
	PriceIncludesTax bool // precio de compra tal como aparece en el recibo del proveedor
}

// LineAmounts resultado sin redondear; el redondeo a 2 decimales ocurre al serializar.
type LineAmounts struct {
	UnitPriceExcl decimal.Decimal
	Base          decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// ComputeLine calcula base e impuesto de una línea.
//
//	precio sin impuesto = precio / (1 + tarifa/100)   si el precio incluye impuesto
//	base                = cantidad × precio sin impuesto
//	impuesto            = base × tarifa / 100
//	total               = base + impuesto
func ComputeLine(in LineInput) LineAmounts {
	excl := in.UnitPrice
	if in.PriceIncludesTax && in.TaxPercent.IsPositive() {
		excl = in.UnitPrice.Div(one.Add(in.TaxPercent.Div(hundred)))
	}
	base := in.Quantity.Mul(excl)
	taxAmount := base.Mul(in.TaxPercent).Div(hundred)
	return LineAmounts{
		UnitPriceExcl: excl,
		Base:          base,
		TaxAmount:     taxAmount,
		Total:         base.Add(taxAmount),
	}
}

// ApplyToLine recalcula Base y TaxAmount de la línea desde cantidad, precio y tarifa.
func ApplyToLine(l *entity.Line) {
	amounts := ComputeLine(LineInput{
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice,
		TaxPercent:       l.TaxPercent,
		PriceIncludesTax: l.PriceIncludesTax,
	})
	l.Base = amounts.Base
	l.TaxAmount = amounts.TaxAmount
}

// SumLines suma bases e impuestos ya calculados.
func SumLines(lines []entity.Line) (subtotal, taxTotal decimal.Decimal) {
	for _, l := range lines {
		subtotal = subtotal.Add(l.Base)
		taxTotal = taxTotal.Add(l.TaxAmount)
	}
	return subtotal, taxTotal
}

// Reconciliation resultado del cruce con el total declarado por el origen.
type Reconciliation int

const (
	TotalsMatch    Reconciliation = iota // el total declarado coincide (o no existe)
	TotalsDiscount                       // el total declarado es menor: la diferencia es descuento
	TotalsSurplus                        // el total declarado es mayor: se cobra el declarado
)

// Reconcile arma los totales del documento a partir de las sumas por línea.
// Si el total declarado difiere en más de Tolerance, prevalece: menor, la diferencia es
// descuento; mayor, se cobra el declarado con descuento cero y el llamador decide si lo reporta.
func Reconcile(subtotal, taxTotal, declared decimal.Decimal) (entity.Totals, Reconciliation) {
	computed := subtotal.Add(taxTotal)
	t := entity.Totals{Subtotal: subtotal, Tax: taxTotal, Total: computed}
	if !declared.IsPositive() || computed.Sub(declared).Abs().LessThanOrEqual(Tolerance) {
		return t, TotalsMatch
	}
	if declared.LessThan(computed) {
		t.Discount = computed.Sub(declared)
		t.Total = declared
		return t, TotalsDiscount
	}
	t.Total = declared
	return t, TotalsSurplus
}

// Balanced comprueba total == subtotal - descuento + impuesto dentro de la tolerancia.
func Balanced(t entity.Totals) bool {
	return t.Subtotal.Sub(t.Discount).Add(t.Tax).Sub(t.Total).Abs().LessThanOrEqual(Tolerance)
}

// Consistent acepta totales cuadrados o un total cobrado por encima de subtotal + impuesto
// sin descuento (TotalsSurplus). Un total menor sin descuento que lo explique no es consistente.
func Consistent(t entity.Totals) bool {
	if Balanced(t) {
		return true
	}
	return t.Discount.IsZero() && t.Total.GreaterThan(t.Subtotal.Add(t.Tax))
}

// Monetary montos del bloque legal_monetary_totals.
type Monetary struct {
	LineExtension decimal.Decimal
	TaxExclusive  decimal.Decimal
	TaxInclusive  decimal.Decimal
	Allowance     decimal.Decimal
	Charge        decimal.Decimal
	Payable       decimal.Decimal
}

// DocumentMonetary totales de venta: el descuento reduce la base gravable del documento.
// Si el total difiere del calculado en más de la tolerancia, se paga el total.
func DocumentMonetary(t entity.Totals) Monetary {
	excl := t.Subtotal.Sub(t.Discount)
	incl := excl.Add(t.Tax)
	payable := incl
	if t.Total.IsPositive() && t.Total.Sub(incl).Abs().GreaterThan(Tolerance) {
		payable = t.Total
	}
	return Monetary{
		LineExtension: t.Subtotal,
		TaxExclusive:  excl,
		TaxInclusive:  incl,
		Allowance:     t.Discount,
		Payable:       payable,
	}
}

// PurchaseMonetary totales de documento soporte y nota de ajuste (sin descuentos).
func PurchaseMonetary(lineExtension, taxTotal decimal.Decimal) Monetary {
	incl := lineExtension.Add(taxTotal)
	return Monetary{
		LineExtension: lineExtension,
		TaxExclusive:  lineExtension,
		TaxInclusive:  incl,
		Payable:       incl,
	}
}

// ── agrupación ──────────────────────────────────────────────────────────────

// Item aporte de una línea a la agrupación.
type Item struct {
	TaxID     int
	Percent   decimal.Decimal
	Base      decimal.Decimal
	TaxAmount decimal.Decimal
}

// Group total por (tributo, tarifa).
type Group struct {
	TaxID     int
	Percent   decimal.Decimal
	Taxable   decimal.Decimal
	TaxAmount decimal.Decimal
}

// GroupTaxes agrupa por (tributo, tarifa a 2 decimales) en orden de primera aparición.
// Sin ítems devuelve un único grupo IVA 0% en cero: la API rechaza tax_totals vacío.
func GroupTaxes(items []Item) []Group {
	type key struct {
		taxID   int
		percent string
	}
	index := make(map[key]int, len(items))
	groups := make([]Group, 0, len(items))
	for _, it := range items {
		k := key{taxID: it.TaxID, percent: it.Percent.StringFixed(2)}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{TaxID: it.TaxID, Percent: it.Percent})
		}
		groups[i].Taxable = groups[i].Taxable.Add(it.Base)
		groups[i].TaxAmount = groups[i].TaxAmount.Add(it.TaxAmount)
	}
	if len(groups) == 0 {
		groups = append(groups, Group{TaxID: dian.TaxIDIVA})
	}
	return groups
}

// ItemsFromLines adapta las líneas persistidas a ítems de agrupación.
func ItemsFromLines(lines []entity.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		taxID := l.TaxID
		if taxID == 0 {
			taxID = dian.TaxIDIVA
		}
		items = append(items, Item{TaxID: taxID, Percent: l.TaxPercent, Base: l.Base, TaxAmount: l.TaxAmount})
	}
	return items
}

// ── formato de serialización ────────────────────────────────────────────────

// Money monto con exactamente 2 decimales ("0.00", "1234.50").
func Money(d decimal.Decimal) string { return d.StringFixed(2) }

// Percent2 tarifa con 2 decimales, usada en bloques de línea ("19.00").
func Percent2(d decimal.Decimal) string { return d.StringFixed(2) }

// PercentInt tarifa entera sin decimales, usada en tax_totals del documento soporte ("19").
func PercentInt(d decimal.Decimal) string { return d.Truncate(0).String() }
