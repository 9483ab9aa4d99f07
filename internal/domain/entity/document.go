package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// DocumentKind tipo de documento electrónico.
type DocumentKind string

const (
	KindInvoice         DocumentKind = "invoice"
	KindCreditNote      DocumentKind = "credit_note"
	KindDebitNote       DocumentKind = "debit_note"
	KindSupportDocument DocumentKind = "support_document"
	KindAdjustmentNote  DocumentKind = "adjustment_note"
)

// Kinds todos los tipos, en el orden en que se muestran.
var Kinds = []DocumentKind{KindInvoice, KindCreditNote, KindDebitNote, KindSupportDocument, KindAdjustmentNote}

// TypeDocumentID devuelve el type_document_id de la API (1, 4, 5, 11, 13).
func (k DocumentKind) TypeDocumentID() int {
	switch k {
	case KindInvoice:
		return dian.TypeDocumentInvoice
	case KindCreditNote:
		return dian.TypeDocumentCreditNote
	case KindDebitNote:
		return dian.TypeDocumentDebitNote
	case KindSupportDocument:
		return dian.TypeDocumentSupportDocument
	case KindAdjustmentNote:
		return dian.TypeDocumentAdjustmentNote
	}
	return 0
}

// Valid indica si el tipo es conocido.
func (k DocumentKind) Valid() bool { return k.TypeDocumentID() != 0 }

// RequiresReference notas que apuntan a un documento previo aceptado.
func (k DocumentKind) RequiresReference() bool {
	return k == KindCreditNote || k == KindDebitNote || k == KindAdjustmentNote
}

// UsesSupportCredentials documento soporte y su nota de ajuste se envían con el software DS.
func (k DocumentKind) UsesSupportCredentials() bool {
	return k == KindSupportDocument || k == KindAdjustmentNote
}

// Label nombre corto para listados y PDF.
func (k DocumentKind) Label() string {
	switch k {
	case KindInvoice:
		return "Factura"
	case KindCreditNote:
		return "Nota Crédito"
	case KindDebitNote:
		return "Nota Débito"
	case KindSupportDocument:
		return "Doc. Soporte"
	case KindAdjustmentNote:
		return "Nota Ajuste DS"
	}
	return string(k)
}

// KindFromTypeDocumentID operación inversa de TypeDocumentID.
func KindFromTypeDocumentID(id int) (DocumentKind, bool) {
	for _, k := range Kinds {
		if k.TypeDocumentID() == id {
			return k, true
		}
	}
	return "", false
}

// DocumentStatus estado del ciclo de vida frente a la autoridad.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusSent       DocumentStatus = "sent"
	StatusRejected   DocumentStatus = "rejected"
	StatusError      DocumentStatus = "error"
)

// Label texto para el operador.
func (s DocumentStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusProcessing:
		return "Procesando"
	case StatusSent:
		return "Procesado Correctamente"
	case StatusRejected:
		return "Rechazado"
	case StatusError:
		return "Error"
	}
	return string(s)
}

// Retryable error y rejected vuelven a pending solo por acción del operador.
func (s DocumentStatus) Retryable() bool {
	return s == StatusError || s == StatusRejected
}

// transitions grafo permitido del ciclo de vida.
//
//	pending    -> processing
//	processing -> sent | rejected | error | pending (validación previa fallida)
//	error      -> pending
//	rejected   -> pending
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusSent, StatusRejected, StatusError, StatusPending},
	StatusError:      {StatusPending},
	StatusRejected:   {StatusPending},
}

// CanTransition indica si from -> to es un paso válido.
func CanTransition(from, to DocumentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Party copia congelada del cliente (o proveedor, en documento soporte) al crear el documento.
// Los IDs de catálogo en cero toman el valor por defecto de settings al construir el payload.
type Party struct {
	Identification               string `json:"identification"`
	CheckDigit                   string `json:"check_digit,omitempty"`
	Name                         string `json:"name"`
	Email                        string `json:"email,omitempty"`
	Phone                        string `json:"phone,omitempty"`
	Address                      string `json:"address,omitempty"`
	City                         string `json:"city,omitempty"`
	Code                         string `json:"code,omitempty"` // código interno del POS
	MerchantRegistration         string `json:"merchant_registration,omitempty"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id,omitempty"`
	TypeOrganizationID           int    `json:"type_organization_id,omitempty"`
	TypeLiabilityID              int    `json:"type_liability_id,omitempty"`
	TypeRegimeID                 int    `json:"type_regime_id,omitempty"`
	MunicipalityID               int    `json:"municipality_id,omitempty"`
	PostalZoneCode               int    `json:"postal_zone_code,omitempty"`
}

// Line línea del documento. Base es el valor sin impuesto (cantidad × precio sin impuesto).
type Line struct {
	Code             string          `json:"code,omitempty"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	PriceIncludesTax bool            `json:"price_includes_tax,omitempty"`
	TaxID            int             `json:"tax_id"` // 1 IVA, 4 INC
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	Base             decimal.Decimal `json:"base"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
}

// Payment condiciones de pago normalizadas.
type Payment struct {
	Code            string     `json:"code,omitempty"` // código de origen
	Name            string     `json:"name,omitempty"`
	Form            int        `json:"payment_form_id"`
	Method          int        `json:"payment_method_id"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	DurationMeasure int        `json:"duration_measure,omitempty"` // días, solo crédito
}

// IsCredit forma de pago crédito.
func (p Payment) IsCredit() bool { return p.Form == dian.PaymentFormCredito }

// Totals totales del documento: Total = Subtotal - Discount + Tax (tolerancia 0.01).
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Reference documento previo referenciado por una nota, copiado al crearla.
type Reference struct {
	DocumentID int64     `json:"document_id"`
	Number     string    `json:"number"` // número completo (prefijo + consecutivo)
	FiscalKey  string    `json:"fiscal_key"`
	IssueDate  time.Time `json:"issue_date"`
}

// Discrepancy concepto de corrección de una nota.
type Discrepancy struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// Document documento electrónico con su snapshot de tercero, líneas y estado frente a la DIAN.
type Document struct {
	ID             int64
	Kind           DocumentKind
	Prefix         string
	Number         string
	IssueDate      *time.Time
	DueDate        *time.Time
	Party          Party
	Lines          []Line
	Payment        Payment
	Totals         Totals
	Status         DocumentStatus
	FiscalKey      string // CUFE / CUDE / CUDS
	ErrorMessage   string
	IsNullified    bool // factura anulada por una nota crédito enviada
	SourceFilename string
	SourceXML      string
	Reference      *Reference
	Discrepancy    *Discrepancy
	Notes          string
	ResolutionID   *int64
	APIRequest     json.RawMessage
	APIResponse    json.RawMessage
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullNumber prefijo + consecutivo ("SETP990000123").
func (d *Document) FullNumber() string {
	return strings.TrimSpace(d.Prefix) + strings.TrimSpace(d.Number)
}

// HasFiscalKey el documento fue aceptado con clave fiscal.
func (d *Document) HasFiscalKey() bool { return strings.TrimSpace(d.FiscalKey) != "" }

// Clone copia profunda; el store en memoria no comparte punteros con los llamadores.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = append([]Line(nil), d.Lines...)
	c.IssueDate = cloneTime(d.IssueDate)
	c.DueDate = cloneTime(d.DueDate)
	c.SentAt = cloneTime(d.SentAt)
	c.Payment.DueDate = cloneTime(d.Payment.DueDate)
	if d.Reference != nil {
		ref := *d.Reference
		c.Reference = &ref
	}
	if d.Discrepancy != nil {
		disc := *d.Discrepancy
		c.Discrepancy = &disc
	}
	if d.ResolutionID != nil {
		id := *d.ResolutionID
		c.ResolutionID = &id
	}
	c.APIRequest = append(json.RawMessage(nil), d.APIRequest...)
	c.APIResponse = append(json.RawMessage(nil), d.APIResponse...)
	return &c
}

// DocumentFilter filtros del listado de documentos.
type DocumentFilter struct {
	Kind      DocumentKind
	Status    DocumentStatus
	From      *time.Time // fecha de emisión desde (inclusive)
	To        *time.Time // fecha de emisión hasta (inclusive)
	Search    string     // número, identificación o nombre del tercero
	Nullified *bool      // filtra por is_nullified cuando no es nil
	Limit     int
	Offset    int
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
