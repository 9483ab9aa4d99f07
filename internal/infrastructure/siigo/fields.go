package siigo

// Section bloque del XML donde aparece un código.
type Section string

const (
	SectionGlobal  Section = "Global"
	SectionDetail  Section = "Detail"
	SectionPayment Section = "Payments"
)

// FieldCode atributo K de un elemento <D>. El conjunto es cerrado: cualquier código fuera de
// estas tablas se reporta como desconocido.
type FieldCode string

// Global (Billing/Global/D).
const (
	GlobalNumber           FieldCode = "0008"
	GlobalPrefix           FieldCode = "0009"
	GlobalIssueDate        FieldCode = "0022"
	GlobalDueDate          FieldCode = "0029"
	GlobalTotal            FieldCode = "0067"
	GlobalResolutionNumber FieldCode = "0071"
	GlobalResolutionDate   FieldCode = "0072"
	GlobalResolutionPrefix FieldCode = "0073"
	GlobalRangeFrom        FieldCode = "0074"
	GlobalRangeTo          FieldCode = "0075"
	GlobalDocumentType     FieldCode = "0497"
)

// Detalle (Billing/Detail/R/D).
const (
	DetailCode         FieldCode = "0031"
	DetailDescription  FieldCode = "0033"
	DetailDescription2 FieldCode = "0034"
	DetailUnit         FieldCode = "0035"
	DetailIVAPercent   FieldCode = "0036"
	DetailQuantity     FieldCode = "0038"
	DetailUnitPrice    FieldCode = "0039"
	DetailBase         FieldCode = "0041"
	DetailINCAmount    FieldCode = "0516"
	DetailIVAAmount    FieldCode = "0527"
	DetailINCPercent   FieldCode = "1139"
)

// Pagos (Billing/Payments/R/D).
const (
	PaymentCode     FieldCode = "0045"
	PaymentName     FieldCode = "0046"
	PaymentDueDate  FieldCode = "0051"
	PaymentDuration FieldCode = "1186"
)

var known = map[Section]map[FieldCode]string{
	SectionGlobal: {
		GlobalNumber:           "number",
		GlobalPrefix:           "prefix",
		GlobalIssueDate:        "issue_date",
		GlobalDueDate:          "due_date",
		GlobalTotal:            "total",
		GlobalResolutionNumber: "resolution_number",
		GlobalResolutionDate:   "resolution_date",
		GlobalResolutionPrefix: "resolution_prefix",
		GlobalRangeFrom:        "range_from",
		GlobalRangeTo:          "range_to",
		GlobalDocumentType:     "document_type",
	},
	SectionDetail: {
		DetailCode:         "code",
		DetailDescription:  "description",
		DetailDescription2: "description_alt",
		DetailUnit:         "unit",
		DetailIVAPercent:   "iva_percent",
		DetailQuantity:     "quantity",
		DetailUnitPrice:    "unit_price",
		DetailBase:         "base",
		DetailINCAmount:    "inc_amount",
		DetailIVAAmount:    "iva_amount",
		DetailINCPercent:   "inc_percent",
	},
	SectionPayment: {
		PaymentCode:     "code",
		PaymentName:     "name",
		PaymentDueDate:  "due_date",
		PaymentDuration: "duration",
	},
}

// Name nombre semántico del código en la sección; "" si es desconocido.
func (c FieldCode) Name(s Section) string { return known[s][c] }

// fields valores de un bloque ya clasificados por código conocido.
type fields map[FieldCode]string

func (f fields) get(c FieldCode) string { return f[c] }
