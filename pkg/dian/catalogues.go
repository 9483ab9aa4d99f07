// Package dian contiene catálogos y utilidades alineados a la API de facturación
// electrónica DIAN (Colombia), en la numeración de IDs que espera ApiDian.
package dian

// =============================================================================
// Tipos de documento (type_document_id)
// =============================================================================

const (
	TypeDocumentInvoice         = 1  // Factura electrónica de venta
	TypeDocumentCreditNote      = 4  // Nota crédito
	TypeDocumentDebitNote       = 5  // Nota débito
	TypeDocumentSupportDocument = 11 // Documento soporte (adquisiciones a no obligados)
	TypeDocumentAdjustmentNote  = 13 // Nota de ajuste al documento soporte
)

// =============================================================================
// Tributos (tax_id)
// =============================================================================

const (
	TaxIDIVA = 1 // IVA
	TaxIDINC = 4 // Impuesto Nacional al Consumo
)

// =============================================================================
// Forma de pago (payment_form_id) y medios de pago (payment_method_id)
// =============================================================================

const (
	PaymentFormContado = 1
	PaymentFormCredito = 2
)

const (
	PaymentMethodEfectivo       = 10 // Efectivo
	PaymentMethodTransferencia  = 47 // Transferencia débito bancaria
	PaymentMethodTarjetaCredito = 48 // Tarjeta crédito
	PaymentMethodTarjetaDebito  = 49 // Tarjeta débito
)

// =============================================================================
// Valores fijos de línea y de terceros
// =============================================================================

const (
	UnitMeasureUnidad             = 70 // unit_measure_id "Unidad"
	ItemIdentificationEstandar    = 4  // type_item_identification_id
	GenerationTransmitionPorOp    = 1  // type_generation_transmition_id: por operación
	DiscountIDGeneral             = 1  // discount_id en notas de ajuste
	DiscountIDOtro                = 10 // discount_id en documento soporte
	DefaultMerchantRegistration   = "0000000-00"
	DefaultAllowanceChargeReason  = "DESCUENTO GENERAL"
	DefaultTypeDocumentIdentID    = 3   // Cédula de ciudadanía
	TypeDocumentIdentNIT          = 6
	DefaultTypeOrganizationID     = 2   // Persona natural
	DefaultTypeLiabilityID        = 117 // No responsable
	DefaultTypeRegimeID           = 2   // No responsable de IVA
	DefaultCustomerMunicipalityID = 1006
	DefaultSellerMunicipalityID   = 149 // Bogotá D.C.
	DefaultPostalZoneCode         = 110111
)

// =============================================================================
// Ambientes (type_environment_id)
// =============================================================================

const (
	EnvironmentProduction = 1
	EnvironmentTest       = 2 // Habilitación
)

// =============================================================================
// Conceptos de corrección (discrepancyresponsecode)
// =============================================================================

// CreditNoteDiscrepancies conceptos de nota crédito.
var CreditNoteDiscrepancies = map[int]string{
	1: "Devolución parcial",
	2: "Anulación de factura",
	3: "Rebaja o descuento",
	4: "Ajuste de precio",
	5: "Otros",
}

// DebitNoteDiscrepancies conceptos de nota débito.
var DebitNoteDiscrepancies = map[int]string{
	1: "Intereses",
	2: "Gastos por cobrar",
	3: "Cambio del valor",
	4: "Otros",
}

// AdjustmentNoteDiscrepancies conceptos de nota de ajuste al documento soporte.
var AdjustmentNoteDiscrepancies = map[int]string{
	1: "Devolución parcial de los bienes y/o no aceptación parcial del servicio",
	2: "Anulación",
	3: "Rebaja o descuento parcial o total",
	4: "Ajuste de precio",
	5: "Otros",
}

// Conceptos por defecto cuando el operador no indica uno.
const (
	DefaultCreditNoteDiscrepancy = 2
	DefaultCreditNoteDescription = "Anulación"
	DefaultDebitNoteDiscrepancy  = 3
	DefaultDebitNoteDescription  = "Ajuste"
	DefaultAdjustmentDiscrepancy = 2
	DefaultAdjustmentDescription = "DEVOLUCION DE MERCANCIA"
	DefaultAdjustmentNotes       = "NOTA DE AJUSTE AL DOCUMENTO SOPORTE"
	DefaultSupportDocumentNotes  = "SIN OBSERVACIONES"
	DefaultEstablishmentName     = "EMPRESA"
	DefaultCreditDurationDays    = 30
)
