package apidian

// Cuerpos JSON de envío. El orden de los campos reproduce el orden de llaves que espera la API.

type CustomerBlock struct {
	IdentificationNumber         int64  `json:"identification_number"`
	DV                           *int   `json:"dv"`
	Name                         string `json:"name"`
	Phone                        string `json:"phone"`
	Address                      string `json:"address"`
	Email                        string `json:"email"`
	MerchantRegistration         string `json:"merchant_registration"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id"`
	TypeOrganizationID           int    `json:"type_organization_id"`
	TypeLiabilityID              int    `json:"type_liability_id"`
	MunicipalityID               int    `json:"municipality_id"`
	TypeRegimeID                 int    `json:"type_regime_id"`
}

// SellerBlock proveedor del documento soporte.
type SellerBlock struct {
	IdentificationNumber         string `json:"identification_number"`
	DV                           string `json:"dv"`
	Name                         string `json:"name"`
	Phone                        string `json:"phone"`
	Address                      string `json:"address"`
	Email                        string `json:"email"`
	MerchantRegistration         string `json:"merchant_registration"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id"`
	TypeOrganizationID           int    `json:"type_organization_id"`
	TypeRegimeID                 int    `json:"type_regime_id"`
	TypeLiabilityID              int    `json:"type_liability_id"`
	MunicipalityID               int    `json:"municipality_id"`
	PostalZoneCode               int    `json:"postal_zone_code"`
}

type PaymentForm struct {
	PaymentFormID   int    `json:"payment_form_id"`
	PaymentMethodID int    `json:"payment_method_id"`
	PaymentDueDate  string `json:"payment_due_date"`
	DurationMeasure string `json:"duration_measure"`
}

type MonetaryTotals struct {
	LineExtensionAmount  string `json:"line_extension_amount"`
	TaxExclusiveAmount   string `json:"tax_exclusive_amount"`
	TaxInclusiveAmount   string `json:"tax_inclusive_amount"`
	AllowanceTotalAmount string `json:"allowance_total_amount"`
	ChargeTotalAmount    string `json:"charge_total_amount"`
	PayableAmount        string `json:"payable_amount"`
}

type TaxTotal struct {
	TaxID         int    `json:"tax_id"`
	TaxAmount     string `json:"tax_amount"`
	Percent       string `json:"percent"`
	TaxableAmount string `json:"taxable_amount"`
}

// AllowanceCharge descuento/cargo. DiscountID solo aplica a nivel documento.
type AllowanceCharge struct {
	DiscountID            int    `json:"discount_id,omitempty"`
	ChargeIndicator       bool   `json:"charge_indicator"`
	AllowanceChargeReason string `json:"allowance_charge_reason"`
	Amount                string `json:"amount"`
	BaseAmount            string `json:"base_amount"`
}

type BillingReference struct {
	Number    string `json:"number"`
	UUID      string `json:"uuid"`
	IssueDate string `json:"issue_date"`
}

// LineItem línea de cualquier documento. Los campos con omitempty solo existen en
// documento soporte y nota de ajuste; Notes es puntero porque allí viaja como "".
type LineItem struct {
	UnitMeasureID               int               `json:"unit_measure_id"`
	InvoicedQuantity            string            `json:"invoiced_quantity"`
	LineExtensionAmount         string            `json:"line_extension_amount"`
	FreeOfChargeIndicator       bool              `json:"free_of_charge_indicator"`
	AllowanceCharges            []AllowanceCharge `json:"allowance_charges,omitempty"`
	TaxTotals                   []TaxTotal        `json:"tax_totals"`
	Description                 string            `json:"description"`
	Notes                       *string           `json:"notes,omitempty"`
	Code                        string            `json:"code"`
	TypeItemIdentificationID    int               `json:"type_item_identification_id"`
	PriceAmount                 string            `json:"price_amount"`
	BaseQuantity                string            `json:"base_quantity"`
	TypeGenerationTransmitionID int               `json:"type_generation_transmition_id,omitempty"`
	StartDate                   string            `json:"start_date,omitempty"`
}

// ── Documentos ─────────────────────────────────────────────────────────────────

type InvoicePayload struct {
	Number              int64          `json:"number"`
	TypeDocumentID      int            `json:"type_document_id"`
	Date                string         `json:"date"`
	Time                string         `json:"time"`
	Prefix              string         `json:"prefix"`
	SendMail            bool           `json:"sendmail"`
	Customer            CustomerBlock  `json:"customer"`
	PaymentForm         PaymentForm    `json:"payment_form"`
	LegalMonetaryTotals MonetaryTotals `json:"legal_monetary_totals"`
	TaxTotals           []TaxTotal     `json:"tax_totals"`
	InvoiceLines        []LineItem     `json:"invoice_lines"`
}

type CreditNotePayload struct {
	Number                         int64            `json:"number"`
	TypeDocumentID                 int              `json:"type_document_id"`
	Prefix                         string           `json:"prefix"`
	Date                           string           `json:"date"`
	Time                           string           `json:"time"`
	SendMail                       bool             `json:"sendmail"`
	Notes                          string           `json:"notes"`
	BillingReference               BillingReference `json:"billing_reference"`
	DiscrepancyResponseCode        int              `json:"discrepancyresponsecode"`
	DiscrepancyResponseDescription string           `json:"discrepancyresponsedescription"`
	Customer                       CustomerBlock    `json:"customer"`
	LegalMonetaryTotals            MonetaryTotals   `json:"legal_monetary_totals"`
	TaxTotals                      []TaxTotal       `json:"tax_totals"`
	CreditNoteLines                []LineItem       `json:"credit_note_lines"`
}

type DebitNotePayload struct {
	Number                         int64            `json:"number"`
	TypeDocumentID                 int              `json:"type_document_id"`
	Prefix                         string           `json:"prefix"`
	Date                           string           `json:"date"`
	Time                           string           `json:"time"`
	SendMail                       bool             `json:"sendmail"`
	Notes                          string           `json:"notes"`
	BillingReference               BillingReference `json:"billing_reference"`
	DiscrepancyResponseCode        int              `json:"discrepancyresponsecode"`
	DiscrepancyResponseDescription string           `json:"discrepancyresponsedescription"`
	Customer                       CustomerBlock    `json:"customer"`
	RequestedMonetaryTotals        MonetaryTotals   `json:"requested_monetary_totals"`
	TaxTotals                      []TaxTotal       `json:"tax_totals"`
	DebitNoteLines                 []LineItem       `json:"debit_note_lines"`
}

type SupportDocumentPayload struct {
	Number              int64             `json:"number"`
	TypeDocumentID      int               `json:"type_document_id"`
	Date                string            `json:"date"`
	Time                string            `json:"time"`
	Notes               string            `json:"notes"`
	SendMail            bool              `json:"sendmail"`
	SendMailToMe        bool              `json:"sendmailtome"`
	ResolutionNumber    string            `json:"resolution_number"`
	Prefix              string            `json:"prefix"`
	EstablishmentName   string            `json:"establishment_name"`
	Seller              SellerBlock       `json:"seller"`
	PaymentForm         PaymentForm       `json:"payment_form"`
	AllowanceCharges    []AllowanceCharge `json:"allowance_charges"`
	LegalMonetaryTotals MonetaryTotals    `json:"legal_monetary_totals"`
	TaxTotals           []TaxTotal        `json:"tax_totals"`
	InvoiceLines        []LineItem        `json:"invoice_lines"`
}

type AdjustmentNotePayload struct {
	BillingReference               BillingReference  `json:"billing_reference"`
	DiscrepancyResponseCode        int               `json:"discrepancyresponsecode"`
	DiscrepancyResponseDescription string            `json:"discrepancyresponsedescription"`
	Notes                          string            `json:"notes"`
	Prefix                         string            `json:"prefix"`
	Number                         int64             `json:"number"`
	TypeDocumentID                 int               `json:"type_document_id"`
	Date                           string            `json:"date"`
	Time                           string            `json:"time"`
	EstablishmentName              string            `json:"establishment_name"`
	SendMail                       bool              `json:"sendmail"`
	SendMailToMe                   bool              `json:"sendmailtome"`
	Seller                         SellerBlock       `json:"seller"`
	TaxTotals                      []TaxTotal        `json:"tax_totals"`
	AllowanceCharges               []AllowanceCharge `json:"allowance_charges"`
	LegalMonetaryTotals            MonetaryTotals    `json:"legal_monetary_totals"`
	CreditNoteLines                []LineItem        `json:"credit_note_lines"`
}
