package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// ── Terceros ────────────────────────────────────────────────────────────────

// CustomerRequest body para POST/PUT /api/customers.
type CustomerRequest struct {
	Type                         string `json:"type"` // customer | supplier
	Identification               string `json:"identification_number"`
	CheckDigit                   string `json:"dv,omitempty"`
	Name                         string `json:"name"`
	TradeName                    string `json:"trade_name,omitempty"`
	Phone                        string `json:"phone,omitempty"`
	Email                        string `json:"email,omitempty"`
	Address                      string `json:"address,omitempty"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id,omitempty"`
	TypeOrganizationID           int    `json:"type_organization_id,omitempty"`
	TypeRegimeID                 int    `json:"type_regime_id,omitempty"`
	TypeLiabilityID              int    `json:"type_liability_id,omitempty"`
	MunicipalityID               int    `json:"municipality_id,omitempty"`
	IsActive                     *bool  `json:"is_active,omitempty"`
}

// CustomerResponse cliente o proveedor en respuestas.
type CustomerResponse struct {
	ID                           int64     `json:"id"`
	Type                         string    `json:"type"`
	Identification               string    `json:"identification_number"`
	CheckDigit                   string    `json:"dv"`
	Name                         string    `json:"name"`
	TradeName                    string    `json:"trade_name,omitempty"`
	Phone                        string    `json:"phone,omitempty"`
	Email                        string    `json:"email,omitempty"`
	Address                      string    `json:"address,omitempty"`
	TypeDocumentIdentificationID int       `json:"type_document_identification_id"`
	TypeOrganizationID           int       `json:"type_organization_id"`
	TypeRegimeID                 int       `json:"type_regime_id"`
	TypeLiabilityID              int       `json:"type_liability_id"`
	MunicipalityID               int       `json:"municipality_id"`
	IsActive                     bool      `json:"is_active"`
	CreatedAt                    time.Time `json:"created_at"`
}

// CustomerListResponse lista paginada.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// NewCustomerResponse mapea la entidad.
func NewCustomerResponse(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                           c.ID,
		Type:                         c.Type,
		Identification:               c.Identification,
		CheckDigit:                   c.CheckDigit,
		Name:                         c.Name,
		TradeName:                    c.TradeName,
		Phone:                        c.Phone,
		Email:                        c.Email,
		Address:                      c.Address,
		TypeDocumentIdentificationID: c.TypeDocumentIdentificationID,
		TypeOrganizationID:           c.TypeOrganizationID,
		TypeRegimeID:                 c.TypeRegimeID,
		TypeLiabilityID:              c.TypeLiabilityID,
		MunicipalityID:               c.MunicipalityID,
		IsActive:                     c.IsActive,
		CreatedAt:                    c.CreatedAt,
	}
}

// AcquirerResponse datos del adquiriente según la DIAN.
type AcquirerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ── Documentos ──────────────────────────────────────────────────────────────

// DocumentSummary fila del listado.
type DocumentSummary struct {
	ID           int64           `json:"id"`
	Kind         string          `json:"kind"`
	KindLabel    string          `json:"kind_label"`
	Number       string          `json:"number"`
	IssueDate    *time.Time      `json:"issue_date,omitempty"`
	Party        string          `json:"party"`
	PartyID      string          `json:"party_identification"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	StatusLabel  string          `json:"status_label"`
	FiscalKey    string          `json:"fiscal_key,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	IsNullified  bool            `json:"is_nullified"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DocumentResponse documento completo para GET /api/documents/:id.
type DocumentResponse struct {
	DocumentSummary
	Prefix         string              `json:"prefix"`
	Consecutive    string              `json:"consecutive"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	Customer       entity.Party        `json:"customer"`
	Lines          []entity.Line       `json:"lines"`
	Payment        entity.Payment      `json:"payment"`
	Totals         entity.Totals       `json:"totals"`
	Reference      *entity.Reference   `json:"reference,omitempty"`
	Discrepancy    *entity.Discrepancy `json:"discrepancy,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	SourceFilename string              `json:"source_filename,omitempty"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
}

// DocumentListResponse lista paginada.
type DocumentListResponse struct {
	Items []DocumentSummary `json:"items"`
	Page  PageResponse      `json:"page"`
}

// DocumentFilterRequest query de GET /api/documents.
type DocumentFilterRequest struct {
	PageRequest
	Kind      string `query:"kind"`
	Status    string `query:"status"`
	From      string `query:"from"` // YYYY-MM-DD
	To        string `query:"to"`
	Search    string `query:"q"`
	Nullified string `query:"nullified"` // "true" | "false" | ""
}

// NewDocumentSummary mapea la entidad a fila de listado.
func NewDocumentSummary(d *entity.Document) DocumentSummary {
	return DocumentSummary{
		ID:           d.ID,
		Kind:         string(d.Kind),
		KindLabel:    d.Kind.Label(),
		Number:       d.FullNumber(),
		IssueDate:    d.IssueDate,
		Party:        d.Party.Name,
		PartyID:      d.Party.Identification,
		Total:        d.Totals.Total,
		Status:       string(d.Status),
		StatusLabel:  d.Status.Label(),
		FiscalKey:    d.FiscalKey,
		ErrorMessage: d.ErrorMessage,
		IsNullified:  d.IsNullified,
		CreatedAt:    d.CreatedAt,
	}
}

// NewDocumentResponse mapea la entidad completa.
func NewDocumentResponse(d *entity.Document) DocumentResponse {
	return DocumentResponse{
		DocumentSummary: NewDocumentSummary(d),
		Prefix:          d.Prefix,
		Consecutive:     d.Number,
		DueDate:         d.DueDate,
		Customer:        d.Party,
		Lines:           d.Lines,
		Payment:         d.Payment,
		Totals:          d.Totals,
		Reference:       d.Reference,
		Discrepancy:     d.Discrepancy,
		Notes:           d.Notes,
		SourceFilename:  d.SourceFilename,
		SentAt:          d.SentAt,
	}
}

// DispatchResponse resultado de enviar un documento.
type DispatchResponse struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	Status    string `json:"status"`
	FiscalKey string `json:"fiscal_key,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResponse resultado de POST /api/documents/send-pending.
type BatchResponse struct {
	BatchID string             `json:"batch_id"`
	Sent    int                `json:"sent"`
	Failed  int                `json:"failed"`
	Results []DispatchResponse `json:"results"`
}

// IngestFileResponse resultado por archivo importado.
type IngestFileResponse struct {
	Filename   string `json:"filename"`
	Outcome    string `json:"outcome"`
	DocumentID int64  `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ScanResponse resultado de POST /api/folder/scan.
type ScanResponse struct {
	BatchID  string               `json:"batch_id"`
	Created  int                  `json:"created"`
	Skipped  int                  `json:"skipped"`
	Failed   int                  `json:"failed"`
	Files    []IngestFileResponse `json:"files"`
	Dispatch *BatchResponse       `json:"dispatch,omitempty"`
}

// ── Notas y documento soporte ───────────────────────────────────────────────

// NoteLineRequest línea del documento referenciado.
type NoteLineRequest struct {
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ManualLineRequest línea digitada.
type ManualLineRequest struct {
	ProductID        int64           `json:"product_id,omitempty"`
	Code             string          `json:"code,omitempty"`
	Description      string          `json:"description,omitempty"`
	Unit             string          `json:"unit,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TaxID            int             `json:"tax_id,omitempty"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	PriceIncludesTax *bool           `json:"price_includes_tax,omitempty"`
}

// CreditNoteRequest body para POST /api/documents/credit-notes.
type CreditNoteRequest struct {
	ReferenceID     int64             `json:"reference_id"`
	Lines           []NoteLineRequest `json:"lines"`
	DiscrepancyCode int               `json:"discrepancy_code,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// DebitNoteRequest body para POST /api/documents/debit-notes.
type DebitNoteRequest struct {
	ReferenceID     int64               `json:"reference_id"`
	Lines           []ManualLineRequest `json:"lines"`
	DiscrepancyCode int                 `json:"discrepancy_code,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

// AdjustmentNoteRequest body para POST /api/documents/adjustment-notes.
type AdjustmentNoteRequest struct {
	ReferenceID     int64             `json:"reference_id"`
	Lines           []NoteLineRequest `json:"lines"`
	DiscrepancyCode int               `json:"discrepancy_code,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// SupportDocumentRequest body para POST /api/documents/support-documents.
type SupportDocumentRequest struct {
	SupplierID      int64               `json:"supplier_id"`
	Lines           []ManualLineRequest `json:"lines"`
	PaymentFormID   int                 `json:"payment_form_id,omitempty"`
	PaymentMethodID int                 `json:"payment_method_id,omitempty"`
	DueDate         *time.Time          `json:"due_date,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

// ── Resoluciones ────────────────────────────────────────────────────────────

// ResolutionRequest body para POST/PUT /api/resolutions.
type ResolutionRequest struct {
	Kind           string     `json:"kind"`
	Prefix         string     `json:"prefix"`
	Resolution     string     `json:"resolution"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`
	TechnicalKey   string     `json:"technical_key,omitempty"`
	From           int64      `json:"from"`
	To             int64      `json:"to"`
	CurrentNumber  int64      `json:"current_number,omitempty"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// ResolutionResponse resolución con números disponibles.
type ResolutionResponse struct {
	ID             int64      `json:"id"`
	Kind           string     `json:"kind"`
	Prefix         string     `json:"prefix"`
	Resolution     string     `json:"resolution"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`
	TechnicalKey   string     `json:"technical_key,omitempty"`
	From           int64      `json:"from"`
	To             int64      `json:"to"`
	CurrentNumber  int64      `json:"current_number"`
	Remaining      int64      `json:"remaining"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`
	IsActive       bool       `json:"is_active"`
	SyncedWithAPI  bool       `json:"synced_with_api"`
}

// NewResolutionResponse mapea la entidad.
func NewResolutionResponse(r *entity.Resolution) ResolutionResponse {
	return ResolutionResponse{
		ID:             r.ID,
		Kind:           string(r.Kind),
		Prefix:         r.Prefix,
		Resolution:     r.Resolution,
		ResolutionDate: r.ResolutionDate,
		TechnicalKey:   r.TechnicalKey,
		From:           r.From,
		To:             r.To,
		CurrentNumber:  r.CurrentNumber,
		Remaining:      r.Remaining(),
		DateFrom:       r.DateFrom,
		DateTo:         r.DateTo,
		IsActive:       r.IsActive,
		SyncedWithAPI:  r.SyncedWithAPI,
	}
}

// ── Configuración ───────────────────────────────────────────────────────────

// SettingsRequest actualización parcial de la configuración; los campos nil no cambian.
type SettingsRequest struct {
	CompanyName                  *string `json:"company_name"`
	CompanyNIT                   *string `json:"company_nit"`
	CompanyDV                    *string `json:"company_dv"`
	CompanyAddress               *string `json:"company_address"`
	CompanyPhone                 *string `json:"company_phone"`
	CompanyEmail                 *string `json:"company_email"`
	MerchantRegistration         *string `json:"merchant_registration"`
	TypeDocumentIdentificationID *int    `json:"type_document_identification_id"`
	TypeOrganizationID           *int    `json:"type_organization_id"`
	TypeRegimeID                 *int    `json:"type_regime_id"`
	TypeLiabilityID              *int    `json:"type_liability_id"`
	CustomerMunicipalityID       *int    `json:"customer_municipality_id"`
	SellerMunicipalityID         *int    `json:"seller_municipality_id"`
	PostalZoneCode               *int    `json:"postal_zone_code"`
	APIURL                       *string `json:"api_url"`
	APIToken                     *string `json:"api_token"`
	SoftwareID                   *string `json:"software_id"`
	SoftwarePIN                  *string `json:"software_pin"`
	TestSetID                    *string `json:"test_set_id"`
	SupportSoftwareID            *string `json:"ds_software_id"`
	SupportSoftwarePIN           *string `json:"ds_software_pin"`
	SupportTestSetID             *string `json:"ds_test_set_id"`
	WatchFolder                  *string `json:"watch_folder"`
	ProcessedFolder              *string `json:"processed_folder"`
}

// Apply copia los campos presentes sobre s.
func (r SettingsRequest) Apply(s *entity.Settings) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setStr(&s.CompanyName, r.CompanyName)
	setStr(&s.CompanyNIT, r.CompanyNIT)
	setStr(&s.CompanyDV, r.CompanyDV)
	setStr(&s.CompanyAddress, r.CompanyAddress)
	setStr(&s.CompanyPhone, r.CompanyPhone)
	setStr(&s.CompanyEmail, r.CompanyEmail)
	setStr(&s.MerchantRegistration, r.MerchantRegistration)
	setInt(&s.TypeDocumentIdentificationID, r.TypeDocumentIdentificationID)
	setInt(&s.TypeOrganizationID, r.TypeOrganizationID)
	setInt(&s.TypeRegimeID, r.TypeRegimeID)
	setInt(&s.TypeLiabilityID, r.TypeLiabilityID)
	setInt(&s.CustomerMunicipalityID, r.CustomerMunicipalityID)
	setInt(&s.SellerMunicipalityID, r.SellerMunicipalityID)
	setInt(&s.PostalZoneCode, r.PostalZoneCode)
	setStr(&s.APIURL, r.APIURL)
	setStr(&s.APIToken, r.APIToken)
	setStr(&s.SoftwareID, r.SoftwareID)
	setStr(&s.SoftwarePIN, r.SoftwarePIN)
	setStr(&s.TestSetID, r.TestSetID)
	setStr(&s.SupportSoftwareID, r.SupportSoftwareID)
	setStr(&s.SupportSoftwarePIN, r.SupportSoftwarePIN)
	setStr(&s.SupportTestSetID, r.SupportTestSetID)
	setStr(&s.WatchFolder, r.WatchFolder)
	setStr(&s.ProcessedFolder, r.ProcessedFolder)
}

// SettingsResponse configuración sin secretos: token y PIN solo indican si están cargados.
type SettingsResponse struct {
	CompanyName                  string `json:"company_name"`
	CompanyNIT                   string `json:"company_nit"`
	CompanyDV                    string `json:"company_dv"`
	CompanyAddress               string `json:"company_address"`
	CompanyPhone                 string `json:"company_phone"`
	CompanyEmail                 string `json:"company_email"`
	MerchantRegistration         string `json:"merchant_registration"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id"`
	TypeOrganizationID           int    `json:"type_organization_id"`
	TypeRegimeID                 int    `json:"type_regime_id"`
	TypeLiabilityID              int    `json:"type_liability_id"`
	CustomerMunicipalityID       int    `json:"customer_municipality_id"`
	SellerMunicipalityID         int    `json:"seller_municipality_id"`
	PostalZoneCode               int    `json:"postal_zone_code"`
	APIURL                       string `json:"api_url"`
	HasAPIToken                  bool   `json:"has_api_token"`
	SoftwareID                   string `json:"software_id"`
	HasSoftwarePIN               bool   `json:"has_software_pin"`
	TestSetID                    string `json:"test_set_id"`
	Environment                  int    `json:"type_environment_id"`
	SupportSoftwareID            string `json:"ds_software_id"`
	HasSupportSoftwarePIN        bool   `json:"has_ds_software_pin"`
	SupportTestSetID             string `json:"ds_test_set_id"`
	WatchFolder                  string `json:"watch_folder"`
	ProcessedFolder              string `json:"processed_folder"`
}

// NewSettingsResponse mapea la entidad.
func NewSettingsResponse(s *entity.Settings) SettingsResponse {
	return SettingsResponse{
		CompanyName:                  s.CompanyName,
		CompanyNIT:                   s.CompanyNIT,
		CompanyDV:                    s.CompanyDV,
		CompanyAddress:               s.CompanyAddress,
		CompanyPhone:                 s.CompanyPhone,
		CompanyEmail:                 s.CompanyEmail,
		MerchantRegistration:         s.MerchantRegistration,
		TypeDocumentIdentificationID: s.TypeDocumentIdentificationID,
		TypeOrganizationID:           s.TypeOrganizationID,
		TypeRegimeID:                 s.TypeRegimeID,
		TypeLiabilityID:              s.TypeLiabilityID,
		CustomerMunicipalityID:       s.CustomerMunicipalityID,
		SellerMunicipalityID:         s.SellerMunicipalityID,
		PostalZoneCode:               s.PostalZoneCode,
		APIURL:                       s.APIURL,
		HasAPIToken:                  s.APIToken != "",
		SoftwareID:                   s.SoftwareID,
		HasSoftwarePIN:               s.SoftwarePIN != "",
		TestSetID:                    s.TestSetID,
		Environment:                  s.Environment,
		SupportSoftwareID:            s.SupportSoftwareID,
		HasSupportSoftwarePIN:        s.SupportSoftwarePIN != "",
		SupportTestSetID:             s.SupportTestSetID,
		WatchFolder:                  s.WatchFolder,
		ProcessedFolder:              s.ProcessedFolder,
	}
}

// EnvironmentRequest body para PUT /api/provisioning/environment.
type EnvironmentRequest struct {
	Environment int `json:"type_environment_id"`
}

// CallResponse resultado de una llamada de configuración a la API.
type CallResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Body    map[string]any `json:"body,omitempty"`
}

// LoginRequest body para POST /api/auth/token.
type LoginRequest struct {
	StationID string `json:"station_id"`
	Secret    string `json:"secret"`
}

// TokenResponse token de estación.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // segundos
}
