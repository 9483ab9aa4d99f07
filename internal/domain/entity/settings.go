package entity

import (
	"time"

	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// Settings configuración única de la empresa y de la API (fila id=1).
// Se crea con valores por defecto en el primer arranque y solo cambia por acciones explícitas.
type Settings struct {
	ID int64

	// Empresa
	CompanyName          string
	CompanyNIT           string
	CompanyDV            string
	CompanyAddress       string
	CompanyPhone         string
	CompanyEmail         string
	MerchantRegistration string

	// Catálogos por defecto para terceros
	TypeDocumentIdentificationID int
	TypeOrganizationID           int
	TypeRegimeID                 int
	TypeLiabilityID              int
	CustomerMunicipalityID       int
	SellerMunicipalityID         int
	PostalZoneCode               int

	// API - facturación
	APIURL      string
	APIToken    string
	SoftwareID  string
	SoftwarePIN string
	TestSetID   string
	Environment int // 1 producción, 2 habilitación

	// API - documento soporte
	SupportSoftwareID  string
	SupportSoftwarePIN string
	SupportTestSetID   string

	// Carpetas
	WatchFolder     string
	ProcessedFolder string

	UpdatedAt time.Time
}

// DefaultSettings valores del primer arranque.
func DefaultSettings(apiURL string) *Settings {
	return &Settings{
		ID:                           1,
		MerchantRegistration:         dian.DefaultMerchantRegistration,
		TypeDocumentIdentificationID: dian.DefaultTypeDocumentIdentID,
		TypeOrganizationID:           dian.DefaultTypeOrganizationID,
		TypeRegimeID:                 dian.DefaultTypeRegimeID,
		TypeLiabilityID:              dian.DefaultTypeLiabilityID,
		CustomerMunicipalityID:       dian.DefaultCustomerMunicipalityID,
		SellerMunicipalityID:         dian.DefaultSellerMunicipalityID,
		PostalZoneCode:               dian.DefaultPostalZoneCode,
		APIURL:                       apiURL,
		Environment:                  dian.EnvironmentTest,
	}
}

// IsTest ambiente de habilitación.
func (s *Settings) IsTest() bool { return s.Environment != dian.EnvironmentProduction }

// TestSetFor test set que corresponde al tipo (DS usa el propio).
func (s *Settings) TestSetFor(kind DocumentKind) string {
	if kind.UsesSupportCredentials() {
		return s.SupportTestSetID
	}
	return s.TestSetID
}

// Clone copia.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
