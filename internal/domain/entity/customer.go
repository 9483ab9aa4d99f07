package entity

import "time"

// Tipos de tercero.
const (
	CustomerTypeCustomer = "customer"
	CustomerTypeSupplier = "supplier" // proveedor no obligado (documento soporte)
)

// Customer cliente o proveedor. Los documentos guardan una copia (Party), no una referencia.
type Customer struct {
	ID                           int64
	Type                         string
	Identification               string // NIT o cédula, único
	CheckDigit                   string
	Name                         string
	TradeName                    string
	Phone                        string
	Email                        string
	Address                      string
	TypeDocumentIdentificationID int
	TypeOrganizationID           int
	TypeRegimeID                 int
	TypeLiabilityID              int
	MunicipalityID               int
	IsActive                     bool
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// ToParty snapshot para un documento nuevo.
func (c *Customer) ToParty() Party {
	return Party{
		Identification:               c.Identification,
		CheckDigit:                   c.CheckDigit,
		Name:                         c.Name,
		Email:                        c.Email,
		Phone:                        c.Phone,
		Address:                      c.Address,
		TypeDocumentIdentificationID: c.TypeDocumentIdentificationID,
		TypeOrganizationID:           c.TypeOrganizationID,
		TypeLiabilityID:              c.TypeLiabilityID,
		TypeRegimeID:                 c.TypeRegimeID,
		MunicipalityID:               c.MunicipalityID,
	}
}

// Clone copia.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
